package websocket

import (
	"encoding/json"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type RoomRequest struct {
	Room string `json:"room"`
}

type MoveRequest struct {
	Room  string `json:"room"`
	Index *int   `json:"index"`
}

type ChatRequest struct {
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// encode - builds the frame for an outgoing event, a nil payload is omitted.
func encode(action string, payload any) ([]byte, error) {
	msg := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}

	return json.Marshal(msg)
}
