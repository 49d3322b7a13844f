package entity

// Binding ties one connection to its seat in a room.
type Binding struct {
	ConnectionID string `json:"connection_id"`
	RoomCode     string `json:"room_code"`
	Symbol       Mark   `json:"symbol"`
}
