package entity

// Client to server events.
const (
	ActionCreateRoom  = "createRoom"
	ActionJoinRoom    = "joinRoom"
	ActionRandomJoin  = "randomJoin"
	ActionMakeMove    = "makeMove"
	ActionSendMessage = "sendMessage"
	ActionRestartGame = "restartGame"
	ActionRequestHint = "requestHint"
	ActionLeaveRoom   = "leaveRoom"
)

// Server to client events.
const (
	EventRoomCreated    = "roomCreated"
	EventRoomJoined     = "roomJoined"
	EventBothJoined     = "bothJoined"
	EventCountdown      = "countdown"
	EventGameStarted    = "gameStarted"
	EventOpponentMove   = "opponentMove"
	EventTurnUpdate     = "turnUpdate"
	EventGameOver       = "gameOver"
	EventReceiveMessage = "receiveMessage"
	EventErrorMsg       = "errorMsg"
	EventNotice         = "notice"
	EventHint           = "hint"
	EventRestartGame    = "restartGame"
	EventOpponentLeft   = "opponentLeft"
	EventKickAll        = "kickAll"
)

type RoomCreatedPayload struct {
	Code string `json:"code"`
}

type RoomJoinedPayload struct {
	Code   string `json:"code"`
	Symbol Mark   `json:"symbol"`
}

type CountdownPayload struct {
	Remaining int `json:"remaining"`
}

type OpponentMovePayload struct {
	Index   int `json:"index"`
	Evicted int `json:"evicted"`
}

type TurnPayload struct {
	CurrentTurn Mark `json:"currentTurn"`
}

type GameOverPayload struct {
	Winner Mark `json:"winner"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type HintPayload struct {
	Cell      int    `json:"cell"`
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
}
