package entity

import "time"

// Phase is a room lifecycle state.
type Phase string

const (
	PhaseAwaitingOpponent Phase = "awaiting_opponent"
	PhaseCountdown        Phase = "countdown"
	PhaseActive           Phase = "active"
	PhaseCompleted        Phase = "completed"
	PhaseAbandoned        Phase = "abandoned"
)

// HasOpponent - reports whether both seats of the room are taken in this phase.
func (that Phase) HasOpponent() bool {
	return that == PhaseCountdown || that == PhaseActive || that == PhaseCompleted
}

// MatchResult is the summary of one completed online game.
type MatchResult struct {
	RoomCode   string    `json:"room_code"`
	Winner     Mark      `json:"winner"`
	Moves      int       `json:"moves"`
	BoardSize  int       `json:"board_size"`
	FinishedAt time.Time `json:"finished_at"`
}
