package rest

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
)

// DefaultMaxBoardSize bounds request boards when no limit is configured.
const DefaultMaxBoardSize = 9

var ErrBoardTooLarge = errors.New("board is too large")

// BotRequest is a full position sent by a client that plays offline.
type BotRequest struct {
	Size       int                `json:"size"`
	Board      []entity.Mark      `json:"board"`
	MarksX     []int              `json:"marksX"`
	MarksO     []int              `json:"marksO"`
	ToMove     entity.Mark        `json:"toMove"`
	Difficulty service.Difficulty `json:"difficulty"`
	HintsUsed  int                `json:"hintsUsed"`
}

// State - builds and validates the game state described by the request, boards wider than maxSize are refused.
func (that BotRequest) State(maxSize int) (entity.GameState, error) {
	if that.Size > maxSize {
		return entity.GameState{}, fmt.Errorf("%w: %d, at most %d", ErrBoardTooLarge, that.Size, maxSize)
	}

	state := entity.GameState{
		Size:   that.Size,
		Board:  entity.Board(that.Board),
		MarksX: that.MarksX,
		MarksO: that.MarksO,
		Turn:   that.ToMove,
	}

	if err := state.Validate(); err != nil {
		return entity.GameState{}, err
	}

	return state, nil
}

type MoveResponse struct {
	Cell  int              `json:"cell"`
	Kind  service.MoveKind `json:"kind"`
	Score int              `json:"score"`
}

type HintResponse struct {
	Cell      int              `json:"cell"`
	Kind      service.MoveKind `json:"kind"`
	Remaining int              `json:"remaining"`
}

type RoomsResponse struct {
	Rooms   int `json:"rooms"`
	Waiting int `json:"waiting"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
