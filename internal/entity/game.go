package entity

import (
	"errors"
	"fmt"
)

// Mark is the content of a single board cell.
type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

const (
	// MaxMarks is how many marks a side may keep on the board at once.
	MaxMarks = 3

	// MinBoardSize is the smallest grid that still has a three-in-a-row.
	MinBoardSize = 3
)

var (
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrInconsistentGame = errors.New("inconsistent game state")
	ErrUnknownMark      = errors.New("unknown mark")
)

// Opponent - returns the other side, EmptyCell for EmptyCell.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

// IsPlayer - reports whether the mark is X or O.
func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

// Board is a row-major NxN grid.
type Board []Mark

// Size - returns N for an NxN board.
func (that Board) Size() int {
	n := 0
	for n*n < len(that) {
		n++
	}
	return n
}

// GameState is the full position of one game: board, both sides' mark queues, side to move and winner.
type GameState struct {
	Size   int   `json:"size"`
	Board  Board `json:"board"`
	MarksX []int `json:"marks_x"`
	MarksO []int `json:"marks_o"`
	Turn   Mark  `json:"turn"`
	Winner Mark  `json:"winner,omitempty"`
}

func NewGameState(size int) GameState {
	return GameState{
		Size:   size,
		Board:  make(Board, size*size),
		MarksX: make([]int, 0, MaxMarks+1),
		MarksO: make([]int, 0, MaxMarks+1),
		Turn:   PlayerX,
	}
}

// Clone - returns a deep copy that shares no slices with the original.
func (that GameState) Clone() GameState {
	clone := that
	clone.Board = append(make(Board, 0, len(that.Board)), that.Board...)
	clone.MarksX = append(make([]int, 0, MaxMarks+1), that.MarksX...)
	clone.MarksO = append(make([]int, 0, MaxMarks+1), that.MarksO...)
	return clone
}

// Queue - returns the mark queue of a side, oldest first.
func (that GameState) Queue(side Mark) []int {
	if side == PlayerO {
		return that.MarksO
	}
	return that.MarksX
}

// SetQueue - replaces the mark queue of a side.
func (that *GameState) SetQueue(side Mark, queue []int) {
	if side == PlayerO {
		that.MarksO = queue
		return
	}
	that.MarksX = queue
}

// EmptyCells - returns indexes of all empty cells in ascending order.
func (that GameState) EmptyCells() []int {
	cells := make([]int, 0, len(that.Board))
	for i, cell := range that.Board {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func (that GameState) IsFinished() bool {
	return that.Winner != EmptyCell
}

// Validate - checks the invariants that tie the board to the mark queues.
func (that GameState) Validate() error {
	if that.Size < MinBoardSize {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, that.Size)
	}

	if len(that.Board) != that.Size*that.Size {
		return fmt.Errorf("%w: board has %d cells, want %d", ErrInconsistentGame, len(that.Board), that.Size*that.Size)
	}

	if !that.Turn.IsPlayer() {
		return fmt.Errorf("%w: turn %q", ErrUnknownMark, that.Turn)
	}

	if that.Winner != EmptyCell && !that.Winner.IsPlayer() {
		return fmt.Errorf("%w: winner %q", ErrUnknownMark, that.Winner)
	}

	seen := make(map[int]struct{}, 2*MaxMarks)
	for _, side := range []Mark{PlayerX, PlayerO} {
		queue := that.Queue(side)
		if len(queue) > MaxMarks && that.Winner != side {
			return fmt.Errorf("%w: %s holds %d marks", ErrInconsistentGame, side, len(queue))
		}

		for _, cell := range queue {
			if cell < 0 || cell >= len(that.Board) {
				return fmt.Errorf("%w: %s queue index %d", ErrInconsistentGame, side, cell)
			}
			if _, dup := seen[cell]; dup {
				return fmt.Errorf("%w: cell %d queued twice", ErrInconsistentGame, cell)
			}
			if that.Board[cell] != side {
				return fmt.Errorf("%w: cell %d is not marked %s", ErrInconsistentGame, cell, side)
			}
			seen[cell] = struct{}{}
		}
	}

	for i, cell := range that.Board {
		switch cell {
		case EmptyCell:
		case PlayerX, PlayerO:
			if _, ok := seen[i]; !ok {
				return fmt.Errorf("%w: cell %d is not in any queue", ErrInconsistentGame, i)
			}
		default:
			return fmt.Errorf("%w: cell %d holds %q", ErrUnknownMark, i, cell)
		}
	}

	return nil
}
