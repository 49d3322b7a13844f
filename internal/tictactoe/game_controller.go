package tictactoe

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

// NoEviction is the Outcome.Evicted value when no mark was removed.
const NoEviction = -1

// WinLine is three cell indexes forming a contiguous run.
type WinLine [3]int

// Outcome describes what a single move did to the board.
type Outcome struct {
	Won     bool
	Evicted int
}

var winLinesCache sync.Map // board size -> []WinLine

// WinLines - returns every length-3 run in rows, columns and both diagonal directions of a size x size grid.
// The result is cached per size and shared, callers must not modify it.
func WinLines(size int) []WinLine {
	if cached, ok := winLinesCache.Load(size); ok {
		return cached.([]WinLine) //nolint: forcetypeassert // only []WinLine is stored
	}

	lines, _ := winLinesCache.LoadOrStore(size, buildWinLines(size))
	return lines.([]WinLine) //nolint: forcetypeassert // only []WinLine is stored
}

func buildWinLines(size int) []WinLine {
	if size < entity.MinBoardSize {
		return nil
	}

	at := func(row, col int) int { return row*size + col }
	runs := size - 2
	lines := make([]WinLine, 0, 2*size*runs+2*runs*runs)

	for row := 0; row < size; row++ {
		for col := 0; col < runs; col++ {
			lines = append(lines, WinLine{at(row, col), at(row, col+1), at(row, col+2)})
		}
	}

	for col := 0; col < size; col++ {
		for row := 0; row < runs; row++ {
			lines = append(lines, WinLine{at(row, col), at(row+1, col), at(row+2, col)})
		}
	}

	for row := 0; row < runs; row++ {
		for col := 0; col < runs; col++ {
			lines = append(lines, WinLine{at(row, col), at(row+1, col+1), at(row+2, col+2)})
		}
	}

	for row := 0; row < runs; row++ {
		for col := 2; col < size; col++ {
			lines = append(lines, WinLine{at(row, col), at(row+1, col-1), at(row+2, col-2)})
		}
	}

	return lines
}

// HasWin - reports whether side owns all three cells of some win line.
func HasWin(board entity.Board, side entity.Mark) bool {
	if !side.IsPlayer() {
		return false
	}

	for _, line := range WinLines(board.Size()) {
		if board[line[0]] == side && board[line[1]] == side && board[line[2]] == side {
			return true
		}
	}

	return false
}

// ApplyMove - places side's mark on cell and returns the resulting state.
// The input state is never modified. A move that completes a line keeps every mark of the mover on the board,
// otherwise the mover's oldest mark is removed once the mover holds more than entity.MaxMarks marks.
func ApplyMove(state entity.GameState, side entity.Mark, cell int) (entity.GameState, Outcome, error) {
	if state.IsFinished() {
		return state, Outcome{Evicted: NoEviction}, apperror.ErrGameFinished
	}

	if err := validateMove(state, side, cell); err != nil {
		return state, Outcome{Evicted: NoEviction}, fmt.Errorf("invalid move: %w", err)
	}

	next := state.Clone()
	next.Board[cell] = side
	queue := append(next.Queue(side), cell)

	outcome := Outcome{Evicted: NoEviction}

	switch {
	case HasWin(next.Board, side):
		outcome.Won = true
		next.Winner = side
	case len(queue) > entity.MaxMarks:
		oldest := queue[0]
		queue = queue[1:]
		next.Board[oldest] = entity.EmptyCell
		outcome.Evicted = oldest
	}

	next.SetQueue(side, queue)
	next.Turn = side.Opponent()

	return next, outcome, nil
}

// validateMove - checks if the move is valid.
func validateMove(state entity.GameState, side entity.Mark, cell int) error {
	if cell < 0 || cell >= len(state.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if state.Turn != side {
		return apperror.ErrNotYourTurn
	}

	if state.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}
