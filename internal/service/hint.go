package service

import (
	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
)

// HintBudget counts hints used in one game. It is not safe for concurrent use,
// each room keeps one per occupant and only touches it from its own goroutine.
type HintBudget struct {
	limit int
	used  int
}

func NewHintBudget(limit int) *HintBudget {
	return &HintBudget{limit: limit}
}

// Take - spends one hint or returns apperror.ErrHintLimitReached.
func (that *HintBudget) Take() error {
	if that.used >= that.limit {
		return apperror.ErrHintLimitReached
	}
	that.used++
	return nil
}

// Refund - gives back one hint that could not be delivered.
func (that *HintBudget) Refund() {
	if that.used > 0 {
		that.used--
	}
}

func (that *HintBudget) Remaining() int {
	return max(that.limit-that.used, 0)
}

func (that *HintBudget) Reset() {
	that.used = 0
}
