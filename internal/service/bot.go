package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
)

type Difficulty string

const (
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// MoveKind tells why a move was chosen.
type MoveKind string

const (
	KindWin       MoveKind = "win"
	KindBlock     MoveKind = "block"
	KindStrategic MoveKind = "strategic"
)

const (
	// WinScore is the terminal score before depth adjustment, larger than any heuristic value.
	WinScore = 1_000_000

	// BlockScore is reported for a forced block, it is never compared against search scores.
	BlockScore = WinScore / 2

	ctxCheckInterval = 1024
)

// Weights scale the static evaluation terms.
type Weights struct {
	Two    int // own two in a line with the third cell empty
	One    int // own one in a line with the other two empty
	Center int
	Corner int
	Threat int // distinct empty cells that complete an own line
}

var (
	normalWeights = Weights{Two: 10, One: 4, Center: 3, Corner: 2}
	hardWeights   = Weights{Two: 20, One: 8, Center: 6, Corner: 4, Threat: 15}
)

// Decision is a move chosen for a side.
type Decision struct {
	Cell  int      `json:"cell"`
	Kind  MoveKind `json:"kind"`
	Score int      `json:"score"`
	Nodes int      `json:"-"`
}

type BotService interface {
	ChooseMove(ctx context.Context, state entity.GameState, side entity.Mark, difficulty Difficulty) (Decision, error)
	Hint(ctx context.Context, state entity.GameState) (Decision, error)
}

type botService struct {
	logger *slog.Logger

	normalDepth int
	hardDepth   int
}

func NewBotService(logger *slog.Logger, normalDepth, hardDepth int) BotService {
	return &botService{
		logger:      logger.With("component", "bot"),
		normalDepth: normalDepth,
		hardDepth:   hardDepth,
	}
}

// ChooseMove - picks a move for side: an immediate win, else a block of the opponent's immediate win,
// else the best move of a depth-limited minimax search.
func (that *botService) ChooseMove(ctx context.Context, state entity.GameState, side entity.Mark, difficulty Difficulty) (Decision, error) {
	log := that.logger.With("method", "ChooseMove", "side", side, "difficulty", difficulty)

	if state.IsFinished() {
		return Decision{}, apperror.ErrGameFinished
	}

	if !side.IsPlayer() {
		return Decision{}, fmt.Errorf("%w: side %q", entity.ErrUnknownMark, side)
	}

	moves := state.EmptyCells()
	if len(moves) == 0 {
		return Decision{}, apperror.ErrNoAvailableMoves
	}

	position := state.Clone()
	position.Turn = side

	if cell, ok := findWinningCell(position, side, moves); ok {
		return Decision{Cell: cell, Kind: KindWin, Score: WinScore}, nil
	}

	threat := position.Clone()
	threat.Turn = side.Opponent()
	if cell, ok := findWinningCell(threat, side.Opponent(), moves); ok {
		return Decision{Cell: cell, Kind: KindBlock, Score: BlockScore}, nil
	}

	depth, weights := that.profile(difficulty)
	s := newSearcher(ctx, side, depth, weights)

	cell, score, err := s.bestMove(position, moves)
	if err != nil {
		log.Warn("search aborted", "nodes", s.nodes, "error", err)
		return Decision{}, fmt.Errorf("failed to search: %w", err)
	}

	log.Debug("search finished", "cell", cell, "score", score, "nodes", s.nodes)

	return Decision{Cell: cell, Kind: KindStrategic, Score: score, Nodes: s.nodes}, nil
}

// Hint - suggests a move for the side to move using the normal search profile.
func (that *botService) Hint(ctx context.Context, state entity.GameState) (Decision, error) {
	return that.ChooseMove(ctx, state, state.Turn, DifficultyNormal)
}

func (that *botService) profile(difficulty Difficulty) (int, Weights) {
	if difficulty == DifficultyHard {
		return that.hardDepth, hardWeights
	}
	return that.normalDepth, normalWeights
}

// findWinningCell - returns the first cell in moves that wins at once for side, state.Turn must be side.
func findWinningCell(state entity.GameState, side entity.Mark, moves []int) (int, bool) {
	for _, cell := range moves {
		_, outcome, err := tictactoe.ApplyMove(state, side, cell)
		if err == nil && outcome.Won {
			return cell, true
		}
	}
	return 0, false
}

type searcher struct {
	ctx      context.Context
	side     entity.Mark
	maxDepth int
	weights  Weights

	nodes int
	err   error
}

func newSearcher(ctx context.Context, side entity.Mark, maxDepth int, weights Weights) *searcher {
	return &searcher{ctx: ctx, side: side, maxDepth: maxDepth, weights: weights}
}

// bestMove - searches every root move in index order and keeps the first one with the strictly highest score.
func (that *searcher) bestMove(state entity.GameState, moves []int) (int, int, error) {
	if err := that.ctx.Err(); err != nil {
		return 0, 0, err
	}

	bestCell, bestScore := moves[0], math.MinInt

	for _, cell := range moves {
		next, outcome, err := tictactoe.ApplyMove(state, that.side, cell)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to simulate move %d: %w", cell, err)
		}

		var score int
		if outcome.Won {
			score = WinScore - 1
		} else {
			score = that.minimax(next, 1, false, bestScore, math.MaxInt)
		}

		if that.err != nil {
			return 0, 0, that.err
		}

		if score > bestScore {
			bestScore, bestCell = score, cell
		}
	}

	return bestCell, bestScore, nil
}

// minimax - alpha-beta search, depth counts plies already played below the root.
func (that *searcher) minimax(state entity.GameState, depth int, maximizing bool, alpha, beta int) int {
	that.nodes++
	if that.nodes%ctxCheckInterval == 0 {
		if err := that.ctx.Err(); err != nil {
			that.err = err
		}
	}
	if that.err != nil {
		return 0
	}

	if depth >= that.maxDepth {
		return Evaluate(state.Board, that.side, that.weights)
	}

	moves := state.EmptyCells()
	if len(moves) == 0 {
		return Evaluate(state.Board, that.side, that.weights)
	}

	mover := that.side
	if !maximizing {
		mover = that.side.Opponent()
	}

	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}

	for _, cell := range moves {
		next, outcome, err := tictactoe.ApplyMove(state, mover, cell)
		if err != nil {
			that.err = err
			return 0
		}

		var score int
		switch {
		case outcome.Won && maximizing:
			score = WinScore - (depth + 1)
		case outcome.Won:
			score = depth + 1 - WinScore
		default:
			score = that.minimax(next, depth+1, !maximizing, alpha, beta)
		}

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}

		if beta <= alpha {
			break
		}
	}

	return best
}

// Evaluate - static score of a board from side's point of view.
// Line progress outweighs center and corner occupancy.
func Evaluate(board entity.Board, side entity.Mark, weights Weights) int {
	size := board.Size()
	opponent := side.Opponent()
	score := 0

	for _, cell := range centerCells(size) {
		score += weights.Center * ownership(board[cell], side, opponent)
	}

	for _, cell := range cornerCells(size) {
		score += weights.Corner * ownership(board[cell], side, opponent)
	}

	var ownThreats, oppThreats map[int]struct{}
	if weights.Threat != 0 {
		ownThreats, oppThreats = map[int]struct{}{}, map[int]struct{}{}
	}

	for _, line := range tictactoe.WinLines(size) {
		own, opp, empty, gap := 0, 0, 0, -1
		for _, cell := range line {
			switch board[cell] {
			case side:
				own++
			case opponent:
				opp++
			default:
				empty++
				gap = cell
			}
		}

		switch {
		case own == 2 && empty == 1:
			score += weights.Two
			if ownThreats != nil {
				ownThreats[gap] = struct{}{}
			}
		case opp == 2 && empty == 1:
			score -= weights.Two
			if oppThreats != nil {
				oppThreats[gap] = struct{}{}
			}
		case own == 1 && empty == 2:
			score += weights.One
		case opp == 1 && empty == 2:
			score -= weights.One
		}
	}

	score += weights.Threat * (len(ownThreats) - len(oppThreats))

	return score
}

func ownership(cell, side, opponent entity.Mark) int {
	switch cell {
	case side:
		return 1
	case opponent:
		return -1
	default:
		return 0
	}
}

// centerCells - the middle cell of an odd board, the middle four of an even one.
func centerCells(size int) []int {
	mid := size / 2
	if size%2 == 1 {
		return []int{mid*size + mid}
	}
	return []int{(mid-1)*size + mid - 1, (mid-1)*size + mid, mid*size + mid - 1, mid*size + mid}
}

func cornerCells(size int) []int {
	last := size - 1
	return []int{0, last, last * size, last*size + last}
}
