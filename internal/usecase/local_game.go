package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
)

type LocalMode string

const (
	ModeRobot LocalMode = "robot" // human is X, the bot answers as O
	ModeLocal LocalMode = "local" // two humans share one board
)

var ErrUnknownMode = errors.New("unknown local mode")

// LocalTurn is one applied move of an offline game.
type LocalTurn struct {
	Side    entity.Mark
	Cell    int
	Evicted int
	Won     bool
}

type PlayResult struct {
	Human LocalTurn
	Bot   *LocalTurn
	State entity.GameState
}

// LocalGame drives an offline game on one device. It is not safe for concurrent use.
type LocalGame struct {
	bot        service.BotService
	mode       LocalMode
	difficulty service.Difficulty
	size       int

	state entity.GameState
	hints *service.HintBudget
}

func NewLocalGame(bot service.BotService, mode LocalMode, difficulty service.Difficulty, size, hintLimit int) (*LocalGame, error) {
	if mode != ModeRobot && mode != ModeLocal {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if size < entity.MinBoardSize {
		return nil, fmt.Errorf("%w: %d", entity.ErrInvalidBoardSize, size)
	}

	return &LocalGame{
		bot:        bot,
		mode:       mode,
		difficulty: difficulty,
		size:       size,
		state:      entity.NewGameState(size),
		hints:      service.NewHintBudget(hintLimit),
	}, nil
}

// Play - applies the human move and, in robot mode, the bot's answer.
// Nothing is applied unless both moves succeed.
func (that *LocalGame) Play(ctx context.Context, cell int) (PlayResult, error) {
	side := that.state.Turn
	if that.mode == ModeRobot && side != entity.PlayerX {
		return PlayResult{}, apperror.ErrNotYourTurn
	}

	next, human, err := apply(that.state, side, cell)
	if err != nil {
		return PlayResult{}, err
	}

	result := PlayResult{Human: human}

	if that.mode == ModeRobot && !human.Won {
		decision, err := that.bot.ChooseMove(ctx, next, entity.PlayerO, that.difficulty)
		if err != nil {
			return PlayResult{}, fmt.Errorf("bot failed to choose move: %w", err)
		}

		var reply LocalTurn
		next, reply, err = apply(next, entity.PlayerO, decision.Cell)
		if err != nil {
			return PlayResult{}, fmt.Errorf("bot failed to make turn: %w", err)
		}
		result.Bot = &reply
	}

	that.state = next
	result.State = next.Clone()

	return result, nil
}

func apply(state entity.GameState, side entity.Mark, cell int) (entity.GameState, LocalTurn, error) {
	next, outcome, err := tictactoe.ApplyMove(state, side, cell)
	if err != nil {
		return entity.GameState{}, LocalTurn{}, fmt.Errorf("failed to make turn: %w", err)
	}

	return next, LocalTurn{Side: side, Cell: cell, Evicted: outcome.Evicted, Won: outcome.Won}, nil
}

// Hint - suggests a move for the side to move and returns the hints left.
func (that *LocalGame) Hint(ctx context.Context) (service.Decision, int, error) {
	if that.mode == ModeRobot && that.state.Turn != entity.PlayerX {
		return service.Decision{}, that.hints.Remaining(), apperror.ErrNotYourTurn
	}

	if err := that.hints.Take(); err != nil {
		return service.Decision{}, 0, err
	}

	decision, err := that.bot.Hint(ctx, that.state)
	if err != nil {
		that.hints.Refund()
		return service.Decision{}, that.hints.Remaining(), fmt.Errorf("failed to compute hint: %w", err)
	}

	return decision, that.hints.Remaining(), nil
}

// Restart - clears the board and the hint budget, X starts.
func (that *LocalGame) Restart() {
	that.state = entity.NewGameState(that.size)
	that.hints.Reset()
}

func (that *LocalGame) State() entity.GameState {
	return that.state.Clone()
}
