package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
)

const (
	inboxSize     = 32
	recordTimeout = 5 * time.Second
)

type roomDeps struct {
	logger   *slog.Logger
	bot      service.BotService
	recorder resultRecorder
	settings Settings
	release  func()
}

type request struct {
	fn    func() error
	reply chan error
}

// room is a single-writer actor: every field below inbox is only touched by run.
type room struct {
	code   string
	logger *slog.Logger
	deps   roomDeps

	ctx    context.Context
	cancel context.CancelFunc

	inbox chan request
	done  chan struct{}

	seats    map[entity.Mark]Peer
	bindings map[string]entity.Binding
	phase    entity.Phase
	state    entity.GameState
	moves    int
	game     int // bumped on every fresh board, stale timers and hints compare against it
	hints    map[entity.Mark]*service.HintBudget
	timer    *time.Timer
	ticks    int
}

func newRoom(code string, creator Peer, deps roomDeps) *room {
	ctx, cancel := context.WithCancel(context.Background())

	return &room{
		code:   code,
		logger: deps.logger.With("component", "room", "roomCode", code),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan request, inboxSize),
		done:   make(chan struct{}),
		seats:  map[entity.Mark]Peer{entity.PlayerX: creator},
		bindings: map[string]entity.Binding{
			creator.ID(): {ConnectionID: creator.ID(), RoomCode: code, Symbol: entity.PlayerX},
		},
		phase: entity.PhaseAwaitingOpponent,
		state: entity.NewGameState(deps.settings.BoardSize),
		hints: map[entity.Mark]*service.HintBudget{
			entity.PlayerX: service.NewHintBudget(deps.settings.HintLimit),
			entity.PlayerO: service.NewHintBudget(deps.settings.HintLimit),
		},
	}
}

func (that *room) run() {
	defer close(that.done)

	that.send(that.seats[entity.PlayerX], entity.EventRoomCreated, entity.RoomCreatedPayload{Code: that.code})

	for req := range that.inbox {
		err := req.fn()
		if req.reply != nil {
			req.reply <- err
		}

		if that.phase == entity.PhaseAbandoned {
			return
		}
	}
}

// do - runs fn inside the room and waits for its result.
func (that *room) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)

	select {
	case that.inbox <- request{fn: fn, reply: reply}:
	case <-that.done:
		return apperror.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-that.done:
		select {
		case err := <-reply:
			return err
		default:
			return apperror.ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post - queues fn without waiting, dropped once the room is closed.
func (that *room) post(fn func() error) {
	select {
	case that.inbox <- request{fn: fn}:
	case <-that.done:
	}
}

func (that *room) join(ctx context.Context, peer Peer) error {
	return that.do(ctx, func() error {
		if that.phase != entity.PhaseAwaitingOpponent || that.seats[entity.PlayerO] != nil {
			return apperror.ErrRoomFull
		}

		that.seats[entity.PlayerO] = peer
		that.bindings[peer.ID()] = entity.Binding{ConnectionID: peer.ID(), RoomCode: that.code, Symbol: entity.PlayerO}
		that.send(peer, entity.EventRoomJoined, entity.RoomJoinedPayload{Code: that.code, Symbol: entity.PlayerO})
		that.broadcast(entity.EventBothJoined, nil)

		that.newGame()
		that.startCountdown()

		return nil
	})
}

func (that *room) move(ctx context.Context, peer Peer, cell int) error {
	return that.do(ctx, func() error {
		side, ok := that.symbolOf(peer)
		if !ok {
			return apperror.ErrNotInRoom
		}

		switch that.phase {
		case entity.PhaseActive:
		case entity.PhaseCompleted:
			return apperror.ErrGameFinished
		default:
			return apperror.ErrGameIsNotStarted
		}

		if that.state.Turn != side {
			return apperror.ErrNotYourTurn
		}

		next, outcome, err := tictactoe.ApplyMove(that.state, side, cell)
		if err != nil {
			return err
		}

		that.state = next
		that.moves++

		that.send(that.seats[side.Opponent()], entity.EventOpponentMove, entity.OpponentMovePayload{Index: cell, Evicted: outcome.Evicted})
		that.broadcast(entity.EventTurnUpdate, entity.TurnPayload{CurrentTurn: next.Turn})

		if outcome.Won {
			that.phase = entity.PhaseCompleted
			that.broadcast(entity.EventGameOver, entity.GameOverPayload{Winner: side})
			that.record(side)
		}

		return nil
	})
}

func (that *room) relay(ctx context.Context, peer Peer, message any) error {
	return that.do(ctx, func() error {
		side, ok := that.symbolOf(peer)
		if !ok {
			return apperror.ErrNotInRoom
		}

		if other := that.seats[side.Opponent()]; other != nil {
			that.send(other, entity.EventReceiveMessage, message)
		}

		return nil
	})
}

func (that *room) restart(ctx context.Context, peer Peer) error {
	return that.do(ctx, func() error {
		if _, ok := that.symbolOf(peer); !ok {
			return apperror.ErrNotInRoom
		}

		if !that.phase.HasOpponent() {
			return apperror.ErrGameIsNotStarted
		}

		that.newGame()
		that.phase = entity.PhaseActive
		that.broadcast(entity.EventRestartGame, entity.TurnPayload{CurrentTurn: that.state.Turn})

		return nil
	})
}

func (that *room) hint(ctx context.Context, peer Peer) error {
	return that.do(ctx, func() error {
		side, ok := that.symbolOf(peer)
		if !ok {
			return apperror.ErrNotInRoom
		}

		switch that.phase {
		case entity.PhaseActive:
		case entity.PhaseCompleted:
			return apperror.ErrGameFinished
		default:
			return apperror.ErrGameIsNotStarted
		}

		if that.state.Turn != side {
			return apperror.ErrNotYourTurn
		}

		budget := that.hints[side]
		if err := budget.Take(); err != nil {
			that.send(peer, entity.EventNotice, entity.NoticePayload{Message: MsgNoHintsLeft})
			return nil //nolint: nilerr // running out of hints is a notice
		}

		that.searchHint(peer, side, budget.Remaining())

		return nil
	})
}

// searchHint - runs the search on a copy of the position and delivers the result through the inbox.
func (that *room) searchHint(peer Peer, side entity.Mark, remaining int) {
	log := that.logger.With("method", "searchHint", "side", side)

	snapshot := that.state.Clone()
	game, moves := that.game, that.moves

	go func() {
		decision, err := that.deps.bot.Hint(that.ctx, snapshot)

		that.post(func() error {
			if game != that.game || moves != that.moves {
				log.Debug("dropping stale hint")
				return nil
			}

			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error("failed to compute hint", "error", err)
				}
				that.hints[side].Refund()
				return nil
			}

			that.send(peer, entity.EventHint, entity.HintPayload{
				Cell:      decision.Cell,
				Kind:      string(decision.Kind),
				Remaining: remaining,
			})
			return nil
		})
	}()
}

// teardown - closes the room and tells the other occupant with event.
func (that *room) teardown(ctx context.Context, peer Peer, event string) error {
	return that.do(ctx, func() error {
		that.stopCountdown()
		that.cancel()

		that.phase = entity.PhaseAbandoned
		that.deps.release()

		side, _ := that.symbolOf(peer)
		for mark, seated := range that.seats {
			if seated != nil && mark != side {
				that.send(seated, event, nil)
			}
		}

		that.logger.Info("room closed", "reason", event)

		return nil
	})
}

func (that *room) newGame() {
	that.stopCountdown()
	that.state = entity.NewGameState(that.deps.settings.BoardSize)
	that.moves = 0
	that.game++

	for _, budget := range that.hints {
		budget.Reset()
	}
}

func (that *room) startCountdown() {
	that.ticks = that.deps.settings.CountdownTicks
	if that.ticks <= 0 {
		that.activate()
		return
	}

	that.phase = entity.PhaseCountdown
	that.broadcast(entity.EventCountdown, entity.CountdownPayload{Remaining: that.ticks})
	that.scheduleTick()
}

func (that *room) scheduleTick() {
	game := that.game

	that.timer = time.AfterFunc(that.deps.settings.CountdownInterval, func() {
		that.post(func() error {
			if game != that.game || that.phase != entity.PhaseCountdown {
				return nil
			}

			that.ticks--
			if that.ticks <= 0 {
				that.activate()
				return nil
			}

			that.broadcast(entity.EventCountdown, entity.CountdownPayload{Remaining: that.ticks})
			that.scheduleTick()
			return nil
		})
	})
}

func (that *room) stopCountdown() {
	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
}

func (that *room) activate() {
	that.timer = nil
	that.phase = entity.PhaseActive
	that.broadcast(entity.EventGameStarted, entity.TurnPayload{CurrentTurn: that.state.Turn})
}

func (that *room) record(winner entity.Mark) {
	if that.deps.recorder == nil {
		return
	}

	result := entity.MatchResult{
		RoomCode:   that.code,
		Winner:     winner,
		Moves:      that.moves,
		BoardSize:  that.state.Size,
		FinishedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := that.deps.recorder.Save(ctx, result); err != nil {
			that.logger.Error("failed to record result", "error", err)
		}
	}()
}

func (that *room) symbolOf(peer Peer) (entity.Mark, bool) {
	binding, ok := that.bindings[peer.ID()]
	if !ok {
		return entity.EmptyCell, false
	}
	return binding.Symbol, true
}

func (that *room) broadcast(event string, payload any) {
	for _, mark := range []entity.Mark{entity.PlayerX, entity.PlayerO} {
		if seated := that.seats[mark]; seated != nil {
			that.send(seated, event, payload)
		}
	}
}

func (that *room) send(peer Peer, event string, payload any) {
	if peer == nil {
		return
	}

	if err := peer.Send(event, payload); err != nil {
		that.logger.Warn("failed to send event", "event", event, "connID", peer.ID(), "error", err)
	}
}
