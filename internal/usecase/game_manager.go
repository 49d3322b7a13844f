package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/repository"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
)

const (
	MsgRoomUnavailable = "Room full or does not exist."
	MsgNotYourTurn     = "Not your turn!"
	MsgUnknownError    = "Something went wrong."
	MsgNoHintsLeft     = "No hints left for this game."
)

// Peer is one connected client as seen by the coordinator. Send must not block.
type Peer interface {
	ID() string
	Send(event string, payload any) error
}

type resultRecorder interface {
	Save(ctx context.Context, result entity.MatchResult) error
}

type Settings struct {
	BoardSize         int
	CountdownTicks    int
	CountdownInterval time.Duration
	HintLimit         int
}

// GameManager owns every online room. Each room runs in its own goroutine,
// the manager only routes requests to it through the registry.
type GameManager struct {
	logger *slog.Logger

	registry *repository.RoomRegistry[*room]
	bot      service.BotService
	recorder resultRecorder
	settings Settings
}

// NewGameManager - creates the coordinator, recorder may be nil.
func NewGameManager(logger *slog.Logger, bot service.BotService, recorder resultRecorder, settings Settings) *GameManager {
	if settings.BoardSize < entity.MinBoardSize {
		settings.BoardSize = entity.MinBoardSize
	}

	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		registry: repository.NewRoomRegistry[*room](repository.NewCodeGenerator(repository.DefaultCodeLength)),
		bot:      bot,
		recorder: recorder,
		settings: settings,
	}
}

// CreateRoom - opens a private room with peer as X.
func (that *GameManager) CreateRoom(_ context.Context, peer Peer) (string, error) {
	return that.createRoom(peer, false)
}

func (that *GameManager) createRoom(peer Peer, waiting bool) (string, error) {
	log := that.logger.With("method", "createRoom", "connID", peer.ID())

	code, _, err := that.registry.Create(peer.ID(), waiting, func(code string) *room {
		r := newRoom(code, peer, roomDeps{
			logger:   that.logger,
			bot:      that.bot,
			recorder: that.recorder,
			settings: that.settings,
			release:  func() { that.registry.Remove(code) },
		})
		go r.run()
		return r
	})
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	log.Info("room created", "roomCode", code, "waiting", waiting)

	return code, nil
}

// JoinRoom - seats peer as O in the room with the given code.
func (that *GameManager) JoinRoom(ctx context.Context, peer Peer, code string) error {
	log := that.logger.With("method", "JoinRoom", "connID", peer.ID(), "roomCode", code)

	r, err := that.registry.Bind(peer.ID(), code)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err = r.join(ctx, peer); err != nil {
		that.registry.Unbind(peer.ID())
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.registry.Dequeue(code)

	log.Info("player joined room")

	return nil
}

// RandomJoin - pairs peer into the oldest waiting room or opens a new waiting room.
// It returns the room code and whether a new room was created.
func (that *GameManager) RandomJoin(ctx context.Context, peer Peer) (string, bool, error) {
	log := that.logger.With("method", "RandomJoin", "connID", peer.ID())

	for {
		code, r, ok, err := that.registry.ClaimWaiting(peer.ID())
		if err != nil {
			return "", false, fmt.Errorf("failed to find a waiting room: %w", err)
		}

		if !ok {
			code, err = that.createRoom(peer, true)
			if err != nil {
				return "", false, err
			}
			return code, true, nil
		}

		err = r.join(ctx, peer)
		if err == nil {
			log.Info("player paired", "roomCode", code)
			return code, false, nil
		}

		that.registry.Unbind(peer.ID())

		if !errors.Is(err, apperror.ErrRoomFull) && !errors.Is(err, apperror.ErrRoomNotFound) {
			return "", false, fmt.Errorf("failed to join waiting room: %w", err)
		}

		log.Debug("waiting room is gone, retrying", "roomCode", code)
	}
}

// MakeMove - submits peer's move in its room.
func (that *GameManager) MakeMove(ctx context.Context, peer Peer, code string, cell int) error {
	r, err := that.roomOf(peer, code)
	if err != nil {
		return err
	}

	if err = r.move(ctx, peer, cell); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

// SendMessage - forwards an opaque chat message to the other occupant.
func (that *GameManager) SendMessage(ctx context.Context, peer Peer, code string, message any) error {
	r, err := that.roomOf(peer, code)
	if err != nil {
		return err
	}

	if err = r.relay(ctx, peer, message); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// RestartGame - resets the board of peer's room, X starts.
func (that *GameManager) RestartGame(ctx context.Context, peer Peer, code string) error {
	r, err := that.roomOf(peer, code)
	if err != nil {
		return err
	}

	if err = r.restart(ctx, peer); err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	return nil
}

// RequestHint - asks for a suggested move for peer, the answer arrives as a hint or notice event.
func (that *GameManager) RequestHint(ctx context.Context, peer Peer, code string) error {
	r, err := that.roomOf(peer, code)
	if err != nil {
		return err
	}

	if err = r.hint(ctx, peer); err != nil {
		return fmt.Errorf("failed to request hint: %w", err)
	}

	return nil
}

// LeaveRoom - tears down peer's room and kicks the other occupant.
func (that *GameManager) LeaveRoom(ctx context.Context, peer Peer, code string) error {
	r, err := that.roomOf(peer, code)
	if err != nil {
		return err
	}

	that.logger.Info("player left room", "connID", peer.ID(), "roomCode", r.code)

	return r.teardown(ctx, peer, entity.EventKickAll)
}

// Disconnect - tears down the room of a lost connection, if any.
func (that *GameManager) Disconnect(ctx context.Context, peer Peer) {
	log := that.logger.With("method", "Disconnect", "connID", peer.ID())

	code, ok := that.registry.RoomOf(peer.ID())
	if !ok {
		return
	}

	r, ok := that.registry.Get(code)
	if !ok {
		that.registry.Unbind(peer.ID())
		return
	}

	if err := r.teardown(ctx, peer, entity.EventOpponentLeft); err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
		log.Error("failed to tear down room", "roomCode", code, "error", err)
		return
	}

	log.Info("room closed after disconnect", "roomCode", code)
}

// Stats - returns the number of open rooms and of rooms waiting for a random opponent.
func (that *GameManager) Stats() (int, int) {
	return that.registry.Len(), that.registry.WaitingLen()
}

// roomOf - resolves the room peer sits in, code must match it when given.
func (that *GameManager) roomOf(peer Peer, code string) (*room, error) {
	bound, ok := that.registry.RoomOf(peer.ID())
	if !ok || (code != "" && code != bound) {
		return nil, apperror.ErrNotInRoom
	}

	r, ok := that.registry.Get(bound)
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return r, nil
}

var knownErrors = []error{
	apperror.ErrGameFinished,
	apperror.ErrGameIsNotStarted,
	apperror.ErrCellOccupied,
	apperror.ErrInvalidCell,
	apperror.ErrNotInRoom,
	apperror.ErrAlreadyInRoom,
	apperror.ErrHintLimitReached,
	apperror.ErrNoAvailableMoves,
}

// ErrorMessage - converts a coordinator error into the text sent to the client.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound), errors.Is(err, apperror.ErrRoomFull):
		return MsgRoomUnavailable
	case errors.Is(err, apperror.ErrNotYourTurn):
		return MsgNotYourTurn
	}

	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return MsgUnknownError
}
