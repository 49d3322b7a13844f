package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/usecase"
)

const searchTimeout = 5 * time.Second

var ErrUnknownDifficulty = errors.New("unknown difficulty")

type botAdvisor interface {
	ChooseMove(ctx context.Context, state entity.GameState, side entity.Mark, difficulty service.Difficulty) (service.Decision, error)
	Hint(ctx context.Context, state entity.GameState) (service.Decision, error)
}

type winsReader interface {
	Wins(ctx context.Context) (map[entity.Mark]int64, error)
}

type historyReader interface {
	ListByRoom(ctx context.Context, roomCode string) ([]entity.MatchResult, error)
}

type roomCounter interface {
	Stats() (int, int)
}

type handlers struct {
	logger    *slog.Logger
	bot       botAdvisor
	wins      winsReader
	history   historyReader
	rooms     roomCounter
	hintLimit int
	maxSize   int
}

// BotMove - answers the move the bot would play for toMove.
func (that *handlers) BotMove(c *gin.Context) {
	log := that.logger.With("method", "BotMove")

	var req BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	state, err := req.State(that.maxSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	difficulty, err := parseDifficulty(req.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	decision, err := that.bot.ChooseMove(ctx, state, state.Turn, difficulty)
	if err != nil {
		log.Warn("failed to choose move", "error", err)
		c.JSON(statusOf(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MoveResponse{Cell: decision.Cell, Kind: decision.Kind, Score: decision.Score})
}

// BotHint - suggests a move for toMove while the client still has hints left.
func (that *handlers) BotHint(c *gin.Context) {
	log := that.logger.With("method", "BotHint")

	var req BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.HintsUsed >= that.hintLimit {
		c.JSON(http.StatusTooManyRequests, entity.NoticePayload{Message: usecase.MsgNoHintsLeft})
		return
	}

	state, err := req.State(that.maxSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	decision, err := that.bot.Hint(ctx, state)
	if err != nil {
		log.Warn("failed to find hint", "error", err)
		c.JSON(statusOf(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, HintResponse{
		Cell:      decision.Cell,
		Kind:      decision.Kind,
		Remaining: max(that.hintLimit-req.HintsUsed-1, 0),
	})
}

// Stats - returns the number of recorded wins per side.
func (that *handlers) Stats(c *gin.Context) {
	wins, err := that.wins.Wins(c.Request.Context())
	if err != nil {
		that.logger.Error("failed to read wins", "method", "Stats", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.MsgUnknownError})
		return
	}

	c.JSON(http.StatusOK, wins)
}

// RoomResults - returns the finished games of a room in the order they ended.
func (that *handlers) RoomResults(c *gin.Context) {
	code := c.Param("code")

	results, err := that.history.ListByRoom(c.Request.Context(), code)
	if err != nil {
		that.logger.Error("failed to list results", "method", "RoomResults", "roomCode", code, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.MsgUnknownError})
		return
	}

	c.JSON(http.StatusOK, results)
}

// Rooms - returns how many rooms are open and how many wait for a random opponent.
func (that *handlers) Rooms(c *gin.Context) {
	rooms, waiting := that.rooms.Stats()
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms, Waiting: waiting})
}

func parseDifficulty(d service.Difficulty) (service.Difficulty, error) {
	switch d {
	case "":
		return service.DifficultyNormal, nil
	case service.DifficultyNormal, service.DifficultyHard:
		return d, nil
	default:
		return "", ErrUnknownDifficulty
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrGameFinished), errors.Is(err, apperror.ErrNoAvailableMoves):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrUnknownMark):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
