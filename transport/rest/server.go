package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Deps struct {
	Bot          botAdvisor
	Wins         winsReader
	History      historyReader
	Rooms        roomCounter
	HintLimit    int
	MaxBoardSize int
}

// NewRouter - builds the HTTP API, routes backed by a nil dependency are not registered.
func NewRouter(logger *slog.Logger, deps Deps) *gin.Engine {
	if deps.MaxBoardSize <= 0 {
		deps.MaxBoardSize = DefaultMaxBoardSize
	}

	h := &handlers{
		logger:    logger.With("component", "rest"),
		bot:       deps.Bot,
		wins:      deps.Wins,
		history:   deps.History,
		rooms:     deps.Rooms,
		hintLimit: deps.HintLimit,
		maxSize:   deps.MaxBoardSize,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Origin"},
	}))

	r.GET("/ping", pingHandler)

	api := r.Group("/api")
	if deps.Bot != nil {
		api.POST("/bot/move", h.BotMove)
		api.POST("/bot/hint", h.BotHint)
	}
	if deps.Wins != nil {
		api.GET("/stats", h.Stats)
	}
	if deps.History != nil {
		api.GET("/rooms/:code/results", h.RoomResults)
	}
	if deps.Rooms != nil {
		api.GET("/rooms", h.Rooms)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Start - serves handler on port until ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
