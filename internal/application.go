package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/config"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/repository"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/infinite-tictactoe/transport/rest"
	"github.com/rocketscienceinc/infinite-tictactoe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var results repository.ResultRepository

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage.Connection)
		log.Info("Match results are recorded in Redis", "addr", redisAddrString)
	}

	bot := service.NewBotService(logger, conf.Bot.NormalDepth, conf.Bot.HardDepth)

	gameManager := usecase.NewGameManager(logger, bot, results, usecase.Settings{
		BoardSize:         conf.Game.BoardSize,
		CountdownTicks:    conf.Game.CountdownTicks,
		CountdownInterval: conf.Game.CountdownInterval,
		HintLimit:         conf.Game.HintLimit,
	})

	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := rest.NewRouter(logger, rest.Deps{
		Bot:          bot,
		Wins:         results,
		History:      results,
		Rooms:        gameManager,
		HintLimit:    conf.Game.HintLimit,
		MaxBoardSize: conf.Game.MaxBoardSize,
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager, websocket.Options{
			SendBuffer:        conf.WebSocket.SendBuffer,
			MessagesPerSecond: conf.WebSocket.MessagesPerSecond,
			Burst:             conf.WebSocket.Burst,
			PingInterval:      conf.WebSocket.PingInterval,
			MaxMessageBytes:   conf.WebSocket.MaxMessageBytes,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
