package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/usecase"
)

const (
	requestTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

type coordinator interface {
	CreateRoom(ctx context.Context, peer usecase.Peer) (string, error)
	JoinRoom(ctx context.Context, peer usecase.Peer, code string) error
	RandomJoin(ctx context.Context, peer usecase.Peer) (string, bool, error)
	MakeMove(ctx context.Context, peer usecase.Peer, code string, cell int) error
	SendMessage(ctx context.Context, peer usecase.Peer, code string, message any) error
	RestartGame(ctx context.Context, peer usecase.Peer, code string) error
	RequestHint(ctx context.Context, peer usecase.Peer, code string) error
	LeaveRoom(ctx context.Context, peer usecase.Peer, code string) error
	Disconnect(ctx context.Context, peer usecase.Peer)
}

type Options struct {
	SendBuffer        int
	MessagesPerSecond float64
	Burst             int
	PingInterval      time.Duration
	MaxMessageBytes   int64
}

func (that Options) withDefaults() Options {
	if that.SendBuffer <= 0 {
		that.SendBuffer = 64
	}
	if that.MessagesPerSecond <= 0 {
		that.MessagesPerSecond = 10
	}
	if that.Burst <= 0 {
		that.Burst = 20
	}
	if that.PingInterval <= 0 {
		that.PingInterval = 30 * time.Second
	}
	if that.MaxMessageBytes <= 0 {
		that.MaxMessageBytes = 4096
	}
	return that
}

type handlerFunc func(ctx context.Context, c *client, msg *Message) error

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	opts        Options
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, coordinator coordinator, opts Options) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		opts:        opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	server.handlers = map[string]handlerFunc{
		entity.ActionCreateRoom:  server.handleCreateRoom,
		entity.ActionJoinRoom:    server.handleJoinRoom,
		entity.ActionRandomJoin:  server.handleRandomJoin,
		entity.ActionMakeMove:    server.handleMakeMove,
		entity.ActionSendMessage: server.handleSendMessage,
		entity.ActionRestartGame: server.handleRestartGame,
		entity.ActionRequestHint: server.handleRequestHint,
		entity.ActionLeaveRoom:   server.handleLeaveRoom,
	}

	return server
}

// Handler - returns the http handler serving websocket upgrades on /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})
	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves it until either side closes.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(that.logger, conn, that.opts)
	log.Info("WebSocket connection established", "connID", c.ID())

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(that.opts.PingInterval)
	go func() {
		select {
		case <-connCtx.Done():
			c.close()
		case <-c.done:
		}
	}()

	c.readPump(that.opts, func(data []byte) {
		that.handleMessage(connCtx, c, data)
	})

	c.close()

	disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), requestTimeout)
	defer disconnectCancel()

	that.coordinator.Disconnect(disconnectCtx, c)

	log.Info("WebSocket connection closed", "connID", c.ID())
}
