package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const writeWait = 10 * time.Second

var (
	ErrClientClosed = errors.New("client connection is closed")
	ErrSlowClient   = errors.New("client send queue is full")
)

// client is one websocket connection. It implements usecase.Peer.
type client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn, opts Options) *client {
	id := uuid.NewString()

	return &client{
		id:      id,
		conn:    conn,
		logger:  logger.With("connID", id),
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.Burst),
	}
}

func (that *client) ID() string {
	return that.id
}

// Send - queues an event for the writer goroutine, a full queue closes the connection.
func (that *client) Send(event string, payload any) error {
	frame, err := encode(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}

	select {
	case <-that.done:
		return ErrClientClosed
	default:
	}

	select {
	case that.send <- frame:
		return nil
	case <-that.done:
		return ErrClientClosed
	default:
		that.logger.Warn("send queue is full, closing connection", "event", event)
		that.close()
		return ErrSlowClient
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}

// readPump - reads frames until the connection fails and hands every allowed message to handle.
func (that *client) readPump(opts Options, handle func(msg []byte)) {
	log := that.logger.With("method", "readPump")

	pongWait := 2 * opts.PingInterval

	that.conn.SetReadLimit(opts.MaxMessageBytes)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		if !that.limiter.Allow() {
			log.Warn("rate limit exceeded, dropping message")
			continue
		}

		handle(data)
	}
}

// writePump - the only writer of the connection: queued frames in order plus periodic pings.
func (that *client) writePump(pingInterval time.Duration) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		that.close()
	}()

	for {
		select {
		case frame := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}
		case <-that.done:
			return
		}
	}
}
