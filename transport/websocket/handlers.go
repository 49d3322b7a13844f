package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/usecase"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrMissingArgument = errors.New("missing argument")
)

// handleMessage - decodes one frame and routes it to its handler.
// Malformed and unknown frames are logged and dropped, rejected operations answer with errorMsg.
func (that *Server) handleMessage(ctx context.Context, c *client, data []byte) {
	log := c.logger.With("method", "handleMessage")

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn("failed to decode frame", "error", err)
		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("dropping frame", "action", msg.Action, "error", ErrUnknownAction)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	err := handler(reqCtx, c, &msg)
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrMalformedFrame), errors.Is(err, ErrMissingArgument):
		log.Warn("dropping frame", "action", msg.Action, "error", err)
		return
	}

	log.Info("operation rejected", "action", msg.Action, "error", err)

	if sendErr := c.Send(entity.EventErrorMsg, usecase.ErrorMessage(err)); sendErr != nil {
		log.Debug("failed to send error", "error", sendErr)
	}
}

func decodePayload(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedFrame)
	}

	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	return nil
}

func decodeRoom(msg *Message) (string, error) {
	var req RoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return "", err
	}

	return req.Room, nil
}

func (that *Server) handleCreateRoom(ctx context.Context, c *client, _ *Message) error {
	_, err := that.coordinator.CreateRoom(ctx, c)
	return err
}

func (that *Server) handleJoinRoom(ctx context.Context, c *client, msg *Message) error {
	var req JoinRoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	return that.coordinator.JoinRoom(ctx, c, req.Code)
}

func (that *Server) handleRandomJoin(ctx context.Context, c *client, _ *Message) error {
	_, _, err := that.coordinator.RandomJoin(ctx, c)
	return err
}

func (that *Server) handleMakeMove(ctx context.Context, c *client, msg *Message) error {
	var req MoveRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	if req.Index == nil {
		return fmt.Errorf("%w: index", ErrMissingArgument)
	}

	return that.coordinator.MakeMove(ctx, c, req.Room, *req.Index)
}

func (that *Server) handleSendMessage(ctx context.Context, c *client, msg *Message) error {
	var req ChatRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	if len(req.Message) == 0 {
		return fmt.Errorf("%w: message", ErrMissingArgument)
	}

	return that.coordinator.SendMessage(ctx, c, req.Room, req.Message)
}

func (that *Server) handleRestartGame(ctx context.Context, c *client, msg *Message) error {
	code, err := decodeRoom(msg)
	if err != nil {
		return err
	}

	return that.coordinator.RestartGame(ctx, c, code)
}

func (that *Server) handleRequestHint(ctx context.Context, c *client, msg *Message) error {
	code, err := decodeRoom(msg)
	if err != nil {
		return err
	}

	return that.coordinator.RequestHint(ctx, c, code)
}

func (that *Server) handleLeaveRoom(ctx context.Context, c *client, msg *Message) error {
	code, err := decodeRoom(msg)
	if err != nil {
		return err
	}

	return that.coordinator.LeaveRoom(ctx, c, code)
}
