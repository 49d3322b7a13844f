package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/service"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/usecase"
)

const readTimeout = 2 * time.Second

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, service.NewBotService(logger, 2, 3), nil, usecase.Settings{
		BoardSize: 3,
		HintLimit: 1,
	})

	srv := httptest.NewServer(New(logger, manager, Options{}).Handler(ctx))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *testConn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testConn{t: t, conn: conn}
}

func (that *testConn) send(action string, payload any) {
	that.t.Helper()

	frame, err := encode(action, payload)
	require.NoError(that.t, err)
	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, frame))
}

func (that *testConn) sendRaw(frame string) {
	that.t.Helper()
	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (that *testConn) next() Message {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(readTimeout)))

	_, data, err := that.conn.ReadMessage()
	require.NoError(that.t, err)

	var msg Message
	require.NoError(that.t, json.Unmarshal(data, &msg))
	return msg
}

// expect - reads the next frame, checks its action and decodes the payload into v when given.
func (that *testConn) expect(action string, v any) {
	that.t.Helper()

	msg := that.next()
	require.Equal(that.t, action, msg.Action, "payload: %s", msg.Payload)

	if v != nil {
		require.NoError(that.t, json.Unmarshal(msg.Payload, v))
	}
}

// pair - creates a room from x, joins it from o and drains the start events.
func pair(t *testing.T, x, o *testConn) string {
	t.Helper()

	x.send(entity.ActionCreateRoom, nil)

	var created entity.RoomCreatedPayload
	x.expect(entity.EventRoomCreated, &created)
	require.NotEmpty(t, created.Code)

	o.send(entity.ActionJoinRoom, JoinRoomRequest{Code: created.Code})

	var joined entity.RoomJoinedPayload
	o.expect(entity.EventRoomJoined, &joined)
	assert.Equal(t, entity.PlayerO, joined.Symbol)

	for _, c := range []*testConn{x, o} {
		c.expect(entity.EventBothJoined, nil)

		var started entity.TurnPayload
		c.expect(entity.EventGameStarted, &started)
		assert.Equal(t, entity.PlayerX, started.CurrentTurn)
	}

	return created.Code
}

func TestServer_Game(t *testing.T) {
	url := newTestServer(t)

	t.Run("Create join and move", func(t *testing.T) {
		// Given: two connected players in one room
		x, o := dial(t, url), dial(t, url)
		code := pair(t, x, o)

		// When: X plays the top left corner
		x.send(entity.ActionMakeMove, MoveRequest{Room: code, Index: new(int)})

		// Then: O sees the move and both see the turn pass
		var move entity.OpponentMovePayload
		o.expect(entity.EventOpponentMove, &move)
		assert.Equal(t, entity.OpponentMovePayload{Index: 0, Evicted: -1}, move)

		for _, c := range []*testConn{x, o} {
			var turn entity.TurnPayload
			c.expect(entity.EventTurnUpdate, &turn)
			assert.Equal(t, entity.PlayerO, turn.CurrentTurn)
		}
	})

	t.Run("Move out of turn answers errorMsg", func(t *testing.T) {
		x, o := dial(t, url), dial(t, url)
		code := pair(t, x, o)

		cell := 4
		o.send(entity.ActionMakeMove, MoveRequest{Room: code, Index: &cell})

		var text string
		o.expect(entity.EventErrorMsg, &text)
		assert.Equal(t, usecase.MsgNotYourTurn, text)
	})

	t.Run("Unknown room answers errorMsg", func(t *testing.T) {
		c := dial(t, url)

		c.send(entity.ActionJoinRoom, JoinRoomRequest{Code: "nope"})

		var text string
		c.expect(entity.EventErrorMsg, &text)
		assert.Equal(t, usecase.MsgRoomUnavailable, text)
	})

	t.Run("Malformed frames are ignored", func(t *testing.T) {
		// Given: a connection that sends garbage first
		c := dial(t, url)
		c.sendRaw("not json")
		c.sendRaw(`{"action":"teleport"}`)
		c.sendRaw(`{"action":"makeMove","payload":{"room":"x"}}`)

		// When: a valid request follows
		c.send(entity.ActionCreateRoom, nil)

		// Then: the first frame received answers it
		c.expect(entity.EventRoomCreated, nil)
	})

	t.Run("Chat is relayed verbatim", func(t *testing.T) {
		x, o := dial(t, url), dial(t, url)
		code := pair(t, x, o)

		x.sendRaw(`{"action":"sendMessage","payload":{"room":"` + code + `","message":{"text":"gg"}}}`)

		var got map[string]string
		o.expect(entity.EventReceiveMessage, &got)
		assert.Equal(t, map[string]string{"text": "gg"}, got)
	})
}

func TestServer_Matchmaking(t *testing.T) {
	url := newTestServer(t)

	// Given: one player waiting in a random room
	x, o := dial(t, url), dial(t, url)
	x.send(entity.ActionRandomJoin, nil)

	var created entity.RoomCreatedPayload
	x.expect(entity.EventRoomCreated, &created)

	// When: a second player asks for a random match
	o.send(entity.ActionRandomJoin, nil)

	// Then: both land in the same room
	var joined entity.RoomJoinedPayload
	o.expect(entity.EventRoomJoined, &joined)
	assert.Equal(t, created.Code, joined.Code)
	x.expect(entity.EventBothJoined, nil)
}

func TestServer_Teardown(t *testing.T) {
	url := newTestServer(t)

	t.Run("Disconnect notifies the opponent", func(t *testing.T) {
		x, o := dial(t, url), dial(t, url)
		pair(t, x, o)

		require.NoError(t, x.conn.Close())

		o.expect(entity.EventOpponentLeft, nil)
	})

	t.Run("Leave kicks the opponent", func(t *testing.T) {
		x, o := dial(t, url), dial(t, url)
		code := pair(t, x, o)

		o.send(entity.ActionLeaveRoom, RoomRequest{Room: code})

		x.expect(entity.EventKickAll, nil)

		// And: the room is gone
		x.send(entity.ActionRestartGame, RoomRequest{Room: code})

		var text string
		x.expect(entity.EventErrorMsg, &text)
		assert.Equal(t, apperror.ErrNotInRoom.Error(), text)
	})
}

func TestServer_Handlers(t *testing.T) {
	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})

	for _, action := range []string{
		entity.ActionCreateRoom,
		entity.ActionJoinRoom,
		entity.ActionRandomJoin,
		entity.ActionMakeMove,
		entity.ActionSendMessage,
		entity.ActionRestartGame,
		entity.ActionRequestHint,
		entity.ActionLeaveRoom,
	} {
		assert.Contains(t, srv.handlers, action)
	}
	assert.Len(t, srv.handlers, 8)
}
