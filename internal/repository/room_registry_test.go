package repository

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
)

type mockCodeGenerator struct {
	mock.Mock
}

func (m *mockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type testRoom struct {
	code string
}

func newTestRoom(code string) *testRoom {
	return &testRoom{code: code}
}

func TestCodeGenerator_Generate(t *testing.T) {
	valid := regexp.MustCompile(`^[0-9A-Za-z_-]{6}$`)
	codes := NewCodeGenerator(DefaultCodeLength)

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		code, err := codes.Generate()
		require.NoError(t, err)
		require.Regexp(t, valid, code)
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 990)
}

func TestRoomRegistry_Create(t *testing.T) {
	t.Run("Creates and seats the creator", func(t *testing.T) {
		// Given: an empty registry
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))

		// When: a connection creates a room
		code, room, err := registry.Create("conn-1", false, newTestRoom)
		require.NoError(t, err)

		// Then: the room is stored under its code and the creator is bound to it
		assert.Equal(t, code, room.code)
		got, ok := registry.Get(code)
		require.True(t, ok)
		assert.Same(t, room, got)

		roomCode, ok := registry.RoomOf("conn-1")
		require.True(t, ok)
		assert.Equal(t, code, roomCode)
		assert.Zero(t, registry.WaitingLen())
	})

	t.Run("Rejects a connection that already sits in a room", func(t *testing.T) {
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
		_, _, err := registry.Create("conn-1", false, newTestRoom)
		require.NoError(t, err)

		_, _, err = registry.Create("conn-1", true, newTestRoom)

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("Retries on a code collision", func(t *testing.T) {
		// Given: a generator that repeats its first code once
		codes := &mockCodeGenerator{}
		codes.On("Generate").Return("aaaaaa", nil).Twice()
		codes.On("Generate").Return("bbbbbb", nil).Once()

		registry := NewRoomRegistry[*testRoom](codes)

		// When: two rooms are created
		first, _, err := registry.Create("conn-1", false, newTestRoom)
		require.NoError(t, err)
		second, _, err := registry.Create("conn-2", false, newTestRoom)
		require.NoError(t, err)

		// Then: the second room gets the next free code
		assert.Equal(t, "aaaaaa", first)
		assert.Equal(t, "bbbbbb", second)
		codes.AssertExpectations(t)
	})

	t.Run("Gives up when no free code is found", func(t *testing.T) {
		codes := &mockCodeGenerator{}
		codes.On("Generate").Return("aaaaaa", nil)

		registry := NewRoomRegistry[*testRoom](codes)
		_, _, err := registry.Create("conn-1", false, newTestRoom)
		require.NoError(t, err)

		_, _, err = registry.Create("conn-2", false, newTestRoom)

		require.Error(t, err)
		_, seated := registry.RoomOf("conn-2")
		assert.False(t, seated)
	})

	t.Run("Concurrent creates never share a code", func(t *testing.T) {
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))

		var wg sync.WaitGroup
		for i := range 200 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := registry.Create(fmt.Sprintf("conn-%d", i), i%2 == 0, newTestRoom)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 200, registry.Len())
		assert.Equal(t, 100, registry.WaitingLen())
	})
}

func TestRoomRegistry_ClaimWaiting(t *testing.T) {
	t.Run("Pairs in FIFO order", func(t *testing.T) {
		// Given: two waiting rooms
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
		first, _, err := registry.Create("a", true, newTestRoom)
		require.NoError(t, err)
		second, _, err := registry.Create("b", true, newTestRoom)
		require.NoError(t, err)

		// When: two connections claim a waiting room
		gotFirst, _, ok, err := registry.ClaimWaiting("c")
		require.NoError(t, err)
		require.True(t, ok)
		gotSecond, _, ok, err := registry.ClaimWaiting("d")
		require.NoError(t, err)
		require.True(t, ok)

		// Then: the oldest room is paired first and the queue is drained
		assert.Equal(t, first, gotFirst)
		assert.Equal(t, second, gotSecond)
		assert.Zero(t, registry.WaitingLen())

		code, _ := registry.RoomOf("c")
		assert.Equal(t, first, code)
	})

	t.Run("Skips removed rooms", func(t *testing.T) {
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
		gone, _, err := registry.Create("a", true, newTestRoom)
		require.NoError(t, err)
		kept, _, err := registry.Create("b", true, newTestRoom)
		require.NoError(t, err)
		registry.Remove(gone)

		code, _, ok, err := registry.ClaimWaiting("c")

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, kept, code)
	})

	t.Run("Reports an empty queue", func(t *testing.T) {
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
		_, _, err := registry.Create("a", false, newTestRoom)
		require.NoError(t, err)

		_, _, ok, err := registry.ClaimWaiting("b")

		require.NoError(t, err)
		assert.False(t, ok)
		_, seated := registry.RoomOf("b")
		assert.False(t, seated)
	})

	t.Run("Concurrent claims never share a room", func(t *testing.T) {
		registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
		for i := range 50 {
			_, _, err := registry.Create(fmt.Sprintf("host-%d", i), true, newTestRoom)
			require.NoError(t, err)
		}

		var (
			mu      sync.Mutex
			claimed = map[string]int{}
			wg      sync.WaitGroup
		)
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				code, _, ok, err := registry.ClaimWaiting(fmt.Sprintf("guest-%d", i))
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					claimed[code]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, claimed, 50)
		for code, n := range claimed {
			assert.Equal(t, 1, n, "room %s", code)
		}
	})
}

func TestRoomRegistry_Bind(t *testing.T) {
	registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
	code, room, err := registry.Create("a", true, newTestRoom)
	require.NoError(t, err)

	t.Run("Binds to an existing room", func(t *testing.T) {
		got, err := registry.Bind("b", code)

		require.NoError(t, err)
		assert.Same(t, room, got)
	})

	t.Run("Rejects an unknown code", func(t *testing.T) {
		_, err := registry.Bind("c", "nope")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Rejects a seated connection", func(t *testing.T) {
		_, err := registry.Bind("a", code)

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})

	t.Run("Unbind frees the connection", func(t *testing.T) {
		registry.Unbind("b")

		_, seated := registry.RoomOf("b")
		assert.False(t, seated)
	})

	t.Run("Dequeue removes the room from the waiting queue", func(t *testing.T) {
		registry.Dequeue(code)

		assert.Zero(t, registry.WaitingLen())
		_, ok := registry.Get(code)
		assert.True(t, ok)
	})
}

func TestRoomRegistry_Remove(t *testing.T) {
	// Given: a waiting room with two seated connections
	registry := NewRoomRegistry[*testRoom](NewCodeGenerator(DefaultCodeLength))
	code, room, err := registry.Create("a", true, newTestRoom)
	require.NoError(t, err)
	_, err = registry.Bind("b", code)
	require.NoError(t, err)

	// When: the room is removed
	removed, ok := registry.Remove(code)

	// Then: the room, its queue entry and both bindings are gone
	require.True(t, ok)
	assert.Same(t, room, removed)
	assert.Zero(t, registry.Len())
	assert.Zero(t, registry.WaitingLen())
	_, seatedA := registry.RoomOf("a")
	_, seatedB := registry.RoomOf("b")
	assert.False(t, seatedA)
	assert.False(t, seatedB)

	// And: a second remove is a no-op
	_, ok = registry.Remove(code)
	assert.False(t, ok)
}
