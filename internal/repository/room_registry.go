package repository

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
)

const maxCodeAttempts = 16

// RoomRegistry maps room codes to rooms, keeps the FIFO of rooms waiting for a random opponent
// and remembers which room every connection sits in. The lock is only held for the map operations
// themselves, rooms are never mutated under it.
type RoomRegistry[R any] struct {
	mu sync.Mutex

	rooms   map[string]R
	waiting []string
	members map[string]string // connection id -> room code

	codes CodeGenerator
}

func NewRoomRegistry[R any](codes CodeGenerator) *RoomRegistry[R] {
	return &RoomRegistry[R]{
		rooms:   make(map[string]R),
		members: make(map[string]string),
		codes:   codes,
	}
}

// Create - allocates a unique code, stores the room built by newRoom and seats connID in it.
// newRoom runs under the registry lock and must not call back into the registry.
func (that *RoomRegistry[R]) Create(connID string, waiting bool, newRoom func(code string) R) (string, R, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var zero R

	if _, ok := that.members[connID]; ok {
		return "", zero, apperror.ErrAlreadyInRoom
	}

	code, err := that.uniqueCode()
	if err != nil {
		return "", zero, err
	}

	room := newRoom(code)
	that.rooms[code] = room
	that.members[connID] = code

	if waiting {
		that.waiting = append(that.waiting, code)
	}

	return code, room, nil
}

func (that *RoomRegistry[R]) uniqueCode() (string, error) {
	for range maxCodeAttempts {
		code, err := that.codes.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, taken := that.rooms[code]; !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to find a free room code after %d attempts", maxCodeAttempts)
}

func (that *RoomRegistry[R]) Get(code string) (R, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[code]
	return room, ok
}

// Bind - seats connID in the existing room code.
func (that *RoomRegistry[R]) Bind(connID, code string) (R, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var zero R

	if _, ok := that.members[connID]; ok {
		return zero, apperror.ErrAlreadyInRoom
	}

	room, ok := that.rooms[code]
	if !ok {
		return zero, apperror.ErrRoomNotFound
	}

	that.members[connID] = code

	return room, nil
}

// ClaimWaiting - pops the oldest waiting room and seats connID in it.
func (that *RoomRegistry[R]) ClaimWaiting(connID string) (string, R, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var zero R

	if _, ok := that.members[connID]; ok {
		return "", zero, false, apperror.ErrAlreadyInRoom
	}

	for len(that.waiting) > 0 {
		code := that.waiting[0]
		that.waiting = that.waiting[1:]

		room, ok := that.rooms[code]
		if !ok {
			continue
		}

		that.members[connID] = code
		return code, room, true, nil
	}

	return "", zero, false, nil
}

// Dequeue - takes code out of the waiting FIFO.
func (that *RoomRegistry[R]) Dequeue(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.waiting = slices.DeleteFunc(that.waiting, func(waiting string) bool { return waiting == code })
}

func (that *RoomRegistry[R]) Unbind(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.members, connID)
}

func (that *RoomRegistry[R]) RoomOf(connID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, ok := that.members[connID]
	return code, ok
}

// Remove - drops the room, its waiting entry and every connection seated in it.
func (that *RoomRegistry[R]) Remove(code string) (R, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[code]
	if !ok {
		return room, false
	}

	delete(that.rooms, code)
	that.waiting = slices.DeleteFunc(that.waiting, func(waiting string) bool { return waiting == code })

	for connID, roomCode := range that.members {
		if roomCode == code {
			delete(that.members, connID)
		}
	}

	return room, true
}

func (that *RoomRegistry[R]) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.rooms)
}

func (that *RoomRegistry[R]) WaitingLen() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.waiting)
}
