package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrNoAvailableMoves = errors.New("no available moves")

	ErrRoomNotFound  = errors.New("room does not exist")
	ErrRoomFull      = errors.New("room is full")
	ErrNotInRoom     = errors.New("player is not in this room")
	ErrAlreadyInRoom = errors.New("player is already in a room")

	ErrHintLimitReached = errors.New("no hints left for this game")
)
