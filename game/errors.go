package game

import (
	"errors"

	"github.com/wfunc/trivianight/state"
)

var (
	ErrAlreadyExists           = errors.New("game already exists")
	ErrNotFound                = errors.New("not found")
	ErrPlayerNotFound          = errors.New("player not found")
	ErrInvalidState            = state.ErrInvalidState
	ErrAlreadyAnswered         = errors.New("question has already been answered")
	ErrGameInProgress          = errors.New("new contestants cannot join a game that has already started")
	ErrValidation              = errors.New("validation failed")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ValidationError describes why a request was rejected. It matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Code maps an error onto the stable name sent to clients.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrPlayerNotFound):
		return "PlayerNotFound"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrAlreadyAnswered):
		return "AlreadyAnswered"
	case errors.Is(err, ErrGameInProgress):
		return "GameInProgress"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrInsufficientPermissions):
		return "InsufficientPermissions"
	}
	return "Internal"
}
