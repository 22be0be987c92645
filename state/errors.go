package state

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidState is matched by every *InvalidStateError.
var ErrInvalidState = errors.New("invalid game state")

// InvalidStateError is returned when an operation is attempted from a state
// that does not permit it.
type InvalidStateError struct {
	Required []Kind
	Actual   Kind
}

func (e *InvalidStateError) Error() string {
	names := make([]string, len(e.Required))
	for i, k := range e.Required {
		names[i] = string(k)
	}
	return fmt.Sprintf("game is in state %s, operation requires %s", e.Actual, strings.Join(names, " or "))
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
