package repl

import "errors"

var (
	// ErrOutOfBounds is returned by [History.Entry] for an index outside
	// the recorded history.
	ErrOutOfBounds = errors.New("history index out of range")

	// ErrEditDeclined is returned when the user abandons a chunk that does
	// not parse instead of editing it again.
	ErrEditDeclined = errors.New("edit declined")
)
