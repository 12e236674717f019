package experiment

import (
	"errors"
	"fmt"
)

var ErrRunInProgress = errors.New("a run is already in progress")

// IOError reports a series that could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("save series to %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
