package job

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned by an operation whose slot was taken over by a newer submission.
	ErrSuperseded = errors.New("operation superseded by a newer submission")
	// ErrPollLimit is returned when the configured maximum number of polls is reached.
	ErrPollLimit = errors.New("poll limit reached")
	// ErrPollTimeout is returned when the configured overall polling timeout expires.
	ErrPollTimeout = errors.New("polling timed out")
)

// PollingError is a job the service reported with status "error".
type PollingError struct {
	JobID   string
	Message string
}

func (e *PollingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unknown error while polling job %s", e.JobID)
	}
	return e.Message
}
