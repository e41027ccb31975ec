package retrieval

import (
	"errors"

	"github.com/mycrub/daysum/pkg/models"
)

// State is a step of a request sequence.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCacheCheck
	StateFetching
	StatePolling
	StateCompleted
	StateFailed
	StateTimedOut
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateCacheCheck: "cache_check",
	StateFetching:   "fetching",
	StatePolling:    "polling",
	StateCompleted:  "completed",
	StateFailed:     "failed",
	StateTimedOut:   "timed_out",
	StateCancelled:  "cancelled",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Sequence failures. Every non-completed Outcome carries exactly one of them.
var (
	ErrInvalidDate      = errors.New("date not available")
	ErrUnresolvedTopic  = errors.New("cannot identify topic")
	ErrServiceError     = errors.New("service reported an error")
	ErrUnknownStatus    = errors.New("unknown status")
	ErrTimeout          = errors.New("generation timed out")
	ErrTransportFailure = errors.New("communication failure")
	ErrCancelled        = errors.New("cancelled")
)

// Outcome is the terminal result of one request sequence.
type Outcome struct {
	// ID identifies the sequence in logs.
	ID    string
	State State
	// Err is nil for StateCompleted and one of the package errors otherwise.
	Err error
	// Summary is the completed payload, when State is StateCompleted.
	Summary models.Summary
	// Rendered is the last content handed to the renderer, empty when
	// cancelled.
	Rendered  string
	HTML      bool
	FromCache bool
	// Fetches counts calls made to the service.
	Fetches int
}
