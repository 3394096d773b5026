package session

import (
	"errors"

	"github.com/ZanzyTHEbar/helio-assistant/helio/chatlog"
)

var (
	// ErrEmptyInput is set on outcomes for blank queries.
	ErrEmptyInput = errors.New("empty input")
	// ErrOutOfDomain is set on outcomes for queries the classifier rejected.
	ErrOutOfDomain = errors.New("out of domain")
)

// Status is the terminal state of one Handle call.
type Status int

const (
	Answered Status = iota
	Rejected
	Failed
)

func (s Status) String() string {
	switch s {
	case Answered:
		return "answered"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one query. Entry is set only when
// Status is Answered; Reason and Err only when it is not.
type Outcome struct {
	Status Status
	Entry  chatlog.Entry
	Reason string
	Err    error
}

func answered(e chatlog.Entry) Outcome {
	return Outcome{Status: Answered, Entry: e}
}

func rejected(err error) Outcome {
	return Outcome{Status: Rejected, Reason: err.Error(), Err: err}
}

func failed(err error) Outcome {
	return Outcome{Status: Failed, Reason: err.Error(), Err: err}
}
