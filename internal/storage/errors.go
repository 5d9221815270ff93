package storage

import (
	"errors"
	"fmt"
)

var (
	ErrTopicNotFound  = errors.New("topic not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrDuplicateTopic = errors.New("duplicate topic")
	ErrEncoding       = errors.New("encoding error")
	ErrIO             = errors.New("io error")
	// ErrPoisonedLock is returned by every operation once a previous
	// operation panicked while holding the store lock.
	ErrPoisonedLock = errors.New("store lock poisoned")
)

// Error describes a failed store operation. Kind is one of the sentinel
// errors above; Err carries the underlying cause when there is one.
type Error struct {
	Op    string
	Kind  error
	Topic string
	Index int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Topic != "" {
		msg += fmt.Sprintf(" topic=%q", e.Topic)
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" index=%d", e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func topicNotFound(op string, index int) error {
	return &Error{Op: op, Kind: ErrTopicNotFound, Index: index}
}

func itemNotFound(op, topic string, index int) error {
	return &Error{Op: op, Kind: ErrItemNotFound, Topic: topic, Index: index}
}

func ioError(op, path string, err error) error {
	return &Error{Op: op, Kind: ErrIO, Index: -1, Err: fmt.Errorf("%s: %w", path, err)}
}

func encodingError(op, path string, err error) error {
	return &Error{Op: op, Kind: ErrEncoding, Index: -1, Err: fmt.Errorf("%s: %w", path, err)}
}
