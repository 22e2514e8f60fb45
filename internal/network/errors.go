package network

import "fmt"

// ErrorKind classifies a rejected request.
type ErrorKind string

const (
	KindAlreadyExists    ErrorKind = "already_exists"
	KindNotFound         ErrorKind = "not_found"
	KindUnknownMember    ErrorKind = "unknown_member"
	KindSelfLoop         ErrorKind = "self_loop"
	KindAlreadyConnected ErrorKind = "already_connected"
	KindCapacityExceeded ErrorKind = "capacity_exceeded"
	KindInvalidMember    ErrorKind = "invalid_member"
)

// Error is returned for structurally invalid requests. Queries that are
// well-formed but match nothing return empty results instead.
type Error struct {
	Kind  ErrorKind
	ID    string
	Other string
}

// Sentinels for errors.Is. They carry no ids.
var (
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUnknownMember    = &Error{Kind: KindUnknownMember}
	ErrSelfLoop         = &Error{Kind: KindSelfLoop}
	ErrAlreadyConnected = &Error{Kind: KindAlreadyConnected}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
	ErrInvalidMember    = &Error{Kind: KindInvalidMember}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindAlreadyExists:
		return fmt.Sprintf("%s is already registered", e.ID)
	case KindNotFound:
		return fmt.Sprintf("%s is not registered", e.ID)
	case KindUnknownMember:
		return fmt.Sprintf("both members must be registered to connect: %s not found", e.ID)
	case KindSelfLoop:
		return fmt.Sprintf("%s cannot connect with themselves", e.ID)
	case KindAlreadyConnected:
		return fmt.Sprintf("%s and %s are already connected", e.ID, e.Other)
	case KindCapacityExceeded:
		if e.ID == "" {
			return "member limit reached"
		}
		return fmt.Sprintf("connection limit reached for %s", e.ID)
	case KindInvalidMember:
		return fmt.Sprintf("invalid member id %q", e.ID)
	default:
		return string(e.Kind)
	}
}

// Is matches on kind so that a concrete error compares equal to its sentinel.
// UnknownMember is also a NotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindNotFound && e.Kind == KindUnknownMember
}

func newError(kind ErrorKind, id, other string) *Error {
	return &Error{Kind: kind, ID: id, Other: other}
}
