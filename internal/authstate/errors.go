package authstate

import (
	"errors"
	"fmt"
)

// Kind is the closed classification for store errors. Callers switch on it
// instead of matching message text.
type Kind int

const (
	// KindAuthFailure means the identity provider rejected credentials or
	// registration. Never retried automatically.
	KindAuthFailure Kind = iota + 1
	// KindProfileWriteFailure means the profile store rejected an insert or
	// update, for example a duplicate username.
	KindProfileWriteFailure
	// KindNotAuthenticated means a mutation was invoked without a signed-in
	// user. No remote call is made in that case.
	KindNotAuthenticated
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth_failure"
	case KindProfileWriteFailure:
		return "profile_write_failure"
	case KindNotAuthenticated:
		return "not_authenticated"
	default:
		return "unknown"
	}
}

// Error wraps an underlying failure with its Kind. The underlying message is
// passed through unchanged for display.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotAuthenticated is returned by mutation operations invoked without a
// current user.
var ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated, Err: errors.New("no authenticated user")}

func authFailure(err error) error {
	return &Error{Kind: KindAuthFailure, Err: err}
}

func writeFailure(err error) error {
	return &Error{Kind: KindProfileWriteFailure, Err: err}
}

// KindOf extracts the Kind from err, or 0 when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
