package learn

import (
	"errors"
	"fmt"

	"github.com/dex/lingbook/internal/docstore"
)

// Kind classifies a repository failure.
type Kind int

const (
	KindRemote Kind = iota
	KindUnauthenticated
	KindNotFound
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not found"
	case KindDecode:
		return "decode"
	default:
		return "remote"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrRemote          = errors.New("remote store failure")
	ErrUnauthenticated = errors.New("not signed in")
	ErrNotFound        = errors.New("not found")
	ErrDecode          = errors.New("decode failure")
)

// Error is the failure every Repository operation returns.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRemote) and friends match on the kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRemote:
		return e.Kind == KindRemote
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// wrap classifies err for op by the store sentinel it carries. Anything
// unrecognised is a remote failure.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	kind := KindRemote
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, docstore.ErrCorrupt):
		kind = KindDecode
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
