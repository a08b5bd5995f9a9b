// Package docstore is a hierarchical document store: documents live at
// slash-separated paths alternating collection and document ids
// ("skills/greetings/lessons/l1"), hold a JSON-compatible field map, and are
// written with field-merge semantics.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("document not found")

// ErrInvalidPath is returned when a path does not address a document or
// collection of the expected kind.
var ErrInvalidPath = errors.New("invalid document path")

// ErrCorrupt is returned when a stored document cannot be decoded.
var ErrCorrupt = errors.New("corrupt document")

// Doc is a single stored document.
type Doc struct {
	ID     string         `json:"id"`
	Path   string         `json:"path"`
	Fields map[string]any `json:"fields"`
}

// Filter is an equality constraint on a top-level field.
type Filter struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// QueryOpts configures a collection query.
type QueryOpts struct {
	OrderBy string   `json:"orderBy,omitempty"` // field to sort ascending by; missing values sort last
	Where   []Filter `json:"where,omitempty"`
	IDs     []string `json:"ids,omitempty"` // restrict to these document ids
	Limit   int      `json:"limit,omitempty"`
}

// WriteKind distinguishes batched write operations.
type WriteKind int

const (
	WriteMerge WriteKind = iota
	WriteDelete
)

// Write is one operation in a Batch.
type Write struct {
	Kind   WriteKind
	Path   string
	Fields map[string]any
}

// Merge builds a merge write for a batch.
func Merge(path string, fields map[string]any) Write {
	return Write{Kind: WriteMerge, Path: path, Fields: fields}
}

// Remove builds a delete write for a batch.
func Remove(path string) Write {
	return Write{Kind: WriteDelete, Path: path}
}

// Store is the document store contract shared by all backends.
type Store interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (*Doc, error)

	// Query lists the documents directly inside a collection.
	Query(ctx context.Context, collection string, opts QueryOpts) ([]Doc, error)

	// SetMerge creates the document or merges fields into it. Nested maps are
	// merged recursively; fields not named are never touched.
	SetMerge(ctx context.Context, path string, fields map[string]any) error

	// Batch applies all writes atomically.
	Batch(ctx context.Context, writes []Write) error

	// Delete removes a single document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path string) error

	// DeleteCollection removes every document in the collection and in all of
	// its nested subcollections.
	DeleteCollection(ctx context.Context, collection string) error

	Close() error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitDoc splits a document path into its parent collection and id.
func SplitDoc(path string) (collection, id string, err error) {
	segs, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(segs)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is a collection path", ErrInvalidPath, path)
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

// CheckCollection validates a collection path.
func CheckCollection(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q is a document path", ErrInvalidPath, path)
	}
	return nil
}

func segments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

var fieldNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkField guards field names that backends splice into query expressions.
func checkField(name string) error {
	if !fieldNameRE.MatchString(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}

func checkQuery(collection string, opts QueryOpts) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}
	if opts.OrderBy != "" {
		if err := checkField(opts.OrderBy); err != nil {
			return err
		}
	}
	for _, f := range opts.Where {
		if err := checkField(f.Field); err != nil {
			return err
		}
	}
	return nil
}
