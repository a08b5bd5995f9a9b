package docstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (m *MemoryStore) Get(_ context.Context, path string) (*Doc, error) {
	_, id, err := SplitDoc(path)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Doc{ID: id, Path: path, Fields: cloneFields(fields)}, nil
}

func (m *MemoryStore) Query(_ context.Context, collection string, opts QueryOpts) ([]Doc, error) {
	if err := checkQuery(collection, opts); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var docs []Doc
	for path, fields := range m.docs {
		parent, id, _ := SplitDoc(path)
		if parent != collection {
			continue
		}
		docs = append(docs, Doc{ID: id, Path: path, Fields: cloneFields(fields)})
	}
	m.mu.RUnlock()

	return applyQuery(docs, opts), nil
}

func (m *MemoryStore) SetMerge(ctx context.Context, path string, fields map[string]any) error {
	return m.Batch(ctx, []Write{Merge(path, fields)})
}

func (m *MemoryStore) Batch(_ context.Context, writes []Write) error {
	for _, w := range writes {
		if _, _, err := SplitDoc(w.Path); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range writes {
		switch w.Kind {
		case WriteDelete:
			delete(m.docs, w.Path)
		default:
			existing, ok := m.docs[w.Path]
			if !ok {
				existing = make(map[string]any)
				m.docs[w.Path] = existing
			}
			mergeFields(existing, w.Fields)
		}
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	return m.Batch(ctx, []Write{Remove(path)})
}

func (m *MemoryStore) DeleteCollection(_ context.Context, collection string) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := collection + "/"
	for path := range m.docs {
		if strings.HasPrefix(path, prefix) {
			delete(m.docs, path)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Len reports the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
