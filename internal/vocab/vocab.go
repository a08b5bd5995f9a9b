// Package vocab serves the vocabulary flashcards and the learner's
// per-word progress.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"golang.org/x/sync/errgroup"
)

const (
	wordsCollection    = "vocabulary"
	progressCollection = "userProgress"

	// idChunkSize bounds the id list of a single membership query.
	idChunkSize = 10
)

// Word is one vocabulary entry.
type Word struct {
	ID            string `yaml:"id"`
	Word          string `yaml:"word"`
	Pronunciation string `yaml:"pronunciation,omitempty"`
	Definition    string `yaml:"definition,omitempty"`
	Type          string `yaml:"type,omitempty"`
	Example       string `yaml:"example,omitempty"`
	Topic         string `yaml:"topic,omitempty"`
	ImageURL      string `yaml:"imageUrl,omitempty"`
}

// WordPath returns the document path of a word.
func WordPath(id string) string {
	return docstore.Join(wordsCollection, id)
}

// ProgressPath returns the vocabulary progress document of a user.
func ProgressPath(uid string) string {
	return docstore.Join(progressCollection, uid)
}

// Fields encodes the word document.
func (w Word) Fields() map[string]any {
	return map[string]any{
		"word":          w.Word,
		"pronunciation": w.Pronunciation,
		"definition":    w.Definition,
		"type":          w.Type,
		"example":       w.Example,
		"topic":         w.Topic,
		"imageUrl":      w.ImageURL,
	}
}

func decodeWord(d docstore.Doc) Word {
	f := d.Fields
	return Word{
		ID:            d.ID,
		Word:          docstore.String(f, "word", ""),
		Pronunciation: docstore.String(f, "pronunciation", ""),
		Definition:    docstore.String(f, "definition", ""),
		Type:          docstore.String(f, "type", ""),
		Example:       docstore.String(f, "example", ""),
		Topic:         docstore.String(f, "topic", ""),
		ImageURL:      docstore.String(f, "imageUrl", ""),
	}
}

// Progress is the learner's state for one word.
type Progress struct {
	IsLearned   bool
	ReviewCount int
}

// Repository reads words and reads/writes word progress.
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

// NewRepository creates a Repository over store.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Words returns the vocabulary, restricted to topic when it is non-empty.
func (r *Repository) Words(ctx context.Context, topic string) ([]Word, error) {
	opts := docstore.QueryOpts{}
	if topic != "" {
		opts.Where = []docstore.Filter{{Field: "topic", Value: topic}}
	}
	docs, err := r.store.Query(ctx, wordsCollection, opts)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	words := make([]Word, 0, len(docs))
	for _, d := range docs {
		words = append(words, decodeWord(d))
	}
	return words, nil
}

// Topics returns the distinct word topics, sorted.
func (r *Repository) Topics(ctx context.Context) ([]string, error) {
	words, err := r.Words(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var topics []string
	for _, w := range words {
		if w.Topic != "" && !seen[w.Topic] {
			seen[w.Topic] = true
			topics = append(topics, w.Topic)
		}
	}
	sort.Strings(topics)
	return topics, nil
}

// Progress returns the user's per-word progress keyed by word id.
func (r *Repository) Progress(ctx context.Context, uid string) (map[string]Progress, error) {
	out := make(map[string]Progress)
	d, err := r.store.Get(ctx, ProgressPath(uid))
	if errors.Is(err, docstore.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get word progress: %w", err)
	}
	for id, v := range docstore.Map(d.Fields, "vocabularyProgress") {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[id] = Progress{
			IsLearned:   docstore.Bool(m, "isLearned", false),
			ReviewCount: docstore.Int(m, "reviewCount", 0),
		}
	}
	return out, nil
}

// LearnedWords returns the words the user marked as learned. Ids are fetched
// in chunks, concurrently.
func (r *Repository) LearnedWords(ctx context.Context, uid string) ([]Word, error) {
	progress, err := r.Progress(ctx, uid)
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, p := range progress {
		if p.IsLearned {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return []Word{}, nil
	}

	chunks := chunk(ids, idChunkSize)
	results := make([][]Word, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			docs, err := r.store.Query(gctx, wordsCollection, docstore.QueryOpts{IDs: c})
			if err != nil {
				return fmt.Errorf("fetch learned words: %w", err)
			}
			for _, d := range docs {
				results[i] = append(results[i], decodeWord(d))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	words := make([]Word, 0, len(ids))
	for _, ws := range results {
		words = append(words, ws...)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].Word < words[j].Word })
	return words, nil
}

// SetLearned records whether the user knows a word and counts the review.
func (r *Repository) SetLearned(ctx context.Context, uid, wordID string, learned bool) error {
	progress, err := r.Progress(ctx, uid)
	if err != nil {
		return err
	}
	entry := map[string]any{
		"isLearned":   learned,
		"reviewCount": progress[wordID].ReviewCount + 1,
		"reviewedAt":  r.now().UTC().Format(time.RFC3339),
	}
	err = r.store.SetMerge(ctx, ProgressPath(uid), map[string]any{
		"vocabularyProgress": map[string]any{wordID: entry},
	})
	if err != nil {
		return fmt.Errorf("save word progress: %w", err)
	}
	return nil
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for size < len(ids) {
		ids, out = ids[size:], append(out, ids[:size])
	}
	return append(out, ids)
}
