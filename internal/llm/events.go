package llm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/google/uuid"
)

// EventsCollection holds one document per LLM request.
const EventsCollection = "llmEvents"

// Event records one LLM request and its outcome.
type Event struct {
	ID           string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
	CreatedAt    time.Time
}

// Cost returns the estimated USD cost, false for unknown models.
func (e Event) Cost() (float64, bool) {
	c := LookupCost(e.Model)
	if c == nil {
		return 0, false
	}
	return c.Cost(e.InputTokens, e.OutputTokens), true
}

func (e Event) fields() map[string]any {
	return map[string]any{
		"provider":     e.Provider,
		"model":        e.Model,
		"purpose":      e.Purpose,
		"inputTokens":  e.InputTokens,
		"outputTokens": e.OutputTokens,
		"latencyMs":    e.LatencyMs,
		"success":      e.Success,
		"errorMessage": e.ErrorMessage,
		"request":      e.RequestBody,
		"response":     e.ResponseBody,
		"createdAt":    e.CreatedAt.UnixMilli(),
	}
}

func decodeEvent(d docstore.Doc) Event {
	f := d.Fields
	return Event{
		ID:           d.ID,
		Provider:     docstore.String(f, "provider", ""),
		Model:        docstore.String(f, "model", ""),
		Purpose:      docstore.String(f, "purpose", ""),
		InputTokens:  docstore.Int(f, "inputTokens", 0),
		OutputTokens: docstore.Int(f, "outputTokens", 0),
		LatencyMs:    int64(docstore.Int(f, "latencyMs", 0)),
		Success:      docstore.Bool(f, "success", false),
		ErrorMessage: docstore.String(f, "errorMessage", ""),
		RequestBody:  docstore.String(f, "request", ""),
		ResponseBody: docstore.String(f, "response", ""),
		CreatedAt:    docstore.Time(f, "createdAt"),
	}
}

// EventLog stores request events in the document store.
type EventLog struct {
	store docstore.Store
	newID func() string
	now   func() time.Time
}

func NewEventLog(store docstore.Store) *EventLog {
	return &EventLog{store: store, newID: uuid.NewString, now: time.Now}
}

// Append stores e under a fresh id and returns it.
func (l *EventLog) Append(ctx context.Context, e Event) (string, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	id := l.newID()
	if err := l.store.SetMerge(ctx, docstore.Join(EventsCollection, id), e.fields()); err != nil {
		return "", fmt.Errorf("append llm event: %w", err)
	}
	return id, nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]Event, error) {
	docs, err := l.store.Query(ctx, EventsCollection, docstore.QueryOpts{OrderBy: "createdAt"})
	if err != nil {
		return nil, fmt.Errorf("list llm events: %w", err)
	}
	var out []Event
	for i := len(docs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, decodeEvent(docs[i]))
	}
	return out, nil
}

// Get returns one event.
func (l *EventLog) Get(ctx context.Context, id string) (Event, error) {
	d, err := l.store.Get(ctx, docstore.Join(EventsCollection, id))
	if err != nil {
		return Event{}, fmt.Errorf("get llm event %s: %w", id, err)
	}
	return decodeEvent(*d), nil
}

// UsageRow aggregates the events that share a key.
type UsageRow struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// UsageBy groups events by key, ordered by key.
func UsageBy(events []Event, key func(Event) string) []UsageRow {
	idx := map[string]int{}
	var out []UsageRow
	var latency []int64
	for _, e := range events {
		k := key(e)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, UsageRow{Key: k})
			latency = append(latency, 0)
		}
		out[i].Calls++
		out[i].InputTokens += e.InputTokens
		out[i].OutputTokens += e.OutputTokens
		latency[i] += e.LatencyMs
	}
	for i := range out {
		out[i].AvgLatencyMs = latency[i] / int64(out[i].Calls)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out
}
