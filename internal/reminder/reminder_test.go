package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func TestDueAfterDelay(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(docstore.NewMemory(), 0)
	assert.Equal(t, DefaultDelay, tr.Delay())

	due, err := tr.Due(ctx, "u1", t0)
	require.NoError(t, err)
	assert.False(t, due, "no activity recorded")

	require.NoError(t, tr.Touch(ctx, "u1", t0))
	due, err = tr.Due(ctx, "u1", t0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.False(t, due)

	due, err = tr.Due(ctx, "u1", t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, due)

	require.NoError(t, tr.MarkSent(ctx, "u1", t0.Add(24*time.Hour)))
	due, err = tr.Due(ctx, "u1", t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.False(t, due, "one reminder per inactivity period")

	require.NoError(t, tr.Touch(ctx, "u1", t0.Add(80*time.Hour)))
	due, err = tr.Due(ctx, "u1", t0.Add(104*time.Hour))
	require.NoError(t, err)
	assert.True(t, due)
}

func TestTouchRequiresUser(t *testing.T) {
	assert.Error(t, NewTracker(docstore.NewMemory(), time.Hour).Touch(context.Background(), "", t0))
}

type captured struct{ got []Reminder }

func (c *captured) Notify(_ context.Context, r Reminder) error {
	c.got = append(c.got, r)
	return nil
}

func TestSchedulerTick(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(docstore.NewMemory(), time.Hour)
	require.NoError(t, tr.Touch(ctx, "u1", t0))

	now := t0.Add(30 * time.Minute)
	n := &captured{}
	s := &Scheduler{Tracker: tr, Notifier: n, UserID: "u1", Now: func() time.Time { return now }}

	sent, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, sent)

	now = t0.Add(2 * time.Hour)
	sent, err = s.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, n.got, 1)
	assert.Equal(t, "2 hours have passed", n.got[0].Title)
	assert.True(t, n.got[0].LastActive.Equal(t0))

	sent, err = s.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, n.got, 1)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Reminder) error { return errors.New("gateway down") }

func TestSchedulerDoesNotMarkOnFailure(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(docstore.NewMemory(), time.Hour)
	require.NoError(t, tr.Touch(ctx, "u1", t0))
	now := func() time.Time { return t0.Add(3 * time.Hour) }

	s := &Scheduler{Tracker: tr, Notifier: failingNotifier{}, UserID: "u1", Now: now}
	_, err := s.Tick(ctx)
	require.Error(t, err)

	due, err := tr.Due(ctx, "u1", now())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := NewTracker(docstore.NewMemory(), time.Hour)
	s := &Scheduler{Tracker: tr, Notifier: &captured{}, UserID: "u1", Interval: time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal{W: &buf}.Notify(context.Background(), NewReminder("u1", t0, t0.Add(24*time.Hour))))
	assert.Contains(t, buf.String(), "24 hours have passed")
}

type fakeChannel struct {
	exchange, key string
	msg           amqp091.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestAMQPNotify(t *testing.T) {
	ch := &fakeChannel{}
	a := &AMQP{channel: ch, exchange: DefaultExchange}

	r := NewReminder("u1", t0, t0.Add(25*time.Hour))
	require.NoError(t, a.Notify(context.Background(), r))

	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, RoutingKey, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "u1", ch.msg.Headers["user_id"])

	var got Reminder
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, r.Title, got.Title)
	assert.NoError(t, a.Close())
}
