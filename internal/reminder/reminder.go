// Package reminder nudges learners who have not practised for a while.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/identity"
)

// DefaultDelay is the inactivity period after which a reminder is due.
const DefaultDelay = 24 * time.Hour

// Reminder is one notification to a learner.
type Reminder struct {
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	LastActive time.Time `json:"lastActiveAt"`
	SentAt     time.Time `json:"sentAt"`
}

// NewReminder builds the inactivity reminder for uid.
func NewReminder(uid string, lastActive, now time.Time) Reminder {
	hours := int(now.Sub(lastActive).Hours())
	return Reminder{
		UserID:     uid,
		Title:      fmt.Sprintf("%d hours have passed", hours),
		Body:       "Time for a quick lesson. Your streak is waiting.",
		LastActive: lastActive,
		SentAt:     now,
	}
}

// Tracker stores activity timestamps on the user profile document.
type Tracker struct {
	store docstore.Store
	delay time.Duration
}

// NewTracker creates a Tracker. A non-positive delay uses DefaultDelay.
func NewTracker(store docstore.Store, delay time.Duration) *Tracker {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Tracker{store: store, delay: delay}
}

// Delay returns the inactivity period.
func (t *Tracker) Delay() time.Duration { return t.delay }

// Touch records activity at now.
func (t *Tracker) Touch(ctx context.Context, uid string, now time.Time) error {
	if uid == "" {
		return identity.ErrNotSignedIn
	}
	return t.store.SetMerge(ctx, identity.ProfilePath(uid), map[string]any{"lastActiveAt": now.UnixMilli()})
}

// Status is the activity state of one user.
type Status struct {
	LastActive time.Time
	RemindedAt time.Time
	Due        bool
}

// Check reports whether uid has been inactive for the delay and has not been
// reminded since the last activity. A user with no recorded activity is
// never due.
func (t *Tracker) Check(ctx context.Context, uid string, now time.Time) (Status, error) {
	d, err := t.store.Get(ctx, identity.ProfilePath(uid))
	if errors.Is(err, docstore.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("read activity: %w", err)
	}
	s := Status{
		LastActive: docstore.Time(d.Fields, "lastActiveAt"),
		RemindedAt: docstore.Time(d.Fields, "remindedAt"),
	}
	s.Due = !s.LastActive.IsZero() &&
		now.Sub(s.LastActive) >= t.delay &&
		!s.RemindedAt.After(s.LastActive)
	return s, nil
}

// Due is Check reduced to its verdict.
func (t *Tracker) Due(ctx context.Context, uid string, now time.Time) (bool, error) {
	s, err := t.Check(ctx, uid, now)
	return s.Due, err
}

// MarkSent records that a reminder went out at now.
func (t *Tracker) MarkSent(ctx context.Context, uid string, now time.Time) error {
	return t.store.SetMerge(ctx, identity.ProfilePath(uid), map[string]any{"remindedAt": now.UnixMilli()})
}

// Notifier delivers reminders.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// Terminal prints reminders.
type Terminal struct {
	W io.Writer
}

func (t Terminal) Notify(_ context.Context, r Reminder) error {
	_, err := fmt.Fprintf(t.W, "⏰ %s\n   %s\n", r.Title, r.Body)
	return err
}

// Scheduler checks one user periodically and sends due reminders.
type Scheduler struct {
	Tracker  *Tracker
	Notifier Notifier
	UserID   string
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Tick sends a reminder when one is due and reports whether it did.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	now := s.now()
	st, err := s.Tracker.Check(ctx, s.UserID, now)
	if err != nil || !st.Due {
		return false, err
	}
	if err := s.Notifier.Notify(ctx, NewReminder(s.UserID, st.LastActive, now)); err != nil {
		return false, fmt.Errorf("notify: %w", err)
	}
	if err := s.Tracker.MarkSent(ctx, s.UserID, now); err != nil {
		return true, fmt.Errorf("mark reminder sent: %w", err)
	}
	s.logger().Info("sent inactivity reminder", "user", s.UserID, "last_active", st.LastActive)
	return true, nil
}

// Run ticks every Interval until ctx is cancelled. Tick failures are logged.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Tick(ctx); err != nil {
			s.logger().Warn("reminder check failed", "op", "reminder.tick", "user", s.UserID, "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
