// Package ledger keeps the append-only log of recipe generation attempts and
// derives the per-user rate limit from it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/pageza/macrochef/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// Window is the sliding rate limit window.
	Window = 15 * time.Minute
	// MaxRequests is the number of attempts allowed inside Window.
	MaxRequests = 12

	ProviderOpenAI = "openai"
)

var (
	ErrUsageCountFailed = errors.New("usage_count_failed")
	ErrUsageLogFailed   = errors.New("usage_log_failed")
)

// Entry is one generation attempt.
type Entry struct {
	UserID          string
	Status          string
	Provider        string
	IngredientCount int
	ErrorCode       *string
	LatencyMs       *int64
	RequestedAt     time.Time
}

// Store is the row-level store holding the ledger table.
type Store interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
	Insert(ctx context.Context, entry Entry) error
}

// Ledger applies the rate limit policy on top of a Store.
type Ledger struct {
	store  Store
	log    *logrus.Entry
	window time.Duration
	limit  int64
}

// New creates a ledger with the standard 12 per 15 minutes policy.
func New(store Store, log *logrus.Entry) *Ledger {
	return &Ledger{store: store, log: log, window: Window, limit: MaxRequests}
}

// Check counts the user's attempts in the window ending at now and reports
// whether the limit is reached. Rows of every status count.
func (l *Ledger) Check(ctx context.Context, userID string, now time.Time) (int64, bool, error) {
	count, err := l.store.CountSince(ctx, userID, now.Add(-l.window))
	if err != nil {
		return 0, false, err
	}
	return count, count >= l.limit, nil
}

// Record appends an entry. Failures are logged and never returned: the audit
// write must not change the response.
func (l *Ledger) Record(ctx context.Context, entry Entry) {
	if entry.Provider == "" {
		entry.Provider = ProviderOpenAI
	}
	if entry.RequestedAt.IsZero() {
		entry.RequestedAt = time.Now().UTC()
	}
	if err := l.store.Insert(ctx, entry); err != nil {
		fields := logrus.Fields{"user_id": entry.UserID, "status": entry.Status}
		if entry.ErrorCode != nil {
			fields["error_code"] = *entry.ErrorCode
		}
		l.log.WithError(err).WithFields(fields).Warn("Failed to record generation attempt")
	}
}

// Code returns a pointer for Entry.ErrorCode.
func Code(code string) *string {
	return &code
}

// Latency converts an elapsed duration to the millisecond column value.
func Latency(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}

func (e Entry) row() models.GenerationLog {
	return models.GenerationLog{
		UserID:          e.UserID,
		Status:          e.Status,
		Provider:        e.Provider,
		IngredientCount: e.IngredientCount,
		ErrorCode:       e.ErrorCode,
		LatencyMs:       e.LatencyMs,
		RequestedAt:     e.RequestedAt.UTC(),
	}
}
