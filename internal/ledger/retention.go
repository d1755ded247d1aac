package ledger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	defaultDeleteBatchSize   = 5000
	maxDeleteBatchesPerRun   = 2000
)

// RetentionCleaner periodically deletes ledger rows older than the retention.
// Rows inside the rate limit window are never touched.
type RetentionCleaner struct {
	db        *gorm.DB
	log       *logrus.Entry
	retention time.Duration
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewRetentionCleaner returns nil when there is no database or retentionDays <= 0.
func NewRetentionCleaner(db *gorm.DB, retentionDays int, log *logrus.Entry) *RetentionCleaner {
	if db == nil || retentionDays <= 0 {
		return nil
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour
	if retention < Window {
		retention = Window
	}
	return &RetentionCleaner{
		db:        db,
		log:       log,
		retention: retention,
		interval:  defaultRetentionInterval,
		batchSize: defaultDeleteBatchSize,
		now:       time.Now,
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	go c.run(ctx)
	c.log.WithField("interval", c.interval.String()).Info("Ledger retention cleaner started")
}

func (c *RetentionCleaner) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		c.CleanupOnce(ctx)
		timer.Reset(c.interval)
	}
}

// CleanupOnce deletes expired rows in batches and returns how many went.
func (c *RetentionCleaner) CleanupOnce(ctx context.Context) int64 {
	cutoff := c.now().UTC().Add(-c.retention)

	var deleted int64
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			break
		}
		n, err := c.deleteBatch(ctx, cutoff)
		if err != nil {
			c.log.WithError(err).Warn("Ledger retention delete batch failed")
			break
		}
		if n <= 0 {
			break
		}
		deleted += n
	}

	if deleted > 0 {
		c.log.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Ledger retention cleanup finished")
	}
	return deleted
}

func (c *RetentionCleaner) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	// Bounded subquery keeps each transaction short.
	res := c.db.WithContext(ctx).Exec(`
		DELETE FROM recipe_generation_logs
		WHERE id IN (
			SELECT id FROM recipe_generation_logs
			WHERE requested_at < ?
			ORDER BY requested_at ASC
			LIMIT ?
		)
	`, cutoff, c.batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
