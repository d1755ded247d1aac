package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/macrochef/backend/internal/models"
	"gorm.io/gorm"
)

// GormStore keeps the ledger in a SQL table through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore instance
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.GenerationLog{}).
		Where("user_id = ? AND requested_at >= ?", userID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUsageCountFailed, err)
	}
	return count, nil
}

func (s *GormStore) Insert(ctx context.Context, entry Entry) error {
	row := entry.row()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUsageLogFailed, err)
	}
	return nil
}
