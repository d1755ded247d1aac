package models

import "time"

// Generation attempt outcomes
const (
	GenerationSuccess     = "success"
	GenerationError       = "error"
	GenerationRateLimited = "rate_limited"
)

// GenerationLog is one row of the shared recipe generation ledger.
type GenerationLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UserID          string    `gorm:"size:64;not null;index:idx_generation_logs_user_requested,priority:1" json:"user_id"`
	Status          string    `gorm:"size:20;not null" json:"status"`
	Provider        string    `gorm:"size:32;not null;default:'openai'" json:"provider"`
	IngredientCount int       `gorm:"not null;default:0" json:"ingredient_count"`
	ErrorCode       *string   `gorm:"size:64" json:"error_code"`
	LatencyMs       *int64    `json:"latency_ms"`
	RequestedAt     time.Time `gorm:"not null;index:idx_generation_logs_user_requested,priority:2;index" json:"requested_at"`
}

// TableName matches the hosted ledger table.
func (GenerationLog) TableName() string {
	return "recipe_generation_logs"
}
