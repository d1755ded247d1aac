package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONBStringArray source %T", value)
	}
	return json.Unmarshal(raw, a)
}

// Recipe is a generated recipe kept for a user. IsSaved flips on a right swipe.
type Recipe struct {
	ID              uuid.UUID        `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	UserID          string           `gorm:"size:64;not null;index" json:"user_id"`
	Name            string           `gorm:"size:255;not null" json:"name"`
	Description     string           `gorm:"type:text" json:"description"`
	PreparationTime int              `gorm:"not null" json:"preparation_time"`
	Macros          datatypes.JSON   `gorm:"not null" json:"macros"`
	Ingredients     datatypes.JSON   `gorm:"not null" json:"ingredients"`
	Instructions    JSONBStringArray `gorm:"type:text;not null" json:"instructions"`
	IsSaved         bool             `gorm:"not null;default:false;index" json:"is_saved"`
}

// BeforeCreate assigns an ID when the caller did not.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Swipe directions
const (
	SwipeLeft  = "left"
	SwipeRight = "right"
)

// SwipeHistory records every swipe a user made on a recipe.
type SwipeHistory struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);not null;index" json:"recipe_id"`
	Direction string    `gorm:"size:8;not null" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the singular table name used by the mobile app.
func (SwipeHistory) TableName() string {
	return "swipe_history"
}

// BeforeCreate assigns an ID when the caller did not.
func (s *SwipeHistory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// All lists the models managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{&GenerationLog{}, &Recipe{}, &SwipeHistory{}}
}
