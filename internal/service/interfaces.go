package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/macrochef/backend/internal/ledger"
	"github.com/pageza/macrochef/backend/internal/types"
)

// Completer produces raw completion content for a normalized request.
type Completer interface {
	Complete(ctx context.Context, req types.GenerationRequest) (string, error)
}

// UsageLedger is the rate limit and audit log used by generation.
type UsageLedger interface {
	Check(ctx context.Context, userID string, now time.Time) (int64, bool, error)
	Record(ctx context.Context, entry ledger.Entry)
}

// AttemptRecorder observes one generation attempt.
type AttemptRecorder interface {
	Observe(status, code string, elapsed time.Duration)
}

// RejectedCompletion is completion content the validator refused.
type RejectedCompletion struct {
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	Content    string    `json:"content"`
	RejectedAt time.Time `json:"rejected_at"`
}

// CompletionArchiver keeps rejected completions for later inspection.
// Implementations swallow their own errors.
type CompletionArchiver interface {
	ArchiveRejected(ctx context.Context, rejected RejectedCompletion)
}

// IGenerationService defines the interface for recipe generation
type IGenerationService interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error)
}

// IRecipeService defines the interface for saved recipe operations
type IRecipeService interface {
	SaveGenerated(ctx context.Context, userID string, recipes []types.GeneratedRecipe) ([]*types.SavedRecipe, error)
	Swipe(ctx context.Context, userID string, recipeID uuid.UUID, direction string) (*types.SavedRecipe, error)
	ListSaved(ctx context.Context, userID string) ([]*types.SavedRecipe, error)
}
