package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pageza/macrochef/backend/internal/completion"
	"github.com/pageza/macrochef/backend/internal/identity"
	"github.com/pageza/macrochef/backend/internal/ledger"
	"github.com/pageza/macrochef/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Error codes written to the ledger
const (
	CodeRateLimitExceeded   = "rate_limit_exceeded"
	CodeOpenAITimeout       = "openai_timeout"
	CodeOpenAIEmptyContent  = "openai_empty_content"
	CodeInvalidPayloadShape = "openai_invalid_payload_shape"
	CodeUnhandled           = "unhandled_server_error"
)

// GenerationError is a failed generation with the HTTP status to answer.
// Code is set when the attempt was written to the ledger.
type GenerationError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GenerateInput is one call to the generation function.
type GenerateInput struct {
	Authorization string
	Body          []byte
}

// GenerateResult is the successful response body.
type GenerateResult struct {
	Recipes []json.RawMessage `json:"recipes"`
}

// GenerationService runs the recipe generation pipeline.
type GenerationService struct {
	secrets   func() error
	resolver  identity.Resolver
	ledger    UsageLedger
	completer Completer
	archive   CompletionArchiver
	metrics   AttemptRecorder
	log       *logrus.Entry
	now       func() time.Time
}

// GenerationDeps groups the collaborators of GenerationService. Archive and
// Metrics are optional.
type GenerationDeps struct {
	Secrets   func() error
	Resolver  identity.Resolver
	Ledger    UsageLedger
	Completer Completer
	Archive   CompletionArchiver
	Metrics   AttemptRecorder
	Log       *logrus.Entry
}

// NewGenerationService creates a new GenerationService instance
func NewGenerationService(deps GenerationDeps) *GenerationService {
	secrets := deps.Secrets
	if secrets == nil {
		secrets = func() error { return nil }
	}
	return &GenerationService{
		secrets:   secrets,
		resolver:  deps.Resolver,
		ledger:    deps.Ledger,
		completer: deps.Completer,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		log:       deps.Log,
		now:       time.Now,
	}
}

// attempt carries what every ledger row of one call shares.
type attempt struct {
	userID          string
	ingredientCount int
	startedAt       time.Time
}

// Generate authenticates the caller, applies the rate limit, asks the
// provider for recipes and validates the answer. Every attempt past
// authentication and ingredient validation leaves exactly one ledger row.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	startedAt := s.now()

	if err := s.secrets(); err != nil {
		return nil, &GenerationError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}

	token, ok := identity.BearerToken(in.Authorization)
	if !ok {
		return nil, unauthorized(nil)
	}
	userID, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, unauthorized(err)
	}
	ctx = ledger.WithAuthorization(ctx, in.Authorization)
	at := attempt{userID: userID, startedAt: startedAt}

	raw, err := DecodeRequest(in.Body)
	if err != nil {
		return nil, s.fail(ctx, at, http.StatusInternalServerError, CodeUnhandled, err.Error(), err)
	}
	req := NormalizeRequest(raw)
	at.ingredientCount = len(req.IngredientNames)

	if len(req.IngredientNames) < MinIngredients {
		return nil, &GenerationError{Status: http.StatusBadRequest, Message: "At least 3 ingredients are required."}
	}

	_, limited, err := s.ledger.Check(ctx, userID, s.now())
	if err != nil {
		message := err.Error()
		if errors.Is(err, ledger.ErrUsageCountFailed) {
			message = ledger.ErrUsageCountFailed.Error()
		}
		return nil, s.fail(ctx, at, http.StatusInternalServerError, CodeUnhandled, message, err)
	}
	if limited {
		s.record(ctx, at, models.GenerationRateLimited, CodeRateLimitExceeded, false)
		return nil, &GenerationError{
			Status:  http.StatusTooManyRequests,
			Code:    CodeRateLimitExceeded,
			Message: fmt.Sprintf("Rate limit exceeded. Max %d requests per %d minutes.", ledger.MaxRequests, int(ledger.Window.Minutes())),
		}
	}

	content, err := s.completer.Complete(ctx, req)
	if err != nil {
		return nil, s.completionFailure(ctx, at, err)
	}

	recipes, err := ParseRecipes(content)
	if err != nil {
		s.archiveRejected(ctx, at, content, err)
		if errors.Is(err, ErrInvalidPayloadShape) {
			return nil, s.fail(ctx, at, http.StatusBadGateway, CodeInvalidPayloadShape, "Invalid OpenAI payload shape", err)
		}
		return nil, s.fail(ctx, at, http.StatusInternalServerError, CodeUnhandled, err.Error(), err)
	}

	s.record(ctx, at, models.GenerationSuccess, "", true)
	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"ingredients": at.ingredientCount,
		"recipes":     len(recipes),
	}).Info("Generated recipes")

	return &GenerateResult{Recipes: recipes}, nil
}

func (s *GenerationService) completionFailure(ctx context.Context, at attempt, err error) error {
	var statusErr *completion.HTTPStatusError
	switch {
	case errors.Is(err, completion.ErrTimeout):
		return s.fail(ctx, at, http.StatusGatewayTimeout, CodeOpenAITimeout, "OpenAI request timed out", err)
	case errors.As(err, &statusErr):
		return s.fail(ctx, at, http.StatusBadGateway, statusErr.Code(), statusErr.Error(), err)
	case errors.Is(err, completion.ErrEmptyContent):
		return s.fail(ctx, at, http.StatusBadGateway, CodeOpenAIEmptyContent, "OpenAI returned empty content", err)
	default:
		return s.fail(ctx, at, http.StatusInternalServerError, CodeUnhandled, err.Error(), err)
	}
}

// fail records an error row and builds the matching GenerationError.
func (s *GenerationService) fail(ctx context.Context, at attempt, status int, code, message string, err error) error {
	s.log.WithError(err).WithFields(logrus.Fields{
		"user_id":    at.userID,
		"error_code": code,
	}).Warn("Recipe generation failed")

	s.record(ctx, at, models.GenerationError, code, true)
	return &GenerationError{Status: status, Code: code, Message: message, Err: err}
}

// record writes the ledger row after the caller's context may be gone.
func (s *GenerationService) record(ctx context.Context, at attempt, status, code string, withLatency bool) {
	elapsed := s.now().Sub(at.startedAt)
	entry := ledger.Entry{
		UserID:          at.userID,
		Status:          status,
		Provider:        ledger.ProviderOpenAI,
		IngredientCount: at.ingredientCount,
	}
	if code != "" {
		entry.ErrorCode = ledger.Code(code)
	}
	if withLatency {
		entry.LatencyMs = ledger.Latency(elapsed)
	}

	s.ledger.Record(context.WithoutCancel(ctx), entry)
	if s.metrics != nil {
		s.metrics.Observe(status, code, elapsed)
	}
}

func (s *GenerationService) archiveRejected(ctx context.Context, at attempt, content string, reason error) {
	if s.archive == nil {
		return
	}
	s.archive.ArchiveRejected(context.WithoutCancel(ctx), RejectedCompletion{
		UserID:     at.userID,
		Reason:     reason.Error(),
		Content:    content,
		RejectedAt: s.now().UTC(),
	})
}

func unauthorized(err error) *GenerationError {
	return &GenerationError{Status: http.StatusUnauthorized, Message: "Unauthorized", Err: err}
}
