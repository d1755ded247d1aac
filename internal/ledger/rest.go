package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const logsTable = "recipe_generation_logs"

// RESTStore keeps the ledger in a PostgREST table of the hosted backend.
type RESTStore struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewRESTStore creates a store against {baseURL}/rest/v1. A nil client uses
// http.DefaultClient.
func NewRESTStore(baseURL, apiKey string, timeout time.Duration, client *http.Client) *RESTStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
	}
}

type restRow struct {
	UserID          string  `json:"user_id"`
	Status          string  `json:"status"`
	Provider        string  `json:"provider"`
	IngredientCount int     `json:"ingredient_count"`
	ErrorCode       *string `json:"error_code"`
	LatencyMs       *int64  `json:"latency_ms"`
}

// CountSince issues a HEAD request with an exact count and reads the total
// from Content-Range.
func (s *RESTStore) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := url.Values{}
	query.Set("select", "id")
	query.Set("user_id", "eq."+userID)
	query.Set("requested_at", "gte."+since.UTC().Format("2006-01-02T15:04:05.000Z"))

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.tableURL()+"?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}
	s.authorize(ctx, req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUsageCountFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: status %d", ErrUsageCountFailed, resp.StatusCode)
	}
	return ParseContentRange(resp.Header.Get("Content-Range")), nil
}

// Insert appends one row; the table assigns requested_at.
func (s *RESTStore) Insert(ctx context.Context, entry Entry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(restRow{
		UserID:          entry.UserID,
		Status:          entry.Status,
		Provider:        entry.Provider,
		IngredientCount: entry.IngredientCount,
		ErrorCode:       entry.ErrorCode,
		LatencyMs:       entry.LatencyMs,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.authorize(ctx, req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsageLogFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUsageLogFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// ParseContentRange returns the total from a "start-end/total" header.
// A missing or unparsable total reads as zero.
func ParseContentRange(header string) int64 {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[idx+1:]), 10, 64)
	if err != nil || total < 0 {
		return 0
	}
	return total
}

func (s *RESTStore) tableURL() string {
	return s.baseURL + "/rest/v1/" + logsTable
}

func (s *RESTStore) authorize(ctx context.Context, req *http.Request) {
	req.Header.Set("apikey", s.apiKey)
	if header := authorizationFrom(ctx); header != "" {
		req.Header.Set("Authorization", header)
	} else {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

func (s *RESTStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
