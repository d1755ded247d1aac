package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pageza/macrochef/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func sampleRequest() types.GenerationRequest {
	return types.GenerationRequest{
		IngredientNames: []string{"chicken", "rice", "broccoli"},
		Macros:          types.MacroTargets{Protein: 150, Carbs: 200, Fats: 60},
		TimeLimit:       30,
	}
}

func newTestClient(server *httptest.Server, timeout time.Duration) *Client {
	return NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini", URL: server.URL, Timeout: timeout}, server.Client())
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleRequest())

	assert.True(t, strings.HasPrefix(prompt, "Generate 3 distinct meal recipes.\n"))
	assert.Contains(t, prompt, "Use only these ingredients: chicken, rice, broccoli.")
	assert.Contains(t, prompt, "protein 150g, carbs 200g, fats 60g.")
	assert.Contains(t, prompt, "at or under 30 minutes.")
	assert.Contains(t, prompt, `"preparation_time": 30`)
	assert.Contains(t, prompt, "Return strict JSON:")
}

func TestCompleteSendsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, systemPrompt, req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Contains(t, req.Messages[1].Content, "chicken, rice, broccoli")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"recipes\":[]}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server, time.Second).Complete(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"recipes":[]}`, content)
}

func TestCompleteHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server, time.Second).Complete(context.Background(), sampleRequest())
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "openai_http_429", statusErr.Code())
}

func TestCompleteEmptyContent(t *testing.T) {
	for _, body := range []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":null}}]}`,
		`{"choices":[{"message":{"content":""}}]}`,
		`{}`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestClient(server, time.Second).Complete(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, ErrEmptyContent, body)
		server.Close()
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(server, 50*time.Millisecond).Complete(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestCompleteUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server, time.Second).Complete(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrEmptyContent))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, http.DefaultClient, c.http)
}

func TestCompleteRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server, time.Second).Complete(context.Background(), sampleRequest())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "completion.Complete", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "OpenAI request failed with status 429", spans[0].Status().Description)
}
