package telemetry

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const defaultCollector = "127.0.0.1:4318"

var (
	active   atomic.Bool
	setup    sync.Once
	setupErr error
	shutdown = func(context.Context) error { return nil }
)

// Init installs the global tracer provider once per process. Tracing stays
// off unless OTEL_EXPORTER_OTLP_ENDPOINT is set, and OTEL_SDK_DISABLED=true
// forces it off.
func Init(serviceName string) (func(context.Context) error, error) {
	setup.Do(func() {
		raw := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
		if raw == "" || strings.EqualFold(strings.TrimSpace(os.Getenv("OTEL_SDK_DISABLED")), "true") {
			return
		}

		attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName)}
		if version := strings.TrimSpace(os.Getenv("APP_VERSION")); version != "" {
			attrs = append(attrs, semconv.ServiceVersionKey.String(version))
		}
		res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
		if err != nil {
			setupErr = err
			return
		}

		exporter, err := newExporter(raw)
		if err != nil {
			setupErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		active.Store(true)
		shutdown = tp.Shutdown
	})
	return shutdown, setupErr
}

// Enabled reports whether Init installed an exporter.
func Enabled() bool {
	return active.Load()
}

// Middleware traces inbound gin requests when tracing is on.
func Middleware(serviceName string) gin.HandlerFunc {
	if !Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// Transport wraps an outbound round tripper with client spans when tracing is on.
func Transport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	if !Enabled() {
		return rt
	}
	return otelhttp.NewTransport(rt)
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func newExporter(raw string) (*otlptrace.Exporter, error) {
	endpoint, path, insecure := parseEndpoint(raw)
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if path != "" && path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(path))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

// parseEndpoint accepts host:port or a full URL. Bare host:port is plain HTTP.
func parseEndpoint(raw string) (endpoint, path string, insecure bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultCollector, "", true
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host, u.EscapedPath(), u.Scheme == "http"
		}
	}
	return raw, "", true
}
