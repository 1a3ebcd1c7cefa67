package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartSpanAndEnd(t *testing.T) {
	rec := setupRecorder(t)

	_, span := StartSpan(context.Background(), "ingest.Ingest", attribute.String("date", "2024-03-01"))
	End(span, nil)

	_, failing := StartSpan(context.Background(), "fetch.source", attribute.Int64("source_id", 7))
	End(failing, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "ingest.Ingest", spans[0].Name())
	assert.Equal(t, "2024-03-01", attrMap(spans[0].Attributes())["date"].AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1, "error recorded as event")
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		pathLabel  func(*http.Request) string
		wantName   string
		wantStatus codes.Code
	}{
		{name: "ok with raw path", status: http.StatusOK, wantName: "GET /extraction/jobs/abc", wantStatus: codes.Unset},
		{
			name:       "labelled path",
			status:     http.StatusAccepted,
			pathLabel:  func(*http.Request) string { return "/extraction/jobs/:id" },
			wantName:   "GET /extraction/jobs/:id",
			wantStatus: codes.Unset,
		},
		{name: "server error", status: http.StatusServiceUnavailable, wantName: "GET /extraction/jobs/abc", wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setupRecorder(t)
			h := Middleware(tt.pathLabel)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extraction/jobs/abc", nil))

			spans := rec.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantName, spans[0].Name())
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
			assert.Equal(t, int64(tt.status), attrMap(spans[0].Attributes())["http.status_code"].AsInt64())
			assert.Equal(t, spans[0].SpanContext().TraceID().String(), rr.Header().Get(TraceIDHeader))
		})
	}
}

func TestMiddleware_PropagatesParent(t *testing.T) {
	rec := setupRecorder(t)
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

func TestInitProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown := InitProvider(1)
	_, span := StartSpan(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
