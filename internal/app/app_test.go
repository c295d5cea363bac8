package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/storefront-ingest/pkg/httpmiddleware"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func TestWrapServer_PanicLogCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := wrapServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), zap.New(core), noopTelemetry{})

	req := httptest.NewRequest(http.MethodPost, "/api/polycommerce/orders/add", nil)
	req.Header.Set(httpmiddleware.HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(httpmiddleware.HeaderRequestID))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
}
