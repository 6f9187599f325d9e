package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func family(t *testing.T, reg *promclient.Registry, prefix string) *dto.MetricFamily {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), prefix) {
			return f
		}
	}
	t.Fatalf("no metric family with prefix %q", prefix)
	return nil
}

func counterByLabel(f *dto.MetricFamily, name, value string) float64 {
	total := 0.0
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name && l.GetValue() == value {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

// ==========================
// Meter Tests
// ==========================

func TestObservability_RecordLogin(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("console-test", reg, logger.NewTestLogger(t))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordLogin(ctx, true)
	obs.RecordLogin(ctx, true)
	obs.RecordLogin(ctx, false)

	f := family(t, reg, "console_logins")
	assert.Equal(t, 2.0, counterByLabel(f, "outcome", "success"))
	assert.Equal(t, 1.0, counterByLabel(f, "outcome", "failed"))
}

func TestObservability_RecordExport(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("console-test", reg, logger.NewTestLogger(t))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordExport(ctx, "csv", 120, nil)
	obs.RecordExport(ctx, "csv", 0, errors.New("backend down"))

	exports := family(t, reg, "console_exports")
	assert.Equal(t, 1.0, counterByLabel(exports, "outcome", "success"))
	assert.Equal(t, 1.0, counterByLabel(exports, "outcome", "failed"))

	rows := family(t, reg, "console_export_rows")
	require.Len(t, rows.GetMetric(), 1)
	assert.Equal(t, uint64(1), rows.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 120.0, rows.GetMetric()[0].GetHistogram().GetSampleSum())
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	obs := &Observability{}
	assert.NotPanics(t, func() {
		obs.RecordLogin(context.Background(), true)
		obs.RecordExport(context.Background(), "xlsx", 3, nil)
		obs.Shutdown()
	})
}

// ==========================
// Tracing Tests
// ==========================

func TestTracing_BackendCallsOpenSpans(t *testing.T) {
	tr, err := NewTracing("console-test", "", logger.NewTestLogger(t))
	require.NoError(t, err)
	defer tr.Shutdown()

	recorder := tracetest.NewSpanRecorder()
	tr.Provider().RegisterSpanProcessor(recorder)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := crmhttp.NewClient(srv.URL, time.Second, logger.NewNoOpLogger())
	_, err = client.Send(context.Background(), crmhttp.Request{Method: http.MethodGet, Path: "/store/getAll", Token: "tok"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	assert.Equal(t, "GET /store/getAll", spans[len(spans)-1].Name())
}

func TestTracing_JaegerEndpoint(t *testing.T) {
	tr, err := NewTracing("console-test", "http://127.0.0.1:14268/api/traces", logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, tr.Provider())
	tr.Shutdown()

	var nilTracing *Tracing
	assert.NotPanics(t, nilTracing.Shutdown)
}
