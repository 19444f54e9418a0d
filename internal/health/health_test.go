package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalgate/internal/platform/config"
	"pedalgate/pkg/platform/sentinel"
)

func ok(name string) Check {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return nil }}
}

func failing(name string) Check {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return errors.New(name + " broken") }}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    Status
	}{
		{"all ok", []Result{{Name: CheckDatabase, Status: CheckOK}, {Name: CheckEmail, Status: CheckOK}}, StatusOperational},
		{"secondary error", []Result{{Name: CheckDatabase, Status: CheckOK}, {Name: CheckEmail, Status: CheckError}}, StatusDegraded},
		{"primary error", []Result{{Name: CheckDatabase, Status: CheckError}, {Name: CheckEmail, Status: CheckOK}}, StatusDown},
		{"primary error wins over secondary", []Result{{Name: CheckEmail, Status: CheckError}, {Name: CheckDatabase, Status: CheckError}}, StatusDown},
		{"no checks", nil, StatusOperational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(CheckDatabase, tt.results))
		})
	}
}

func TestAggregator_DatabaseOKMailKeyMissingIsDegraded(t *testing.T) {
	agg := NewAggregator(CheckDatabase, []Check{
		ok(CheckDatabase),
		ok(CheckRewards),
		NewMailProbe(config.Mail{BaseURL: "http://127.0.0.1:1"}, nil),
	})

	report := agg.Run(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, CheckEmail, report.Checks[2].Name)
	assert.Equal(t, CheckError, report.Checks[2].Status)
	assert.Contains(t, report.Checks[2].Message, "not configured")
}

func TestAggregator_PrimaryFailureIsDown(t *testing.T) {
	agg := NewAggregator(CheckDatabase, []Check{failing(CheckDatabase), ok(CheckRewards), ok(CheckEmail)})
	assert.Equal(t, StatusDown, agg.Run(context.Background()).Status)
}

func TestAggregator_ChecksRunInParallelWithTimeout(t *testing.T) {
	slow := func(name string) Check {
		return CheckFunc{CheckName: name, Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
	}
	agg := NewAggregator(CheckDatabase,
		[]Check{ok(CheckDatabase), slow(CheckRewards), slow(CheckEmail)},
		WithTimeout(200*time.Millisecond),
	)

	start := time.Now()
	report := agg.Run(context.Background())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 390*time.Millisecond, "checks should run concurrently")
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "check timed out", report.Checks[1].Message)
}

func TestAggregator_TimestampAndGauge(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	reg := prometheus.NewRegistry()
	agg := NewAggregator(CheckDatabase,
		[]Check{ok(CheckDatabase), failing(CheckRewards)},
		WithClock(func() time.Time { return fixed }),
		WithRegisterer(reg),
	)

	report := agg.Run(context.Background())
	assert.Equal(t, fixed, report.Timestamp)
	assert.Equal(t, 1.0, testutil.ToFloat64(agg.gauge.WithLabelValues(CheckDatabase)))
	assert.Equal(t, 0.0, testutil.ToFloat64(agg.gauge.WithLabelValues(CheckRewards)))
}

func TestTableProbeWithoutDatabase(t *testing.T) {
	err := NewTableProbe(CheckDatabase, "users", nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotConfigured))
}

func TestMailProbe(t *testing.T) {
	var gotAuth, gotPath string
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	probe := NewMailProbe(config.Mail{APIKey: "re_123", BaseURL: srv.URL + "/"}, srv.Client())

	require.NoError(t, probe.Run(context.Background()))
	assert.Equal(t, "Bearer re_123", gotAuth)
	assert.Equal(t, "/domains", gotPath)

	status = http.StatusUnauthorized
	err := probe.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestHandlerAlwaysReturns200(t *testing.T) {
	agg := NewAggregator(CheckDatabase, []Check{failing(CheckDatabase)})
	r := chi.NewRouter()
	NewHandler(agg).Register(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, StatusDown, report.Status)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "database broken", report.Checks[0].Message)
	assert.False(t, report.Timestamp.IsZero())
}
