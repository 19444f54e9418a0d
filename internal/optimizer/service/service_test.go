package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pedalgate/internal/optimizer/audit"
	"pedalgate/internal/optimizer/audit/mocks"
	"pedalgate/internal/optimizer/models"
	"pedalgate/internal/optimizer/sanitize"
	"pedalgate/internal/optimizer/upstream"
	"pedalgate/pkg/domain"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/requestcontext"
)

type fakeForwarder struct {
	resp  *upstream.Response
	err   error
	calls []upstream.Request
}

func (f *fakeForwarder) Do(_ context.Context, req upstream.Request) (*upstream.Response, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func jsonResponse(status int, body string) *upstream.Response {
	return &upstream.Response{
		Status:      status,
		ContentType: "application/json",
		Kind:        upstream.BodyJSON,
		JSON:        json.RawMessage(body),
	}
}

func requestCtx() context.Context {
	ctx := requestcontext.WithTraceID(context.Background(), "abc-123")
	return requestcontext.WithCaller(ctx, domain.Caller{UserID: "user-1", AdminID: "admin-9", Role: "admin"})
}

func sampleRequest() *models.OptimizeRequest {
	start := 0
	return &models.OptimizeRequest{
		StartIndex: &start,
		Locations: []models.Location{
			{ID: "a", Lat: 40.71, Lng: -74.00},
			{ID: "b", Lat: 40.73, Lng: -73.99},
		},
	}
}

func newServiceWithStore(fwd Forwarder) (*Service, *audit.InMemoryStore) {
	store := audit.NewInMemoryStore()
	return New(fwd, audit.NewPersister(store, nil)), store
}

func TestOptimize_SuccessRecordsRunWithTraceID(t *testing.T) {
	fwd := &fakeForwarder{resp: jsonResponse(http.StatusOK, `{"route":[0,1],"score":0.8,"version":"1.4"}`)}
	svc, store := newServiceWithStore(fwd)

	resp, err := svc.Optimize(requestCtx(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	require.Len(t, fwd.calls, 1)
	assert.Equal(t, http.MethodPost, fwd.calls[0].Method)
	assert.Equal(t, "/optimize", fwd.calls[0].Path)

	runs := store.Runs()
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "abc-123", run.TraceID)
	assert.Equal(t, "user-1", run.UserID)
	assert.Equal(t, audit.StatusSuccess, run.Status)
	assert.Empty(t, run.ErrorCode)
	assert.Equal(t, 2, run.LocationCount)
	require.NotNil(t, run.StartIndex)
	assert.Equal(t, 0, *run.StartIndex)

	summary, ok := run.ResponseSummary.(sanitize.ResponseSummary)
	require.True(t, ok)
	assert.Equal(t, 0.8, *summary.Score)
	assert.Equal(t, "1.4", *summary.Version)
}

func TestOptimize_Non2xxIsRelayedAndRecordedAsError(t *testing.T) {
	fwd := &fakeForwarder{resp: &upstream.Response{Status: http.StatusInternalServerError, Kind: upstream.BodyText, Text: "boom"}}
	svc, store := newServiceWithStore(fwd)

	resp, err := svc.Optimize(requestCtx(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	runs := store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, audit.StatusError, runs[0].Status)
	assert.Equal(t, "upstream_status_500", runs[0].ErrorCode)
	assert.Nil(t, runs[0].ResponseSummary)
}

func TestOptimize_ForwardErrorRecordsCode(t *testing.T) {
	tests := []dErrors.Code{
		dErrors.CodeOptimizerUnavailable,
		dErrors.CodeUpstreamTimeout,
		dErrors.CodeRequestFailed,
	}
	for _, code := range tests {
		t.Run(string(code), func(t *testing.T) {
			fwd := &fakeForwarder{err: dErrors.New(code, "nope")}
			svc, store := newServiceWithStore(fwd)

			resp, err := svc.Optimize(requestCtx(), sampleRequest())
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, dErrors.Is(err, code))

			runs := store.Runs()
			require.Len(t, runs, 1, "exactly one run row per call")
			assert.Equal(t, audit.StatusError, runs[0].Status)
			assert.Equal(t, string(code), runs[0].ErrorCode)
		})
	}
}

func TestOptimize_PersistenceFailureKeepsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().InsertRun(gomock.Any(), gomock.Any()).Return(errors.New("database is down"))

	fwd := &fakeForwarder{resp: jsonResponse(http.StatusOK, `{"route":[1,0]}`)}
	svc := New(fwd, audit.NewPersister(store, nil))

	resp, err := svc.Optimize(requestCtx(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"route":[1,0]}`, string(resp.Body()))
}

func TestDecide(t *testing.T) {
	t.Run("body trace id links the decision to its run", func(t *testing.T) {
		fwd := &fakeForwarder{resp: jsonResponse(http.StatusOK, `{"ok":true}`)}
		svc, store := newServiceWithStore(fwd)

		_, err := svc.Decide(requestCtx(), &models.DecisionRequest{
			Action:   models.ActionAccept,
			Route:    json.RawMessage(`[{"id":"a"},{"id":"b"}]`),
			TraceID:  "run-77",
			Metadata: json.RawMessage(`{"note":"ok"}`),
		})
		require.NoError(t, err)

		require.Len(t, fwd.calls, 1)
		assert.Equal(t, "/decision", fwd.calls[0].Path)

		decisions := store.Decisions()
		require.Len(t, decisions, 1)
		d := decisions[0]
		assert.Equal(t, "run-77", d.TraceID)
		assert.Equal(t, "abc-123", d.RequestTraceID)
		assert.Equal(t, "user-1", d.UserID)
		assert.Equal(t, "admin-9", d.AdminID)
		assert.Equal(t, "accept", d.Action)
		route, ok := d.Route.(sanitize.RouteSummary)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, route.StopIDs)
	})

	t.Run("falls back to request trace id", func(t *testing.T) {
		fwd := &fakeForwarder{err: dErrors.New(dErrors.CodeUpstreamTimeout, "slow")}
		svc, store := newServiceWithStore(fwd)

		_, err := svc.Decide(requestCtx(), &models.DecisionRequest{Action: models.ActionReject})
		require.Error(t, err)

		decisions := store.Decisions()
		require.Len(t, decisions, 1)
		assert.Equal(t, "abc-123", decisions[0].TraceID)
		assert.Equal(t, "abc-123", decisions[0].RequestTraceID)
		assert.Equal(t, "reject", decisions[0].Action)
		assert.Nil(t, decisions[0].Metadata)
	})
}

func TestTokenAuditPassesLimit(t *testing.T) {
	fwd := &fakeForwarder{resp: jsonResponse(http.StatusOK, `[]`)}
	svc, _ := newServiceWithStore(fwd)

	_, err := svc.TokenAudit(requestCtx(), 25)
	require.NoError(t, err)
	require.Len(t, fwd.calls, 1)
	assert.Equal(t, "/audit", fwd.calls[0].Path)
	assert.Equal(t, "25", fwd.calls[0].Query.Get("limit"))
}

func TestHealthRelays(t *testing.T) {
	fwd := &fakeForwarder{resp: jsonResponse(http.StatusServiceUnavailable, `{"status":"down"}`)}
	svc, store := newServiceWithStore(fwd)

	resp, err := svc.Health(requestCtx())
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "/health", fwd.calls[0].Path)
	assert.Empty(t, store.Runs())
}

func TestPenalties(t *testing.T) {
	svc, _ := newServiceWithStore(&fakeForwarder{})

	matrix, err := svc.Penalties(requestCtx(), []models.Location{{Lat: 1, Lng: 1}}, nil)
	require.NoError(t, err)
	assert.Empty(t, matrix)

	_, err = svc.Penalties(requestCtx(), nil, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodePenaltyGenerationFailed))
}
