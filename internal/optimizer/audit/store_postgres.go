package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore writes audit rows to the optimizer_runs and
// optimizer_decisions tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertRun writes one optimizer_runs row.
func (s *PostgresStore) InsertRun(ctx context.Context, run Run) error {
	requestSummary, err := jsonb(run.RequestSummary)
	if err != nil {
		return fmt.Errorf("marshal request summary: %w", err)
	}
	responseSummary, err := jsonb(run.ResponseSummary)
	if err != nil {
		return fmt.Errorf("marshal response summary: %w", err)
	}

	query := `
		INSERT INTO optimizer_runs (
			id, trace_id, user_id, status, request_summary, response_summary,
			error_code, duration_ms, location_count, start_index, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.TraceID,
		nullString(run.UserID),
		string(run.Status),
		requestSummary,
		responseSummary,
		nullString(run.ErrorCode),
		run.DurationMs,
		run.LocationCount,
		run.StartIndex,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert optimizer run: %w", err)
	}
	return nil
}

// InsertDecision writes one optimizer_decisions row.
func (s *PostgresStore) InsertDecision(ctx context.Context, decision Decision) error {
	route, err := jsonb(decision.Route)
	if err != nil {
		return fmt.Errorf("marshal route: %w", err)
	}
	metadata, err := jsonb(decision.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO optimizer_decisions (
			id, trace_id, request_trace_id, user_id, admin_id, action, route, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		decision.ID,
		decision.TraceID,
		decision.RequestTraceID,
		nullString(decision.UserID),
		nullString(decision.AdminID),
		decision.Action,
		route,
		metadata,
		decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert optimizer decision: %w", err)
	}
	return nil
}

// jsonb encodes v for a jsonb column; nil becomes SQL NULL.
func jsonb(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil, nil
		}
		return []byte(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
