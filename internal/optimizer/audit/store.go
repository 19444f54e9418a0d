package audit

import "context"

// Store persists audit rows. Rows are insert-only.
type Store interface {
	InsertRun(ctx context.Context, run Run) error
	InsertDecision(ctx context.Context, decision Decision) error
}
