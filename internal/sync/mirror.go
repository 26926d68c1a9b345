package sync

import "context"

// Columns is the one declared header for every mirror tab, in formatter
// order. EnsureHeader rewrites any tab whose first row differs.
var Columns = []string{
	"uuid",
	"agent",
	"type",
	"subject",
	"tags",
	"content",
	"created_at",
	"updated_at",
	"deleted",
}

// Mirror is an external tabular copy of the entry store. Row indexes are
// 1-based and include the header row, so data starts at row 2. Every call
// may fail transiently; failures are retryable at per-row granularity
// because the reconciler keys rows by uuid.
type Mirror interface {
	// Header returns the first row of the tab, empty when the tab is blank.
	Header(ctx context.Context) ([]string, error)

	// WriteHeader overwrites the first row.
	WriteHeader(ctx context.Context, columns []string) error

	// UUIDRows returns the identity column as uuid -> row index.
	UUIDRows(ctx context.Context) (map[string]int, error)

	// UpdateRow rewrites an existing row in place.
	UpdateRow(ctx context.Context, rowIndex int, values []string) error

	// AppendRow adds a new row after the last populated one.
	AppendRow(ctx context.Context, values []string) error
}
