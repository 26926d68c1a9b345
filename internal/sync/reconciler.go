package sync

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/agenthands/scribe/internal/store"
)

// Result tallies one reconciliation run. Failed lists the uuids whose
// remote write errored; the rows before and after them were still applied,
// and re-running the sync retries only what the mirror is missing.
type Result struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Total    int      `json:"total"`
	Failed   []string `json:"failed,omitempty"`
}

// FormatRow flattens an entry into mirror column order. Content lines are
// joined with newlines inside the single content cell.
func FormatRow(e store.Entry) []string {
	const timeLayout = "2006-01-02T15:04:05Z"
	return []string{
		e.UUID,
		e.Agent,
		e.Type,
		e.Subject,
		strings.Join(e.Tags, ", "),
		strings.Join(e.Lines, "\n"),
		e.CreatedAt.UTC().Format(timeLayout),
		e.UpdatedAt.UTC().Format(timeLayout),
		strconv.FormatBool(e.Deleted),
	}
}

func headerMatches(got []string) bool {
	if len(got) != len(Columns) {
		return false
	}
	for i, c := range Columns {
		if got[i] != c {
			return false
		}
	}
	return true
}

// EnsureHeader makes the mirror's header row match Columns exactly,
// rewriting it when missing or different. Idempotent.
func EnsureHeader(ctx context.Context, m Mirror) error {
	current, err := m.Header(ctx)
	if err != nil {
		return fmt.Errorf("fetch mirror header: %w", err)
	}
	if headerMatches(current) {
		return nil
	}
	if err := m.WriteHeader(ctx, Columns); err != nil {
		return fmt.Errorf("write mirror header: %w", err)
	}
	return nil
}

// dedupeByUUID collapses a batch to one row per uuid, preserving input
// order. Later occurrences win, so a batch carrying the same entry twice
// writes only its final state.
func dedupeByUUID(rows []store.Entry) []store.Entry {
	index := make(map[string]int, len(rows))
	out := make([]store.Entry, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.UUID]; ok {
			out[i] = row
			continue
		}
		index[row.UUID] = len(out)
		out = append(out, row)
	}
	return out
}

// Sync upserts local rows into the mirror, keyed by uuid. Running it twice
// with no local changes inserts nothing the second time and leaves every
// cell identical. The local store is the source of truth; the mirror is
// always rebuildable from it.
//
// Each uuid is written at most once per run, so the reconciler never needs
// to know where the mirror placed an appended row.
func Sync(ctx context.Context, m Mirror, rows []store.Entry) (Result, error) {
	rows = dedupeByUUID(rows)
	result := Result{Total: len(rows)}

	if err := EnsureHeader(ctx, m); err != nil {
		return result, err
	}

	existing, err := m.UUIDRows(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch mirror identity column: %w", err)
	}

	for _, row := range rows {
		values := FormatRow(row)

		if rowIndex, ok := existing[row.UUID]; ok {
			if err := m.UpdateRow(ctx, rowIndex, values); err != nil {
				log.Printf("sync: update row %s failed: %v", row.UUID, err)
				result.Failed = append(result.Failed, row.UUID)
				continue
			}
			result.Updated++
		} else {
			if err := m.AppendRow(ctx, values); err != nil {
				log.Printf("sync: append row %s failed: %v", row.UUID, err)
				result.Failed = append(result.Failed, row.UUID)
				continue
			}
			result.Inserted++
		}
	}

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("sync finished with %d failed rows", len(result.Failed))
	}
	return result, nil
}
