package sync

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheetsMirror implements Mirror against one tab of a Google
// spreadsheet.
type GoogleSheetsMirror struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

func NewGoogleSheetsMirror(ctx context.Context, client *http.Client, spreadsheetID, tab string) (*GoogleSheetsMirror, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheetsMirror{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tab:           tab,
	}, nil
}

func (m *GoogleSheetsMirror) rangeRef(ref string) string {
	return fmt.Sprintf("'%s'!%s", m.tab, ref)
}

func (m *GoogleSheetsMirror) Header(ctx context.Context) ([]string, error) {
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, m.rangeRef("A1:Z1")).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprint(cell))
	}
	return header, nil
}

func (m *GoogleSheetsMirror) WriteHeader(ctx context.Context, columns []string) error {
	_, err := m.svc.Spreadsheets.Values.Update(
		m.spreadsheetID, m.rangeRef("A1"),
		&sheets.ValueRange{Values: [][]interface{}{toCells(columns)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (m *GoogleSheetsMirror) UUIDRows(ctx context.Context) (map[string]int, error) {
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, m.rangeRef("A2:A")).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	existing := make(map[string]int)
	for i, row := range resp.Values {
		if len(row) > 0 {
			if id := fmt.Sprint(row[0]); id != "" {
				existing[id] = i + 2
			}
		}
	}
	return existing, nil
}

func (m *GoogleSheetsMirror) UpdateRow(ctx context.Context, rowIndex int, values []string) error {
	_, err := m.svc.Spreadsheets.Values.Update(
		m.spreadsheetID, m.rangeRef(fmt.Sprintf("A%d", rowIndex)),
		&sheets.ValueRange{Values: [][]interface{}{toCells(values)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (m *GoogleSheetsMirror) AppendRow(ctx context.Context, values []string) error {
	_, err := m.svc.Spreadsheets.Values.Append(
		m.spreadsheetID, m.rangeRef("A:Z"),
		&sheets.ValueRange{Values: [][]interface{}{toCells(values)}},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
