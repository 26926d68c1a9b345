package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExcelMirror implements Mirror against one sheet of a local .xlsx
// workbook. It serves as an offline stand-in for the Google mirror and
// honors the exact same contract.
type ExcelMirror struct {
	file *excelize.File
	path string
	tab  string
}

func NewExcelMirror(path, tab string) (*ExcelMirror, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workbook directory: %w", err)
		}
	}

	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %q: %w", path, err)
		}
	} else {
		f = excelize.NewFile()
	}

	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return nil, fmt.Errorf("look up sheet %q: %w", tab, err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(tab); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", tab, err)
		}
	}

	m := &ExcelMirror{file: f, path: path, tab: tab}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ExcelMirror) Close() error {
	return m.file.Close()
}

func (m *ExcelMirror) save() error {
	if err := m.file.SaveAs(m.path); err != nil {
		return fmt.Errorf("save workbook %q: %w", m.path, err)
	}
	return nil
}

func (m *ExcelMirror) Header(ctx context.Context) ([]string, error) {
	rows, err := m.file.GetRows(m.tab)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", m.tab, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (m *ExcelMirror) WriteHeader(ctx context.Context, columns []string) error {
	if err := m.file.SetSheetRow(m.tab, "A1", &columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return m.save()
}

func (m *ExcelMirror) UUIDRows(ctx context.Context) (map[string]int, error) {
	rows, err := m.file.GetRows(m.tab)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", m.tab, err)
	}

	existing := make(map[string]int)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 && row[0] != "" {
			existing[row[0]] = i + 1
		}
	}
	return existing, nil
}

func (m *ExcelMirror) UpdateRow(ctx context.Context, rowIndex int, values []string) error {
	cell := fmt.Sprintf("A%d", rowIndex)
	if err := m.file.SetSheetRow(m.tab, cell, &values); err != nil {
		return fmt.Errorf("update row %d: %w", rowIndex, err)
	}
	return m.save()
}

func (m *ExcelMirror) AppendRow(ctx context.Context, values []string) error {
	rows, err := m.file.GetRows(m.tab)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", m.tab, err)
	}
	cell := fmt.Sprintf("A%d", len(rows)+1)
	if err := m.file.SetSheetRow(m.tab, cell, &values); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return m.save()
}
