package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// Ledger implements ports.Ledger on a local workbook. The workbook and tab are created with
// the header row on first append.
type Ledger struct {
	path  string
	sheet string

	mu sync.Mutex
}

func New(path, sheet string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" || strings.TrimSpace(sheet) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "xlsx ledger", errors.New("path and sheet are required"))
	}
	return &Ledger{path: path, sheet: sheet}, nil
}

func (l *Ledger) ReadColumn(ctx context.Context, column, firstRow int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(l.sheet); idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var out []string
	for i := firstRow - 1; i < len(rows); i++ {
		if i < 0 {
			continue
		}
		if column-1 < len(rows[i]) {
			out = append(out, rows[i][column-1])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func (l *Ledger) AppendRow(ctx context.Context, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		if err := writeRow(f, l.sheet, 1, domain.LedgerHeader); err != nil {
			return err
		}
		rows = append(rows, domain.LedgerHeader)
	}
	if err := writeRow(f, l.sheet, len(rows)+1, values); err != nil {
		return err
	}
	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (l *Ledger) openOrCreate() (*excelize.File, error) {
	f, err := excelize.OpenFile(l.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), l.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("name sheet: %w", err)
		}
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	if idx, _ := f.GetSheetIndex(l.sheet); idx < 0 {
		if _, err := f.NewSheet(l.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet: %w", err)
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
