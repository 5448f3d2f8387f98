package xlsx

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

func TestReadColumnMissingWorkbookIsEmpty(t *testing.T) {
	ledger, err := New(filepath.Join(t.TempDir(), "ledger.xlsx"), "Sermons")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	values, err := ledger.ReadColumn(context.Background(), domain.LedgerKeyColumn, domain.LedgerFirstDataRow)
	if err != nil {
		t.Fatalf("ReadColumn() error = %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
}

func TestAppendRowCreatesHeaderAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ledger, err := New(path, "Sermons")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := domain.MetadataRecord{Title: "Living Water", References: []string{"John 4:10"}}.LedgerRow("https://a")
	second := domain.MetadataRecord{Title: "Bread of Life"}.LedgerRow("https://b")
	for _, row := range [][]string{first, second} {
		if err := ledger.AppendRow(context.Background(), row); err != nil {
			t.Fatalf("AppendRow() error = %v", err)
		}
	}

	keys, err := ledger.ReadColumn(context.Background(), domain.LedgerKeyColumn, domain.LedgerFirstDataRow)
	if err != nil {
		t.Fatalf("ReadColumn() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"https://a", "https://b"}) {
		t.Fatalf("unexpected keys: %v", keys)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sermons")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if !reflect.DeepEqual(rows[0], domain.LedgerHeader) {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][5] != "Living Water" || rows[1][8] != "John 4:10" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}

func TestAppendRowAddsMissingSheetToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	_ = f.Close()

	ledger, err := New(path, "Sermons")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := ledger.AppendRow(context.Background(), domain.MetadataRecord{}.LedgerRow("https://a")); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}

	keys, err := ledger.ReadColumn(context.Background(), domain.LedgerKeyColumn, domain.LedgerFirstDataRow)
	if err != nil {
		t.Fatalf("ReadColumn() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"https://a"}) {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
