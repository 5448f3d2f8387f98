package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

// LinkRegistry derives the set of already processed source URLs from the ledger key column.
type LinkRegistry struct {
	ledger ports.Ledger
}

func NewLinkRegistry(ledger ports.Ledger) *LinkRegistry {
	return &LinkRegistry{ledger: ledger}
}

func (r *LinkRegistry) Load(ctx context.Context) (map[string]struct{}, error) {
	values, err := r.ledger.ReadColumn(ctx, domain.LedgerKeyColumn, domain.LedgerFirstDataRow)
	if err != nil {
		return nil, fmt.Errorf("read ledger key column: %w", err)
	}

	links := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		links[value] = struct{}{}
	}
	return links, nil
}

// LedgerWriter appends metadata rows. It never updates existing rows.
type LedgerWriter struct {
	ledger ports.Ledger
}

func NewLedgerWriter(ledger ports.Ledger) *LedgerWriter {
	return &LedgerWriter{ledger: ledger}
}

func (w *LedgerWriter) Append(ctx context.Context, file domain.SourceFile, record domain.MetadataRecord) error {
	if err := w.ledger.AppendRow(ctx, record.LedgerRow(file.URL)); err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	return nil
}
