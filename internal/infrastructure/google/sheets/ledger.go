package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// Ledger implements ports.Ledger on one tab of a spreadsheet.
type Ledger struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

func New(ctx context.Context, httpClient *http.Client, spreadsheetID, tab string, clientOptions ...option.ClientOption) (*Ledger, error) {
	if strings.TrimSpace(spreadsheetID) == "" || strings.TrimSpace(tab) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sheets ledger", errors.New("spreadsheet id and tab are required"))
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, clientOptions...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Ledger{svc: svc, spreadsheetID: spreadsheetID, tab: tab}, nil
}

func (l *Ledger) ReadColumn(ctx context.Context, column, firstRow int) ([]string, error) {
	name, err := excelize.ColumnNumberToName(column)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sheets read column", err)
	}
	rng := fmt.Sprintf("%s!%s%d:%s", quoteTab(l.tab), name, firstRow, name)

	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError("sheets read column", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(resp.Values[0]))
	for _, v := range resp.Values[0] {
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}

func (l *Ledger) AppendRow(ctx context.Context, values []string) error {
	last, err := excelize.ColumnNumberToName(max(len(values), 1))
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "sheets append row", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}

	_, err = l.svc.Spreadsheets.Values.Append(l.spreadsheetID, fmt.Sprintf("%s!A:%s", quoteTab(l.tab), last), &sheets.ValueRange{
		Values: [][]any{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("sheets append row", err)
	}
	return nil
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func wrapAPIError(operation string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError && apiErr.Code != http.StatusTooManyRequests {
		return domain.WrapError(domain.ErrUpstreamStatus, operation, err)
	}
	return domain.WrapError(domain.ErrTemporary, operation, err)
}
