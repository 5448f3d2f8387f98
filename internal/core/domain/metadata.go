package domain

import "strings"

type MetadataRecord struct {
	Date       string   `json:"date"`
	Speaker    string   `json:"speaker"`
	Title      string   `json:"title"`
	Theme      string   `json:"theme"`
	References []string `json:"references"`
}

const (
	LedgerColumns      = 12
	LedgerKeyColumn    = 10
	LedgerFirstDataRow = 2
)

// LedgerHeader labels a freshly created ledger. Blank-valued columns are filled in by hand.
var LedgerHeader = []string{
	"Date",
	"Speaker",
	"Service",
	"Series",
	"Notes",
	"Title",
	"Theme",
	"Outline",
	"References",
	"Source URL",
	"Audio Link",
	"Video Link",
}

// LedgerRow renders the record in ledger column order with the source URL as the key column.
func (m MetadataRecord) LedgerRow(sourceURL string) []string {
	refs := make([]string, 0, len(m.References))
	for _, ref := range m.References {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	return []string{
		m.Date,
		m.Speaker,
		"",
		"",
		"",
		m.Title,
		m.Theme,
		"",
		strings.Join(refs, ", "),
		sourceURL,
		"",
		"",
	}
}
