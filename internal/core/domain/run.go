package domain

import (
	"fmt"
	"time"
)

type OutcomeStatus string

const (
	OutcomeProcessed        OutcomeStatus = "processed"
	OutcomeSkippedTransient OutcomeStatus = "skipped_transient"
	OutcomeSkippedDuplicate OutcomeStatus = "skipped_duplicate"
	OutcomeSkippedLeased    OutcomeStatus = "skipped_leased"
	OutcomeExtractionFailed OutcomeStatus = "extraction_failed"
	OutcomeTextTooShort     OutcomeStatus = "text_too_short"
	OutcomeAIFailed         OutcomeStatus = "ai_failed"
	OutcomeLedgerFailed     OutcomeStatus = "ledger_failed"
	OutcomePanicked         OutcomeStatus = "panicked"
)

// Attempted reports whether the outcome counts towards the attempted total.
func (s OutcomeStatus) Attempted() bool {
	switch s {
	case OutcomeSkippedTransient, OutcomeSkippedDuplicate, OutcomeSkippedLeased:
		return false
	default:
		return true
	}
}

type FileOutcome struct {
	FileID   string        `json:"file_id"`
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Status   OutcomeStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Listed     int           `json:"listed"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Skipped    int           `json:"skipped"`
	Outcomes   []FileOutcome `json:"outcomes"`
}

func (r *RunReport) Add(outcome FileOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch {
	case !outcome.Status.Attempted():
		r.Skipped++
	case outcome.Status == OutcomeProcessed:
		r.Attempted++
		r.Succeeded++
	default:
		r.Attempted++
	}
}

// Summary is the user-facing completion message.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("Processing complete. Attempted %d new file(s).", r.Attempted)
}
