package domain

import "time"

// FailedRow represents a scraped row that failed validation or processing
type FailedRow struct {
	ID          string          `json:"id"`
	League      LeagueID        `json:"league"`
	Season      string          `json:"season"`
	Kind        string          `json:"kind"` // failure kind tag from classification
	Raw         RawFixture      `json:"raw"`
	Error       string          `json:"error_msg"`
	RetryCount  int             `json:"retry_count"`
	Status      FailedRowStatus `json:"status"`
	LastAttempt time.Time       `json:"last_attempt"`
	CreatedAt   time.Time       `json:"created_at"`
}

type FailedRowStatus string

const (
	FailedRowStatusPending  FailedRowStatus = "pending"
	FailedRowStatusResolved FailedRowStatus = "resolved"
	FailedRowStatusIgnored  FailedRowStatus = "ignored"
)
