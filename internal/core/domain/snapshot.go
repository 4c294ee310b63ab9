package domain

import "time"

// Snapshot records the outcome of one completed scrape run for a league/season.
type Snapshot struct {
	ID           string    `json:"id"`
	League       LeagueID  `json:"league"`
	Season       string    `json:"season"`
	RowsTotal    int       `json:"rows_total"`
	RowsValid    int       `json:"rows_valid"`
	RowsFailed   int       `json:"rows_failed"`
	QualityScore float64   `json:"quality_score"` // 0-100
	CSVPath      string    `json:"csv_path"`
	ScrapedAt    time.Time `json:"scraped_at"`
}
