package models

import (
	"fmt"
	"time"
)

// RunSummary reports the outcome of one pipeline run.
type RunSummary struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Found     int       `json:"found"`    // candidates discovered on the catalog
	Filtered  int       `json:"filtered"` // candidates that survived dedup (and the limit)
	New       int       `json:"new"`      // records appended this run
	Failed    int       `json:"failed"`   // appended records carrying an error
	Total     int       `json:"total"`    // corpus size after the run
}

func (s RunSummary) String() string {
	return fmt.Sprintf("%d total (%d new)", s.Total, s.New)
}

// Run statuses kept in the run ledger.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRecord is a ledger row: a summary plus how the run ended.
type RunRecord struct {
	RunSummary
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RecordFilters holds query parameters for listing indexed records.
type RecordFilters struct {
	Topic    string
	Industry string
	Product  string
	Limit    int
	Offset   int
}

// Pagination describes one page of a listing.
type Pagination struct {
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
	TotalRecords int `json:"total_records"`
}

// RecordsResponse is the payload of the records endpoint.
type RecordsResponse struct {
	Data       []DetailRecord `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
