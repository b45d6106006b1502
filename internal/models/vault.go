// Package models defines the shared value types of dayvault.
package models

import "time"

// VaultFile is a lightweight listing item for a file in the output vault.
type VaultFile struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run status values.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one recorded conversion.
type Run struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Output       string    `json:"output"`
	Dedup        bool      `json:"dedup"`
	Converted    int       `json:"converted"`
	Skipped      int       `json:"skipped"`
	Attachments  int       `json:"attachments"`
	MissingMedia int       `json:"missing_media"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Finish stamps the end time and the outcome derived from err.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	r.Status = RunSucceeded
	r.Error = ""
	if err != nil {
		r.Status, r.Error = RunFailed, err.Error()
	}
}
