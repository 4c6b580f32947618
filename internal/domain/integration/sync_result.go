package integration

import "time"

// SyncStatus represents the synchronization status
type SyncStatus string

const (
	// SyncStatusSuccess indicates every attempted item was synced or skipped
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some items failed
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates every attempted item failed
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// SyncResult represents the result of a sync run
type SyncResult struct {
	Status       SyncStatus
	TotalCount   int
	SuccessCount int
	SkippedCount int
	FailedCount  int
	FailedItems  []SyncFailure
	SyncedAt     time.Time
}

// SyncFailure represents a failed sync item
type SyncFailure struct {
	ItemID       string
	ErrorMessage string
}

// NewSyncResult creates an empty result
func NewSyncResult() *SyncResult {
	return &SyncResult{Status: SyncStatusSuccess}
}

// RecordSuccess counts a synced item
func (r *SyncResult) RecordSuccess() {
	r.TotalCount++
	r.SuccessCount++
}

// RecordSkipped counts an item that needed no remote call
func (r *SyncResult) RecordSkipped() {
	r.TotalCount++
	r.SkippedCount++
}

// RecordFailure counts a failed item
func (r *SyncResult) RecordFailure(itemID string, err error) {
	r.TotalCount++
	r.FailedCount++
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.FailedItems = append(r.FailedItems, SyncFailure{ItemID: itemID, ErrorMessage: msg})
}

// Finish derives the status and stamps the completion time
func (r *SyncResult) Finish() *SyncResult {
	attempted := r.SuccessCount + r.FailedCount
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.FailedCount == attempted:
		r.Status = SyncStatusFailed
	default:
		r.Status = SyncStatusPartial
	}
	r.SyncedAt = time.Now()
	return r
}
