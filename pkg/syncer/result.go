package syncer

import "time"

// Status is the terminal state of one user within a pass
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not_found"
	StatusParseFailed Status = "parse_failed"
	StatusFetchFailed Status = "fetch_failed"
)

// UserSyncResult summarises one user's outcome for one pass
type UserSyncResult struct {
	Username string
	Status   Status
	// NewItems counts feed URLs not seen before this pass
	NewItems int
	// Downloaded counts new items actually written to disk
	Downloaded int
	// Skipped counts new items whose download failed
	Skipped   int
	CheckedAt time.Time
	Reason    string
	Files     []string
}

// OK reports whether the user's feed was fetched and processed
func (r UserSyncResult) OK() bool {
	return r.Status == StatusOK
}

// Totals sums new and downloaded items across rows
func Totals(rows []UserSyncResult) (newItems, downloaded int) {
	for _, r := range rows {
		newItems += r.NewItems
		downloaded += r.Downloaded
	}
	return newItems, downloaded
}
