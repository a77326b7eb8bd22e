package models

import "time"

// ItemState is the per-item download lifecycle.
type ItemState string

const (
	ItemPending   ItemState = "pending"
	ItemResolving ItemState = "resolving"
	ItemFetching  ItemState = "fetching"
	ItemDone      ItemState = "done"
	ItemFailed    ItemState = "failed"
)

// JobStatus is the overall download job lifecycle.
type JobStatus string

const (
	JobIdle        JobStatus = "idle"
	JobDownloading JobStatus = "downloading"
	JobComplete    JobStatus = "complete"
	JobError       JobStatus = "error"
)

// ItemProgress is the per-item entry inside a job snapshot.
type ItemProgress struct {
	Key    ItemKey   `json:"key"`
	Title  string    `json:"title"`
	State  ItemState `json:"state"`
	Reason string    `json:"reason,omitempty"` // failure reason, if failed
}

// JobSnapshot is a point-in-time copy of a download job for the HTTP layer.
type JobSnapshot struct {
	ID           string         `json:"id"`
	Status       JobStatus      `json:"status"`
	Progress     float64        `json:"progress"` // 0..100
	CurrentTitle string         `json:"current_title,omitempty"`
	Archive      bool           `json:"archive"`
	Items        []ItemProgress `json:"items"`
	Done         int            `json:"done"`
	Skipped      int            `json:"skipped"`
	Error        string         `json:"error,omitempty"`
	FileName     string         `json:"file_name,omitempty"` // set when finished output exists
}

// HistoryEntry is one row of the download history.
type HistoryEntry struct {
	ID       int64     `json:"id"`
	Source   Source    `json:"source"`
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	FileName string    `json:"file_name"`
	Bytes    int64     `json:"bytes"`
	Status   string    `json:"status"` // "done" or "failed"
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}
