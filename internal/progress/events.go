package progress

import (
	"time"

	"tunecrate/pkg/models"
)

const (
	DownloadProgressEvent = "download.progress"
	DownloadDoneEvent     = "download.done"
	DownloadErrorEvent    = "download.error"
	CartUpdateEvent       = "cart.update"
)

// DownloadEvent is one progress tick of a download job. Events for a job
// are emitted in order and Percent never decreases.
type DownloadEvent struct {
	Type    string           `json:"type"`
	JobID   string           `json:"job_id"`
	Stage   string           `json:"stage"`             // resolve, fetch, prepare, archive
	Item    string           `json:"item,omitempty"`    // current item title
	Percent float64          `json:"percent"`           // 0..100
	Skipped int              `json:"skipped,omitempty"` // batch items skipped so far
	Error   string           `json:"error,omitempty"`
	Status  models.JobStatus `json:"status"`
	At      time.Time        `json:"at"`
}

// CartEvent notifies connected clients that the selection set changed.
type CartEvent struct {
	Type  string    `json:"type"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}
