package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"tunecrate/internal/progress"
	"tunecrate/pkg/models"
)

// ErrBusy is returned when a job is already running. One transfer loop at
// a time keeps progress accounting simple and is polite to the upstreams.
var ErrBusy = errors.New("download already in progress")

// Recorder persists terminal per-item outcomes. Implemented by the
// history repo; nil disables recording.
type Recorder interface {
	Add(ctx context.Context, entry models.HistoryEntry) error
}

// Display delays before a finished job's state resets to idle.
const (
	successResetDelay = 2 * time.Second
	errorResetDelay   = 3 * time.Second
)

// Manager drives download jobs: resolve, fetch, spool to disk, and for
// batches fold the successes into a single zip archive. Items are
// processed strictly sequentially; one item's failure is logged, counted
// and skipped, never aborting the batch.
type Manager struct {
	Fetcher  *Fetcher
	SpoolDir string
	History  Recorder

	// Emit receives ordered progress events; percent is monotonic per
	// job. Wired to the hub's BroadcastJSON in the server.
	Emit func(progress.DownloadEvent)

	// Reset delays, overridable in tests.
	SuccessDelay time.Duration
	ErrorDelay   time.Duration

	mu       sync.Mutex
	job      *job
	lastPath string
	lastName string
}

type itemState struct {
	item   models.Item
	state  models.ItemState
	reason string
}

type job struct {
	id       string
	archive  bool
	states   []*itemState
	status   models.JobStatus
	percent  float64
	current  string
	done     int
	skipped  int
	errMsg   string
	fileName string
}

func NewManager(fetcher *Fetcher, spoolDir string, history Recorder) *Manager {
	return &Manager{
		Fetcher:      fetcher,
		SpoolDir:     spoolDir,
		History:      history,
		SuccessDelay: successResetDelay,
		ErrorDelay:   errorResetDelay,
	}
}

// Start begins a download job for the given items. A single item without
// an archive request produces one file; anything else produces a zip of
// the successes. Returns ErrBusy while a job is running.
func (m *Manager) Start(items []models.Item, archive bool) (models.JobSnapshot, error) {
	if len(items) == 0 {
		return models.JobSnapshot{}, errors.New("no items to download")
	}

	m.mu.Lock()
	if m.job != nil && m.job.status == models.JobDownloading {
		m.mu.Unlock()
		return models.JobSnapshot{}, ErrBusy
	}

	j := &job{
		id:      uuid.NewString(),
		archive: archive || len(items) > 1,
		status:  models.JobDownloading,
	}
	for _, it := range items {
		j.states = append(j.states, &itemState{item: it, state: models.ItemPending})
	}
	m.job = j
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if j.archive {
		go m.runBatch(j)
	} else {
		go m.runSingle(j)
	}
	return snap, nil
}

// Snapshot returns the current job state, or an idle skeleton when no job
// exists.
func (m *Manager) Snapshot() models.JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Dismiss resets a terminal job to idle immediately instead of waiting
// out the display delay.
func (m *Manager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job != nil && m.job.status != models.JobDownloading {
		m.job.status = models.JobIdle
	}
}

// LastFile returns the path and name of the most recent finished output.
func (m *Manager) LastFile() (path, name string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPath, m.lastName, m.lastPath != ""
}

func (m *Manager) runSingle(j *job) {
	st := j.states[0]
	item := st.item

	if !item.Downloadable(m.Fetcher.VideoBackendConfigured()) {
		m.failJob(j, st, fmt.Sprintf("%s items are not downloadable", item.Source))
		return
	}

	m.setCurrent(j, item.Title)

	data, err := m.Fetcher.Fetch(context.Background(), item, func(stage string) {
		switch stage {
		case StageResolve:
			m.setItemState(j, st, models.ItemResolving, "")
			m.setProgress(j, 10, StageResolve, item.Title)
		case StageFetch:
			m.setItemState(j, st, models.ItemFetching, "")
			m.setProgress(j, 50, StageFetch, item.Title)
		}
	})
	if err != nil {
		m.record(item, "", 0, err)
		m.failJob(j, st, err.Error())
		return
	}

	name := OutputName(item)
	m.setProgress(j, 90, StagePrepare, item.Title)

	path, err := m.spool(name, func(f *os.File) error {
		_, werr := f.Write(data)
		return werr
	})
	if err != nil {
		m.record(item, name, 0, err)
		m.failJob(j, st, err.Error())
		return
	}

	m.record(item, name, int64(len(data)), nil)
	m.setItemState(j, st, models.ItemDone, "")
	m.mu.Lock()
	j.done++
	m.mu.Unlock()
	m.finishJob(j, path, name)
}

func (m *Manager) runBatch(j *job) {
	type blob struct {
		name string
		data []byte
	}

	// Partition by downloadability; view-only items never enter the loop.
	videoOK := m.Fetcher.VideoBackendConfigured()
	var queue []*itemState
	for _, st := range j.states {
		if st.item.Downloadable(videoOK) {
			queue = append(queue, st)
			continue
		}
		m.setItemState(j, st, models.ItemFailed, "not downloadable")
	}
	if len(queue) == 0 {
		m.failJob(j, nil, "no downloadable items in selection")
		return
	}

	total := len(queue)
	var blobs []blob
	names := make(map[string]int)

	for _, st := range queue {
		item := st.item
		m.setCurrent(j, item.Title)

		data, err := m.Fetcher.Fetch(context.Background(), item, func(stage string) {
			switch stage {
			case StageResolve:
				m.setItemState(j, st, models.ItemResolving, "")
			case StageFetch:
				m.setItemState(j, st, models.ItemFetching, "")
			}
		})

		if err != nil {
			// Log and skip: one broken item must not kill the batch.
			log.Printf("[download] skipping %s/%s: %v", item.Source, item.ID, err)
			m.setItemState(j, st, models.ItemFailed, err.Error())
			m.record(item, "", 0, err)
			m.bump(j, false, total)
			continue
		}

		name := OutputName(item)
		if n := names[name]; n > 0 {
			name = SanitizeFilename(fmt.Sprintf("%s - %s (%d).mp3", item.Artist, item.Title, n+1))
		}
		names[OutputName(item)]++

		blobs = append(blobs, blob{name: name, data: data})
		m.setItemState(j, st, models.ItemDone, "")
		m.record(item, name, int64(len(data)), nil)
		m.bump(j, true, total)
	}

	if len(blobs) == 0 {
		m.failJob(j, nil, fmt.Sprintf("all %d items failed", total))
		return
	}

	// Archive assembly owns the trailing 10% of the progress band.
	zipName := SanitizeFilename("tunecrate-" + time.Now().Format("20060102-150405") + ".zip")
	path, err := m.spool(zipName, func(f *os.File) error {
		zw := zip.NewWriter(f)
		for i, b := range blobs {
			w, zerr := zw.Create(b.name)
			if zerr != nil {
				return zerr
			}
			if _, zerr := w.Write(b.data); zerr != nil {
				return zerr
			}
			m.setProgress(j, 90+float64(i+1)/float64(len(blobs))*10, StageArchive, b.name)
		}
		return zw.Close()
	})
	if err != nil {
		// Archive encoding failing is the one hard batch error.
		m.failJob(j, nil, fmt.Sprintf("create archive: %v", err))
		return
	}

	m.finishJob(j, path, zipName)
}

// spool writes a file into the spool directory via fn.
func (m *Manager) spool(name string, fn func(*os.File) error) (string, error) {
	if err := os.MkdirAll(m.SpoolDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure spool dir: %w", err)
	}
	path := filepath.Join(m.SpoolDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

func (m *Manager) record(item models.Item, fileName string, size int64, err error) {
	if m.History == nil {
		return
	}
	entry := models.HistoryEntry{
		Source:   item.Source,
		ItemID:   item.ID,
		Title:    item.Title,
		Artist:   item.Artist,
		FileName: fileName,
		Bytes:    size,
		Status:   "done",
		At:       time.Now().UTC(),
	}
	if err != nil {
		entry.Status = "failed"
		entry.Error = err.Error()
	}
	if aerr := m.History.Add(context.Background(), entry); aerr != nil {
		log.Printf("[download] record history: %v", aerr)
	}
}

// bump advances batch progress after an item reaches a terminal state.
// The first 90% belongs to the fetch loop; zip assembly gets the rest.
func (m *Manager) bump(j *job, ok bool, total int) {
	m.mu.Lock()
	if ok {
		j.done++
	} else {
		j.skipped++
	}
	j.percent = float64(j.done+j.skipped) / float64(total) * 90
	skipped := j.skipped
	pct := j.percent
	current := j.current
	m.mu.Unlock()

	m.emit(progress.DownloadEvent{
		Type:    progress.DownloadProgressEvent,
		JobID:   j.id,
		Stage:   StageFetch,
		Item:    current,
		Percent: pct,
		Skipped: skipped,
		Status:  models.JobDownloading,
		At:      time.Now().UTC(),
	})
}

func (m *Manager) setProgress(j *job, pct float64, stage, item string) {
	m.mu.Lock()
	if pct > j.percent {
		j.percent = pct
	}
	pct = j.percent
	m.mu.Unlock()

	m.emit(progress.DownloadEvent{
		Type:    progress.DownloadProgressEvent,
		JobID:   j.id,
		Stage:   stage,
		Item:    item,
		Percent: pct,
		Status:  models.JobDownloading,
		At:      time.Now().UTC(),
	})
}

func (m *Manager) setCurrent(j *job, title string) {
	m.mu.Lock()
	j.current = title
	m.mu.Unlock()
}

func (m *Manager) setItemState(j *job, st *itemState, state models.ItemState, reason string) {
	m.mu.Lock()
	st.state = state
	st.reason = reason
	m.mu.Unlock()
}

func (m *Manager) finishJob(j *job, path, name string) {
	m.mu.Lock()
	j.status = models.JobComplete
	j.percent = 100
	j.fileName = name
	j.current = ""
	m.lastPath = path
	m.lastName = name
	skipped := j.skipped
	m.mu.Unlock()

	m.emit(progress.DownloadEvent{
		Type:    progress.DownloadDoneEvent,
		JobID:   j.id,
		Percent: 100,
		Skipped: skipped,
		Status:  models.JobComplete,
		At:      time.Now().UTC(),
	})
	m.scheduleReset(j, m.SuccessDelay)
}

func (m *Manager) failJob(j *job, st *itemState, msg string) {
	m.mu.Lock()
	if st != nil {
		st.state = models.ItemFailed
		st.reason = msg
	}
	j.status = models.JobError
	j.errMsg = msg
	j.current = ""
	m.mu.Unlock()

	m.emit(progress.DownloadEvent{
		Type:   progress.DownloadErrorEvent,
		JobID:  j.id,
		Error:  msg,
		Status: models.JobError,
		At:     time.Now().UTC(),
	})
	m.scheduleReset(j, m.ErrorDelay)
}

// scheduleReset flips a terminal job back to idle after the display
// delay, unless the user dismissed it or a new job replaced it.
func (m *Manager) scheduleReset(j *job, delay time.Duration) {
	time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.job == j && j.status != models.JobDownloading {
			j.status = models.JobIdle
		}
	})
}

func (m *Manager) emit(ev progress.DownloadEvent) {
	if m.Emit != nil {
		m.Emit(ev)
	}
}

func (m *Manager) snapshotLocked() models.JobSnapshot {
	if m.job == nil {
		return models.JobSnapshot{Status: models.JobIdle}
	}

	j := m.job
	snap := models.JobSnapshot{
		ID:           j.id,
		Status:       j.status,
		Progress:     j.percent,
		CurrentTitle: j.current,
		Archive:      j.archive,
		Done:         j.done,
		Skipped:      j.skipped,
		Error:        j.errMsg,
		FileName:     j.fileName,
	}
	for _, st := range j.states {
		snap.Items = append(snap.Items, models.ItemProgress{
			Key:    st.item.Key(),
			Title:  st.item.Title,
			State:  st.state,
			Reason: st.reason,
		})
	}
	return snap
}
