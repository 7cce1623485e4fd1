package session

import (
	"context"
	"fmt"
	"sync"

	"ragchat-cli/cmd/backend"
	"ragchat-cli/cmd/utils"
)

// UploadStatus is the upload lifecycle tag.
type UploadStatus int

const (
	UploadIdle UploadStatus = iota
	UploadUploading
	UploadSucceeded
	UploadFailed
)

func (s UploadStatus) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case UploadUploading:
		return "uploading"
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadSnapshot is a consistent copy of the upload state.
type UploadSnapshot struct {
	Selected *FileHandle
	Status   UploadStatus
	// Result is non-nil only when Status is UploadSucceeded.
	Result *backend.UploadResult
	// LastError is the cause of the most recent failure, for logs and verbose output.
	LastError error
}

// UploadController owns the selected file and the upload lifecycle.
type UploadController struct {
	uploader Uploader

	mu       sync.Mutex
	selected *FileHandle
	status   UploadStatus
	result   *backend.UploadResult
	lastErr  error
	attempts int
	listener Listener
}

// NewUploadController returns an idle controller with no file selected.
func NewUploadController(uploader Uploader) *UploadController {
	return &UploadController{uploader: uploader}
}

// SetListener registers the single receiver of upload events.
func (u *UploadController) SetListener(l Listener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listener = l
}

// SelectFile records f as the file to upload. It never starts an upload and never
// changes the status, even while an upload is in flight.
func (u *UploadController) SelectFile(f FileHandle) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selected = &f
	utils.LogDebugf("upload: selected %s", f.Describe())
}

// StartUpload uploads the selected file in the background. It returns nil without
// doing anything when no file is selected or an upload is already in flight.
// Otherwise the returned channel is closed once the outcome has been applied and
// its event delivered.
func (u *UploadController) StartUpload(ctx context.Context) <-chan struct{} {
	u.mu.Lock()
	if u.selected == nil || u.status == UploadUploading {
		u.mu.Unlock()
		return nil
	}
	file := *u.selected
	u.attempts++
	attempt := u.attempts
	u.status = UploadUploading
	u.result = nil
	u.lastErr = nil
	listener := u.listener
	u.mu.Unlock()

	emit(listener, Event{Kind: EventUploadStarted, File: &file, Attempt: attempt})

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := u.send(ctx, file)

		u.mu.Lock()
		if err != nil {
			u.status = UploadFailed
			u.result = nil
			u.lastErr = err
		} else {
			u.status = UploadSucceeded
			u.result = res
		}
		listener := u.listener
		u.mu.Unlock()

		if err != nil {
			utils.LogDebugf("upload: %s failed: %v", file.Name, err)
			emit(listener, Event{Kind: EventUploadFailed, File: &file, Err: err, Attempt: attempt})
			return
		}
		utils.LogDebugf("upload: %s indexed as %s (%d chunks)", file.Name, res.DocID, res.Chunks)
		emit(listener, Event{Kind: EventUploaded, File: &file, Result: res, Attempt: attempt})
	}()
	return done
}

func (u *UploadController) send(ctx context.Context, file FileHandle) (*backend.UploadResult, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()
	return u.uploader.Upload(ctx, file.Name, file.ContentType, rc)
}

// Snapshot returns a copy of the current state.
func (u *UploadController) Snapshot() UploadSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	snap := UploadSnapshot{Status: u.status, Result: u.result, LastError: u.lastErr}
	if u.selected != nil {
		f := *u.selected
		snap.Selected = &f
	}
	return snap
}

// StatusText renders the status line shown under the upload control.
func (u *UploadController) StatusText() string {
	return u.Snapshot().StatusText()
}

// StatusText renders the status line for this snapshot.
func (s UploadSnapshot) StatusText() string {
	switch s.Status {
	case UploadUploading:
		return "Uploading..."
	case UploadSucceeded:
		chunks := 0
		if s.Result != nil {
			chunks = s.Result.Chunks
		}
		return fmt.Sprintf("✅ Uploaded (%d chunks)", chunks)
	case UploadFailed:
		return "❌ Upload failed"
	default:
		return ""
	}
}
