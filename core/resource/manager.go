package resource

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-resources/core"
)

// Options configures a Manager.
type Options struct {
	// AutoLoad starts a preview as soon as the manager is bound to a non-empty file name.
	AutoLoad bool
	// AutoCleanup releases the local handle when the consumer calls Close.
	AutoCleanup bool
	// OnChange is called after every state or progress change, outside the manager's lock.
	// Calls from concurrent operations are not ordered.
	OnChange func(Output)
	Logger   core.Logger
}

// Manager owns the lifecycle of one resource: its fetch, its local handle and its error state.
// At most one local handle is live at any time. All methods are safe for concurrent use.
type Manager struct {
	fileName string
	fetcher  Fetcher
	opts     Options
	logger   core.Logger
	wg       sync.WaitGroup

	mu               sync.Mutex
	state            State
	blob             []byte
	uri              string
	mimeType         string
	sizeBytes        int64
	resolvedFileName string
	progress         int
	errMsg           string
	closed           bool
	version          uint64

	// each operation is tagged with a sequence number; results carrying a stale one are dropped
	previewSeq     uint64
	previewCancel  context.CancelFunc
	downloadSeq    uint64
	downloadCancel context.CancelFunc
}

// NewManager returns an idle manager for fileName. It never starts work on its own.
func NewManager(fileName string, fetcher Fetcher, opts Options) *Manager {
	m := &Manager{
		fileName: fileName,
		fetcher:  fetcher,
		opts:     opts,
		logger:   opts.Logger,
	}
	if m.logger == nil {
		m.logger = core.NopLogger
	}
	return m
}

// Bind returns a manager for fileName and, with Options.AutoLoad, starts its preview in the background.
// Use Wait to block until that preview settles.
func Bind(ctx context.Context, fileName string, fetcher Fetcher, opts Options) *Manager {
	m := NewManager(fileName, fetcher, opts)
	if opts.AutoLoad && fileName != "" {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			_ = m.Preview(ctx)
		}()
	}
	return m
}

// Rebind tears m down and returns a manager bound to fileName.
// m is returned unchanged when fileName is already its file name.
func (m *Manager) Rebind(ctx context.Context, fileName string) *Manager {
	if fileName == m.fileName {
		return m
	}
	m.Cancel()
	m.Cleanup()
	m.Close()
	return Bind(ctx, fileName, m.fetcher, m.opts)
}

// Wait blocks until background work started by Bind has settled.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) FileName() string { return m.fileName }

// Output returns a snapshot of the current state.
func (m *Manager) Output() Output {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputLocked()
}

// Blob returns a copy of the loaded content, or nil when nothing is loaded.
func (m *Manager) Blob() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil
	}
	return append([]byte(nil), m.blob...)
}

// Preview fetches the resource and installs it as the current local handle.
// Any in-flight preview is superseded and the current handle is released first.
// A cancelled or superseded preview returns nil and leaves no error behind.
func (m *Manager) Preview(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.fileName == "" {
		m.mu.Unlock()
		return ErrNoFileName
	}
	if m.previewCancel != nil {
		m.previewCancel()
	}
	m.releaseLocked()
	m.previewSeq++
	seq := m.previewSeq
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.previewCancel = cancel
	m.state = StateLoading
	m.mimeType, m.sizeBytes, m.resolvedFileName = "", 0, ""
	m.errMsg = ""
	out := m.changedLocked()
	m.mu.Unlock()
	m.notify(out)

	res, err := m.fetcher.FetchPreview(pctx, m.fileName)
	if err == nil && pctx.Err() != nil {
		// cancelled after the response was decoded
		m.fetcher.Release(res.LocalHandleURI)
		err = cancelledError(m.fileName, pctx.Err())
	}

	m.mu.Lock()
	if seq != m.previewSeq {
		m.mu.Unlock()
		if err == nil {
			m.fetcher.Release(res.LocalHandleURI)
		}
		m.logger.Debug("stale resource preview dropped", map[string]interface{}{"file": m.fileName})
		return nil
	}
	m.previewCancel = nil

	switch {
	case err == nil:
		m.blob = res.Blob
		m.uri = res.LocalHandleURI
		m.mimeType = res.MimeType
		m.sizeBytes = res.SizeBytes
		m.resolvedFileName = res.ResolvedFileName
		m.errMsg = ""
		m.state = StateLoaded
	case IsCancelled(err):
		m.state = StateIdle
		err = nil
	default:
		m.errMsg = err.Error()
		m.state = StateError
		m.logger.Warn("resource preview failed", err, map[string]interface{}{"file": m.fileName})
	}
	out = m.changedLocked()
	m.mu.Unlock()
	m.notify(out)
	return err
}

// Download saves the resource under customName (or the server provided name).
// It runs in its own cancellation scope, independent of Preview, and resets progress to 0 once settled.
// A cancelled download returns a zero result and a nil error.
func (m *Manager) Download(ctx context.Context, customName string) (DownloadResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return DownloadResult{}, ErrClosed
	}
	if m.fileName == "" {
		m.mu.Unlock()
		return DownloadResult{}, ErrNoFileName
	}
	if m.downloadCancel != nil {
		m.downloadCancel()
	}
	m.downloadSeq++
	seq := m.downloadSeq
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.downloadCancel = cancel
	m.state = StateDownloading
	m.progress = 0
	m.errMsg = ""
	out := m.changedLocked()
	m.mu.Unlock()
	m.notify(out)

	onProgress := func(pct int) {
		m.mu.Lock()
		if seq != m.downloadSeq {
			m.mu.Unlock()
			return
		}
		m.progress = pct
		out := m.changedLocked()
		m.mu.Unlock()
		m.notify(out)
	}
	res, err := m.fetcher.Download(dctx, m.fileName, customName, onProgress)

	m.mu.Lock()
	if seq != m.downloadSeq {
		// superseded or cancelled: whoever bumped the sequence already settled the state
		m.mu.Unlock()
		return DownloadResult{}, nil
	}
	m.downloadCancel = nil
	m.progress = 0

	switch {
	case err == nil:
		if m.state == StateDownloading {
			m.state = m.restingStateLocked()
		}
	case IsCancelled(err):
		if m.state == StateDownloading {
			m.state = m.cancelledStateLocked()
		}
		res, err = DownloadResult{}, nil
	default:
		m.errMsg = err.Error()
		m.state = StateError
		m.logger.Warn("resource download failed", err, map[string]interface{}{"file": m.fileName})
	}
	out = m.changedLocked()
	m.mu.Unlock()
	m.notify(out)
	return res, err
}

// CheckExists asks the backend whether the resource exists. It never changes the manager's state.
func (m *Manager) CheckExists(ctx context.Context) (ExistsResult, error) {
	if m.fileName == "" {
		return ExistsResult{}, ErrNoFileName
	}
	return m.fetcher.CheckExists(ctx, m.fileName)
}

// Cancel aborts the in-flight preview and download, if any. It is a no-op when nothing is in flight.
func (m *Manager) Cancel() {
	m.mu.Lock()
	changed := m.cancelLocked()
	out := m.snapshotLocked(changed)
	m.mu.Unlock()
	if changed {
		m.notify(out)
	}
}

// Cleanup releases the local handle and drops the blob. Calling it again is a no-op.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	changed := m.releaseLocked()
	if m.state == StateLoaded {
		m.state = StateIdle
		changed = true
	}
	out := m.snapshotLocked(changed)
	m.mu.Unlock()
	if changed {
		m.notify(out)
	}
}

// Reset cancels in-flight work, releases the handle and clears metadata, error and progress.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.cancelLocked()
	m.releaseLocked()
	m.clearLocked()
	out := m.changedLocked()
	m.mu.Unlock()
	m.notify(out)
}

// Close is called when the consumer lets go of the manager. In-flight work is cancelled and,
// with Options.AutoCleanup, the local handle is released. Preview and Download fail with
// ErrClosed afterwards; Cleanup and Reset keep working.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	changed := m.cancelLocked()
	if m.opts.AutoCleanup {
		m.releaseLocked()
		m.clearLocked()
		changed = true
	}
	out := m.snapshotLocked(changed)
	m.mu.Unlock()
	if changed {
		m.notify(out)
	}
}

// cancelLocked aborts in-flight work and settles the state it left behind.
func (m *Manager) cancelLocked() bool {
	var changed bool
	if m.previewCancel != nil {
		m.previewCancel()
		m.previewCancel = nil
		m.previewSeq++
		if m.state == StateLoading {
			m.state = StateIdle
			changed = true
		}
	}
	if m.downloadCancel != nil {
		m.downloadCancel()
		m.downloadCancel = nil
		m.downloadSeq++
		m.progress = 0
		changed = true
		if m.state == StateDownloading {
			m.state = m.cancelledStateLocked()
		}
	}
	return changed
}

// releaseLocked revokes the live handle, if any, and drops the blob.
func (m *Manager) releaseLocked() bool {
	if m.uri == "" && m.blob == nil {
		return false
	}
	if m.uri != "" {
		m.fetcher.Release(m.uri)
	}
	m.uri = ""
	m.blob = nil
	return true
}

func (m *Manager) clearLocked() {
	m.mimeType = ""
	m.sizeBytes = 0
	m.resolvedFileName = ""
	m.progress = 0
	m.errMsg = ""
	m.state = StateIdle
}

// restingStateLocked is the state a finished download returns to.
func (m *Manager) restingStateLocked() State {
	if m.uri != "" {
		return StateLoaded
	}
	return StateIdle
}

func (m *Manager) cancelledStateLocked() State {
	if m.uri != "" {
		return StateLoaded
	}
	return StateCancelled
}

// changedLocked records a change and returns the snapshot to notify.
func (m *Manager) changedLocked() Output {
	m.version++
	return m.outputLocked()
}

func (m *Manager) snapshotLocked(changed bool) Output {
	if changed {
		return m.changedLocked()
	}
	return m.outputLocked()
}

func (m *Manager) outputLocked() Output {
	return Output{
		Version:          m.version,
		FileName:         m.fileName,
		LocalHandleURI:   m.uri,
		MimeType:         m.mimeType,
		SizeBytes:        m.sizeBytes,
		ResolvedFileName: m.resolvedFileName,
		State:            m.state,
		ProgressPercent:  m.progress,
		ErrorMessage:     m.errMsg,
	}
}

func (m *Manager) notify(out Output) {
	if m.opts.OnChange != nil {
		m.opts.OnChange(out)
	}
}
