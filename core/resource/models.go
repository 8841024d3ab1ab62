package resource

import "fmt"

// State is the lifecycle state of a Manager.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateDownloading
	StateError
	StateCancelled
)

var stateNames = [...]string{"Idle", "Loading", "Loaded", "Downloading", "Error", "Cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

type (
	// Preview is the result of a successful FetchPreview.
	// LocalHandleURI is owned by the caller and must be released through the Registry.
	Preview struct {
		Blob             []byte
		LocalHandleURI   string
		MimeType         string
		ResolvedFileName string
		SizeBytes        int64
	}

	// DownloadResult reports a download whose save was initiated.
	// Success does not mean the saved file reached its destination.
	DownloadResult struct {
		Success   bool
		FinalName string
		SizeBytes int64
	}

	// ExistsResult is the answer of a HEAD check. Nil fields mean the header was absent.
	ExistsResult struct {
		Exists    bool
		SizeBytes *int64
		MimeType  *string
	}

	// ProgressFunc receives whole percentages in [0, 100].
	ProgressFunc func(percent int)

	// Output is the snapshot a consumer binds to a rendering surface.
	// LocalHandleURI must not be kept past the next state change.
	// Version grows with every change: a snapshot whose Version is not above the last one rendered is stale.
	Output struct {
		Version          uint64
		FileName         string
		LocalHandleURI   string
		MimeType         string
		SizeBytes        int64
		ResolvedFileName string
		State            State
		ProgressPercent  int
		ErrorMessage     string
	}
)
