package resource

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is matched by failures where the backend reports the resource as absent.
	ErrNotFound = errors.New("resource not found")
	// ErrServer is matched by 5xx failures.
	ErrServer = errors.New("resource server error")
	// ErrTransport is matched by every other network or decoding failure.
	ErrTransport = errors.New("resource transport error")
	// ErrCancelled is matched when the caller aborted the request.
	ErrCancelled = errors.New("resource request cancelled")

	ErrClosed     = errors.New("resource manager closed")
	ErrNoFileName = errors.New("no resource file name bound")
	ErrNoSaver    = errors.New("no saver configured")
)

// Kind classifies a FetchError.
type Kind int

const (
	KindTransport Kind = iota
	KindNotFound
	KindServer
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindServer:
		return "ServerError"
	case KindCancelled:
		return "Cancelled"
	default:
		return "TransportError"
	}
}

// FetchError is returned by the Client for every failed request.
// Use errors.Is with ErrNotFound, ErrServer, ErrTransport or ErrCancelled to classify it.
type FetchError struct {
	Kind     Kind
	FileName string
	Status   int    // HTTP status, 0 when no response was received
	Message  string // best available diagnostic
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("resource %q not found", e.FileName)
	case KindServer:
		return fmt.Sprintf("fetching %q: server error (%d): %s", e.FileName, e.Status, e.Message)
	case KindCancelled:
		return fmt.Sprintf("fetching %q: cancelled", e.FileName)
	default:
		return fmt.Sprintf("fetching %q: %s", e.FileName, e.Message)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServer:
		return e.Kind == KindServer
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrCancelled:
		return e.Kind == KindCancelled
	}
	return false
}

// IsCancelled reports whether err comes from an aborted request.
func IsCancelled(err error) bool {
	return err != nil && errors.Is(err, ErrCancelled)
}

func cancelledError(fileName string, err error) *FetchError {
	return &FetchError{Kind: KindCancelled, FileName: fileName, Message: "cancelled", Err: err}
}

func transportError(fileName string, err error) *FetchError {
	return &FetchError{Kind: KindTransport, FileName: fileName, Message: err.Error(), Err: err}
}

// statusError maps an HTTP error status to a FetchError. msg is the diagnostic found in the response body.
func statusError(fileName string, status int, msg string) *FetchError {
	fe := &FetchError{FileName: fileName, Status: status, Message: msg}
	switch {
	case status == http.StatusNotFound:
		fe.Kind = KindNotFound
	case status >= http.StatusInternalServerError:
		fe.Kind = KindServer
	default:
		fe.Kind = KindTransport
	}
	if fe.Message == "" {
		fe.Message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return fe
}
