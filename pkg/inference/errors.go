package inference

import (
	"context"
	"errors"
	"net/http"

	"github.com/menta2k/room-advisor/pkg/client"
)

// ErrNotConfigured is returned when the detection service has no API token
var ErrNotConfigured = errors.New("AI service not configured")

// ErrorKind groups transport errors by how the retry loop treats them
type ErrorKind int

const (
	// KindTransient covers 503, 429, other 5xx, timeouts, network failures
	// and malformed bodies. These are retried.
	KindTransient ErrorKind = iota
	// KindAuth covers 401 and 403. Retrying with the same token cannot help.
	KindAuth
	// KindClient covers the remaining 4xx answers
	KindClient
	// KindCanceled is a caller cancellation, not a service failure
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindClient:
		return "client"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify decides how an error returned by a Transport is handled
func Classify(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return KindAuth
		case se.StatusCode == http.StatusTooManyRequests:
			return KindTransient
		case se.StatusCode >= 400 && se.StatusCode < 500:
			return KindClient
		}
	}

	// Deadline exceeded on a single attempt, invalid format, 5xx and
	// connection errors all land here.
	return KindTransient
}
