package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/menta2k/room-advisor/pkg/types"
)

// ErrInvalidFormat is returned when a model answers with something that is
// not a list of detections
var ErrInvalidFormat = errors.New("invalid response format from detection model")

// Endpoint identifies one detection model
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (e Endpoint) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.URL
}

// Transport sends one image to one model endpoint
type Transport interface {
	Detect(ctx context.Context, endpoint Endpoint, image []byte, contentType string) ([]types.Detection, error)
}

// Credentialed is implemented by transports that can report whether they
// need an API token to reach their endpoints
type Credentialed interface {
	RequiresCredential() bool
}

// StatusError is a non-2xx answer from a model endpoint
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}
