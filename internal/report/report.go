// Package report forwards analysis failures to Sentry.
package report

import (
	"fmt"

	raven "github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/inference"
)

// Reporter sends hard failures to Sentry. A nil Reporter discards them.
type Reporter struct {
	client *raven.Client
	log    logrus.FieldLogger
}

// New creates a reporter for dsn. An empty dsn disables reporting and
// returns a nil Reporter.
func New(dsn string, logger logrus.FieldLogger) (*Reporter, error) {
	if dsn == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client, err := raven.New(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	return &Reporter{client: client, log: logger}, nil
}

// ReportFailure records one image that could not be analyzed
func (r *Reporter) ReportFailure(filename string, failure inference.HardFailure) {
	if r == nil || r.client == nil {
		return
	}

	tags := map[string]string{
		"component": "pipeline",
		"file":      filename,
		"reason":    failure.Reason,
	}

	var id string
	if failure.Err != nil {
		id = r.client.CaptureError(failure.Err, tags)
	} else {
		id = r.client.CaptureMessage(fmt.Sprintf("%s: %s", failure.Reason, failure.Details), tags)
	}
	r.log.WithFields(logrus.Fields{"file": filename, "event": id}).Debug("[Report] Failure sent to Sentry")
}

// Close flushes pending events
func (r *Reporter) Close() {
	if r == nil || r.client == nil {
		return
	}
	r.client.Wait()
	r.client.Close()
}
