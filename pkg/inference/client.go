// Package inference talks to the object detection service. Every failure is
// converted into one of the Outcome variants so callers never see a raw
// network error.
package inference

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/client"
	"github.com/menta2k/room-advisor/pkg/processing"
	"github.com/menta2k/room-advisor/pkg/types"
)

const (
	// MessageColorOnly is attached to partial failures
	MessageColorOnly = "Object detection unavailable, using color analysis only"
	// ReasonNotConfigured is the HardFailure reason when no token is set
	ReasonNotConfigured = "not configured"
	// ReasonExhausted is the HardFailure reason when every attempt failed
	ReasonExhausted = "Failed to analyze image after multiple attempts"
	// ReasonAuth is the HardFailure reason for 401/403 answers
	ReasonAuth = "AI service rejected the credentials"

	RemediationRetry     = "The AI service may be temporarily unavailable. Please try again later."
	RemediationConfigure = "Contact administrator to configure the AI service"
	RemediationToken     = "Check that the configured API token is valid"
)

// Config holds the retry and endpoint settings of a Client
type Config struct {
	APIToken       string
	Primary        client.Endpoint
	Fallback       client.Endpoint
	MaxAttempts    int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	WarmupTimeout  time.Duration
}

// DefaultConfig returns the production timings with the public DETR models
func DefaultConfig() Config {
	return Config{
		Primary: client.Endpoint{
			Name: "detr-resnet-50",
			URL:  "https://api-inference.huggingface.co/models/facebook/detr-resnet-50",
		},
		Fallback: client.Endpoint{
			Name: "detr-resnet-101",
			URL:  "https://api-inference.huggingface.co/models/facebook/detr-resnet-101",
		},
		MaxAttempts:    3,
		RetryDelay:     time.Second,
		RequestTimeout: 45 * time.Second,
		WarmupTimeout:  10 * time.Second,
	}
}

// ColorExtractor produces the color profile used when detection fails
type ColorExtractor interface {
	Extract(data []byte) (*types.ColorProfile, error)
}

// Client runs one image through the detection service with warmup, retries
// and a single switch to the fallback model
type Client struct {
	cfg       Config
	transport client.Transport
	extractor ColorExtractor
	processor *processing.Processor
	log       logrus.FieldLogger
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the logger used for attempt and warmup messages
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithProcessor sets the processor used to build warmup probes and sniff
// content types
func WithProcessor(p *processing.Processor) Option {
	return func(c *Client) {
		if p != nil {
			c.processor = p
		}
	}
}

// New creates a Client. Zero values in cfg fall back to DefaultConfig.
func New(cfg Config, transport client.Transport, extractor ColorExtractor, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.WarmupTimeout <= 0 {
		cfg.WarmupTimeout = def.WarmupTimeout
	}
	if cfg.Fallback.URL == "" {
		cfg.Fallback = cfg.Primary
	}

	c := &Client{
		cfg:       cfg,
		transport: transport,
		extractor: extractor,
		processor: processing.NewProcessor(),
		log:       logrus.StandardLogger(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration
func (c *Client) Config() Config {
	return c.cfg
}

// Ceiling is the longest a single Detect call can take: two warmups, every
// attempt timing out and every backoff.
func (c *Client) Ceiling() time.Duration {
	total := 2*c.cfg.WarmupTimeout + time.Duration(c.cfg.MaxAttempts)*c.cfg.RequestTimeout
	for n := 1; n < c.cfg.MaxAttempts; n++ {
		total += time.Duration(n) * c.cfg.RetryDelay
	}
	return total
}

// Configured reports whether the client has what it needs to call the service
func (c *Client) Configured() bool {
	if cred, ok := c.transport.(client.Credentialed); ok && !cred.RequiresCredential() {
		return true
	}
	return c.cfg.APIToken != ""
}

// Detect runs detection for one image and never returns a raw error
func (c *Client) Detect(ctx context.Context, data []byte) Outcome {
	if !c.Configured() {
		c.log.Warn("[Inference] API token not configured, skipping detection")
		return HardFailure{
			Reason:     ReasonNotConfigured,
			Details:    "Please set HF_API_TOKEN environment variable",
			Suggestion: RemediationConfigure,
			Err:        ErrNotConfigured,
		}
	}

	contentType := processing.ContentType(data)
	c.warmup(ctx, c.cfg.Primary)

	s := initialState()
	var lastErr error
	for !s.done() {
		endpoint := c.endpointFor(s.role)
		log := c.log.WithFields(logrus.Fields{
			"attempt":  s.attempt,
			"endpoint": endpoint.String(),
		})
		log.Infof("[Inference] Attempt %d/%d", s.attempt, c.cfg.MaxAttempts)

		detections, err := c.attempt(ctx, endpoint, data, contentType)
		if err == nil {
			log.WithField("detections", len(detections)).Info("[Inference] Detection succeeded")
			return Success{Detections: detections}
		}
		lastErr = err
		log.WithError(err).WithField("kind", Classify(err).String()).Warn("[Inference] Attempt failed")

		if Classify(err) == KindAuth {
			return HardFailure{
				Reason:     ReasonAuth,
				Details:    err.Error(),
				Suggestion: RemediationToken,
				Err:        err,
			}
		}

		s = next(s, eventFor(err), c.cfg.MaxAttempts)
		if s.done() {
			break
		}
		if s.switched {
			fallback := c.endpointFor(s.role)
			log.Infof("[Inference] Switching to fallback model %s", fallback)
			c.warmup(ctx, fallback)
		}
		if err := c.sleep(ctx, time.Duration(s.backoffUnits)*c.cfg.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	return c.colorFallback(data, lastErr)
}

func (c *Client) endpointFor(r role) client.Endpoint {
	if r == roleFallback {
		return c.cfg.Fallback
	}
	return c.cfg.Primary
}

func (c *Client) attempt(ctx context.Context, endpoint client.Endpoint, data []byte, contentType string) ([]types.Detection, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	detections, err := c.transport.Detect(attemptCtx, endpoint, data, contentType)
	if err != nil {
		// The caller gave up; report that rather than the per-attempt deadline.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, errors.Join(ctxErr, err)
		}
		return nil, err
	}
	if detections == nil {
		detections = []types.Detection{}
	}
	return detections, nil
}

// warmup wakes a cold model with a tiny probe. Failures are ignored.
func (c *Client) warmup(ctx context.Context, endpoint client.Endpoint) {
	if ctx.Err() != nil {
		return
	}
	probe, err := c.processor.ProbeImage()
	if err != nil {
		c.log.WithError(err).Debug("[Inference] Could not build warmup probe")
		return
	}

	warmCtx, cancel := context.WithTimeout(ctx, c.cfg.WarmupTimeout)
	defer cancel()

	start := time.Now()
	if _, err := c.transport.Detect(warmCtx, endpoint, probe, "image/jpeg"); err != nil {
		c.log.WithError(err).WithField("endpoint", endpoint.String()).Info("[Inference] Warmup failed, continuing")
		return
	}
	c.log.WithFields(logrus.Fields{
		"endpoint": endpoint.String(),
		"elapsed":  time.Since(start).String(),
	}).Debug("[Inference] Model warmed up")
}

func (c *Client) colorFallback(data []byte, lastErr error) Outcome {
	details := "unknown error"
	if lastErr != nil {
		details = lastErr.Error()
	}

	if c.extractor != nil {
		profile, err := c.extractor.Extract(data)
		if err == nil {
			c.log.Info("[Inference] Detection failed, falling back to color analysis")
			return PartialFailure{
				Message: MessageColorOnly,
				Colors:  profile,
				Objects: []types.Detection{Placeholder()},
				Err:     lastErr,
			}
		}
		c.log.WithError(err).Warn("[Inference] Color fallback failed")
	}

	return HardFailure{
		Reason:     ReasonExhausted,
		Details:    details,
		Suggestion: RemediationRetry,
		Err:        lastErr,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
