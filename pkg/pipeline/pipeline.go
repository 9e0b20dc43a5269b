// Package pipeline analyzes a batch of uploaded images. Each image is
// handled independently; one failure never aborts the rest of the batch.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/detection"
	"github.com/menta2k/room-advisor/pkg/inference"
	"github.com/menta2k/room-advisor/pkg/suggest"
	"github.com/menta2k/room-advisor/pkg/types"
)

const (
	MessageSuccess = "Files uploaded and processed successfully"
	MessageLimited = "Files uploaded with some processing limitations"

	// SuggestionColorFallback accompanies partial failure warnings
	SuggestionColorFallback = "Color-based suggestions provided as fallback"

	// DefaultSlack is added on top of the detector's worst case
	DefaultSlack = 5 * time.Second
)

// Detector is the inference step. *inference.Client implements it.
type Detector interface {
	Detect(ctx context.Context, data []byte) inference.Outcome
	Ceiling() time.Duration
}

// Reporter receives hard failures, e.g. to forward them to an error tracker
type Reporter interface {
	ReportFailure(filename string, failure inference.HardFailure)
}

// Config controls batch execution
type Config struct {
	// Workers is the number of images analyzed at once. 1 or less runs the
	// batch sequentially.
	Workers int
	// Slack is added to the per-image ceiling
	Slack time.Duration
}

// Pipeline drives detection and synthesis for every image in a batch
type Pipeline struct {
	cfg         Config
	detector    Detector
	synthesizer *suggest.Synthesizer
	reporter    Reporter
	progress    func(filename string)
	log         logrus.FieldLogger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithReporter forwards hard failures to r
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithLogger sets the pipeline logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithProgress calls fn once per finished image
func WithProgress(fn func(filename string)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New creates a pipeline
func New(cfg Config, detector Detector, synthesizer *suggest.Synthesizer, opts ...Option) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Slack <= 0 {
		cfg.Slack = DefaultSlack
	}
	p := &Pipeline{
		cfg:         cfg,
		detector:    detector,
		synthesizer: synthesizer,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// result is what one image contributes to the response
type result struct {
	records []types.Record
	warning *types.Warning
}

// Run analyzes images and aggregates the results in input order
func (p *Pipeline) Run(ctx context.Context, images []types.Image) types.Response {
	results := make([]result, len(images))

	if p.cfg.Workers == 1 || len(images) < 2 {
		for i, img := range images {
			results[i] = p.processImage(ctx, img)
			p.done(img.Filename)
		}
	} else {
		p.runPool(ctx, images, results)
	}

	resp := types.Response{
		Message:     MessageSuccess,
		Suggestions: []types.Record{},
	}
	for _, r := range results {
		resp.Suggestions = append(resp.Suggestions, r.records...)
		if r.warning != nil {
			resp.Warnings = append(resp.Warnings, *r.warning)
		}
	}
	if len(resp.Warnings) > 0 {
		resp.Message = MessageLimited
	}
	return resp
}

// runPool fans images out to a bounded set of workers; results are written
// by index so output order matches input order
func (p *Pipeline) runPool(ctx context.Context, images []types.Image, results []result) {
	workers := p.cfg.Workers
	if workers > len(images) {
		workers = len(images)
	}

	tasks := make(chan int, workers)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range tasks {
				p.log.WithFields(logrus.Fields{"worker": workerID, "file": images[i].Filename}).Debug("[Pipeline] Picked up image")
				results[i] = p.processImage(ctx, images[i])
				mu.Lock()
				p.done(images[i].Filename)
				mu.Unlock()
			}
		}(w)
	}

	for i := range images {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
}

func (p *Pipeline) done(filename string) {
	if p.progress != nil {
		p.progress(filename)
	}
}

// processImage runs one image under the per-image ceiling
func (p *Pipeline) processImage(ctx context.Context, img types.Image) result {
	log := p.log.WithField("file", img.Filename)
	log.Info("[Pipeline] Processing file")

	imgCtx, cancel := context.WithTimeout(ctx, p.detector.Ceiling()+p.cfg.Slack)
	defer cancel()

	switch outcome := p.detector.Detect(imgCtx, img.Data).(type) {
	case inference.Success:
		log.WithField("detections", len(outcome.Detections)).Info("[Pipeline] Successful analysis")
		objects := detection.Dedup(detection.Normalize(outcome.Detections))
		return result{records: p.synthesizer.Synthesize(img, objects, nil)}

	case inference.PartialFailure:
		log.WithError(outcome.Err).Warn("[Pipeline] Detection failed, using color fallback")
		return result{
			records: p.synthesizer.Synthesize(img, outcome.Objects, outcome.Colors),
			warning: &types.Warning{
				Filename:   img.Filename,
				Message:    outcome.Message,
				Suggestion: SuggestionColorFallback,
			},
		}

	case inference.HardFailure:
		log.WithFields(logrus.Fields{
			"reason":  outcome.Reason,
			"details": outcome.Details,
		}).Error("[Pipeline] Analysis failed")
		if p.reporter != nil {
			p.reporter.ReportFailure(img.Filename, outcome)
		}
		return result{
			records: suggest.Generic(img.Filename),
			warning: &types.Warning{
				Filename:   img.Filename,
				Message:    outcome.Reason,
				Suggestion: outcome.Suggestion,
			},
		}

	default:
		log.Errorf("[Pipeline] Unexpected outcome %T", outcome)
		return result{
			records: suggest.Generic(img.Filename),
			warning: &types.Warning{
				Filename:   img.Filename,
				Message:    "Unexpected analysis result",
				Suggestion: inference.RemediationRetry,
			},
		}
	}
}
