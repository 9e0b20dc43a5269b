// Package roomadvisor analyzes room photos and suggests design improvements.
//
// Each uploaded image goes through an object detection service (with warmup,
// retries and a fallback model), a color extractor and a color-theory engine.
// The results are merged into one suggestion per image, tagged with how much
// of the analysis succeeded. When the detection service is unavailable the
// advisor still answers with color-based or generic advice.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		roomadvisor "github.com/menta2k/room-advisor"
//		"github.com/menta2k/room-advisor/internal/config"
//	)
//
//	func main() {
//		cfg := config.Default()
//		cfg.ApplyEnv()
//
//		advisor, err := roomadvisor.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer advisor.Close()
//
//		resp, err := advisor.AnalyzeFiles(context.Background(), []string{"living-room.jpg"})
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, s := range resp.Suggestions {
//			fmt.Printf("%s [%s]: %s\n", s.Filename, s.Confidence, s.Text)
//		}
//	}
//
// The package consists of these components:
//
// 1. Colors (pkg/colors): quadrant color extraction and harmony derivation
// 2. Detection (pkg/detection): furniture filtering and deduplication
// 3. Inference (pkg/inference): resilient client for the detection service
// 4. Suggest (pkg/suggest): suggestion synthesis
// 5. Pipeline (pkg/pipeline): batch orchestration
package roomadvisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/internal/config"
	"github.com/menta2k/room-advisor/internal/report"
	"github.com/menta2k/room-advisor/pkg/client"
	"github.com/menta2k/room-advisor/pkg/colors"
	"github.com/menta2k/room-advisor/pkg/hfapi"
	"github.com/menta2k/room-advisor/pkg/inference"
	"github.com/menta2k/room-advisor/pkg/ollama"
	"github.com/menta2k/room-advisor/pkg/pipeline"
	"github.com/menta2k/room-advisor/pkg/processing"
	"github.com/menta2k/room-advisor/pkg/suggest"
	"github.com/menta2k/room-advisor/pkg/types"
)

// Version of the room advisor library
const Version = "1.0.0"

// Advisor wires the detection transport, inference client, synthesizer and
// pipeline together
type Advisor struct {
	cfg      *config.Config
	client   *inference.Client
	pipeline *pipeline.Pipeline
	reporter *report.Reporter
	log      logrus.FieldLogger
}

type options struct {
	logger    logrus.FieldLogger
	transport client.Transport
	progress  func(string)
}

// Option customizes an Advisor
type Option func(*options)

// WithLogger sets the logger handed to every component
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithTransport replaces the transport chosen from the configuration
func WithTransport(t client.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithProgress is called once per analyzed image
func WithProgress(fn func(filename string)) Option {
	return func(o *options) { o.progress = fn }
}

// NewTransport builds the detection transport for the configured backend
func NewTransport(cfg config.InferenceConfig, logger logrus.FieldLogger) (client.Transport, error) {
	switch cfg.Backend {
	case config.BackendHFAPI, "":
		return hfapi.NewClient(cfg.APIToken, logger), nil
	case config.BackendOllama:
		return ollama.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown detection backend %q", cfg.Backend)
	}
}

// New creates an Advisor from cfg
func New(cfg *config.Config, opts ...Option) (*Advisor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		var err error
		if transport, err = NewTransport(cfg.Inference, o.logger); err != nil {
			return nil, err
		}
	}

	reporter, err := report.New(cfg.Report.SentryDSN, o.logger)
	if err != nil {
		return nil, err
	}

	processor := processing.NewProcessor()
	extractor := colors.NewExtractorWithProcessor(processor)

	ic := inference.New(cfg.Inference.ClientConfig(), transport, extractor,
		inference.WithLogger(o.logger),
		inference.WithProcessor(processor),
	)

	pipeOpts := []pipeline.Option{pipeline.WithLogger(o.logger)}
	if reporter != nil {
		pipeOpts = append(pipeOpts, pipeline.WithReporter(reporter))
	}
	if o.progress != nil {
		pipeOpts = append(pipeOpts, pipeline.WithProgress(o.progress))
	}
	p := pipeline.New(pipeline.Config{Workers: cfg.Pipeline.Workers}, ic,
		suggest.NewSynthesizer(extractor, o.logger), pipeOpts...)

	if !ic.Configured() {
		o.logger.Warn("[Advisor] HF_API_TOKEN is not set, analyses will return generic suggestions")
	}

	return &Advisor{
		cfg:      cfg,
		client:   ic,
		pipeline: p,
		reporter: reporter,
		log:      o.logger,
	}, nil
}

// Pipeline returns the batch pipeline, e.g. to serve it over HTTP
func (a *Advisor) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Analyze runs a batch of in-memory images
func (a *Advisor) Analyze(ctx context.Context, images []types.Image) types.Response {
	return a.pipeline.Run(ctx, images)
}

// AnalyzeFiles reads the files at paths and analyzes them as one batch
func (a *Advisor) AnalyzeFiles(ctx context.Context, paths []string) (types.Response, error) {
	images := make([]types.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return types.Response{}, fmt.Errorf("failed to read %s: %w", p, err)
		}
		images = append(images, types.Image{Filename: filepath.Base(p), Data: data})
	}
	return a.Analyze(ctx, images), nil
}

// Close flushes pending error reports
func (a *Advisor) Close() {
	a.reporter.Close()
}

// Harmony derives the color harmony set for a #rrggbb color
func Harmony(hex string) (colors.Harmony, error) {
	return colors.DeriveHarmony(hex)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
