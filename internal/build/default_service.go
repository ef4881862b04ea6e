package build

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/buildlog"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/events"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	ledger    *buildlog.Ledger
	registry  *prom.Registry
	recorder  metrics.Recorder
	publisher events.Publisher
	logger    *slog.Logger
	newID     func() string
}

// NewBuildService creates a build service with no ledger, metrics or events.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder:  metrics.NoopRecorder{},
		publisher: events.Noop{},
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
}

// WithLedger records builds and page outcomes in l.
func (s *DefaultBuildService) WithLedger(l *buildlog.Ledger) *DefaultBuildService {
	s.ledger = l
	return s
}

// WithMetrics registers the Prometheus collectors on reg. The registry is
// also what gets written to the configured metrics textfile.
func (s *DefaultBuildService) WithMetrics(reg *prom.Registry) *DefaultBuildService {
	s.registry = reg
	s.recorder = metrics.NewPrometheusRecorder(reg)
	return s
}

// WithRecorder overrides the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithPublisher sends a build event after every build.
func (s *DefaultBuildService) WithPublisher(p events.Publisher) *DefaultBuildService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithLogger sets the logger.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	if l != nil {
		s.logger = l
	}
	return s
}

// Run executes a build for req.Config.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	cfg := req.Config
	if cfg == nil {
		return nil, errors.ValidationFailed("config", "is required")
	}
	conv, err := markdown.NewConverter(cfg.Markdown.Options())
	if err != nil {
		return nil, errors.ValidationFailed("markdown", err.Error())
	}

	result := &BuildResult{BuildID: s.newID(), StartTime: time.Now()}
	logger := s.logger.With(logfields.BuildID(result.BuildID))
	logger.Info("Build started", logfields.Trigger(req.Trigger))

	if s.ledger != nil {
		if err := s.ledger.Begin(context.WithoutCancel(ctx), result.BuildID, result.StartTime); err != nil {
			logger.Warn("Failed to record build start", logfields.Error(err))
		}
	}

	counter := &pageCounter{}
	observers := multiObserver{counter}
	if s.ledger != nil {
		observers = append(observers, s.ledger.Observer(ctx, result.BuildID, logger))
	}

	gen := site.New(site.Options{
		ContentDir:  cfg.ContentDir,
		TemplateDir: cfg.TemplateDir,
		OutputDir:   cfg.OutputDir,
		Concurrency: cfg.Concurrency,
		FailFast:    cfg.FailFast,
		Markdown:    conv,
		Logger:      logger,
		Recorder:    s.recorder,
		Observer:    observers,
	})

	buildErr := s.emitAll(ctx, gen, cfg, result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Pages = int(counter.written.Load())
	result.Failed = int(counter.failed.Load())
	canceled := ctx.Err() != nil
	if buildErr == nil && canceled {
		buildErr = ctx.Err()
	}
	result.Status = statusFor(result.Pages, result.Failed, canceled)
	if buildErr != nil && result.Status == BuildStatusSuccess {
		// A folder that could not be listed fails without any page result.
		result.Status = statusFor(result.Pages, 1, false)
	}
	if site.IsFatal(buildErr) && !canceled {
		result.Status = BuildStatusFailed
	}

	s.finish(ctx, cfg, result, buildErr, logger)
	return result, buildErr
}

// emitAll emits pages, then folders with their indexes. Failures are
// collected; with FailFast the first one stops the build, and an output
// write failure always does.
func (s *DefaultBuildService) emitAll(ctx context.Context, gen *site.Generator, cfg *config.Config, result *BuildResult) error {
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return cfg.FailFast || site.IsFatal(err)
	}

	for _, p := range cfg.Pages {
		if ctx.Err() != nil {
			return stdErrors.Join(append(errs, ctx.Err())...)
		}
		n, err := p.Node.Build()
		if err == nil {
			err = gen.Emit(p.Output, n)
		}
		if err != nil && fail(err) {
			return stdErrors.Join(errs...)
		}
	}

	for _, f := range cfg.Folders {
		if ctx.Err() != nil {
			return stdErrors.Join(append(errs, ctx.Err())...)
		}
		n, err := f.Node.Build()
		if err != nil {
			if fail(errors.ValidationFailed("folders."+f.Name, err.Error())) {
				return stdErrors.Join(errs...)
			}
			continue
		}
		res, err := gen.EmitFolder(ctx, f.Name, n, f.Schema())
		if res != nil {
			result.Folders = append(result.Folders, res)
		}
		if err != nil && fail(err) {
			return stdErrors.Join(errs...)
		}

		if f.Index == nil {
			continue
		}
		in, err := f.Index.Node.Build()
		if err == nil {
			err = gen.EmitIndex(f.Index.Output, in, f.Name, f.Schema())
		}
		if err != nil && fail(err) {
			return stdErrors.Join(errs...)
		}
	}
	return stdErrors.Join(errs...)
}

func (s *DefaultBuildService) finish(ctx context.Context, cfg *config.Config, result *BuildResult, buildErr error, logger *slog.Logger) {
	// Bookkeeping runs even when the build was canceled.
	ctx = context.WithoutCancel(ctx)

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(result.Status.outcomeLabel())

	errText := ""
	if buildErr != nil {
		errText = buildErr.Error()
	}

	if s.ledger != nil {
		if err := s.ledger.Finish(ctx, buildlog.Build{
			ID:         result.BuildID,
			FinishedAt: result.EndTime,
			Outcome:    string(result.Status),
			Pages:      result.Pages,
			Failed:     result.Failed,
			Error:      errText,
		}); err != nil {
			logger.Warn("Failed to record build outcome", logfields.Error(err))
		}
	}

	if cfg.MetricsFile != "" && s.registry != nil {
		if err := metrics.WriteTextfile(s.registry, cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.MetricsFile), logfields.Error(err))
		}
	}

	if err := s.publisher.PublishBuild(ctx, &events.BuildEvent{
		BuildID:    result.BuildID,
		Outcome:    string(result.Status),
		Pages:      result.Pages,
		Failed:     result.Failed,
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
		Error:      errText,
		Timestamp:  result.EndTime,
	}); err != nil {
		logger.Warn("Failed to publish build event", logfields.Error(err))
	}

	attrs := []any{
		slog.String("status", string(result.Status)),
		logfields.Pages(result.Pages),
		logfields.Failed(result.Failed),
		logfields.DurationMS(float64(result.Duration.Microseconds()) / 1000),
	}
	if buildErr != nil {
		logger.Error("Build finished with errors", append(attrs, logfields.Error(buildErr))...)
		return
	}
	logger.Info("Build finished", attrs...)
}

type pageCounter struct {
	written atomic.Int64
	failed  atomic.Int64
}

func (c *pageCounter) ObservePage(r site.PageResult) {
	if r.Err != nil {
		c.failed.Add(1)
		return
	}
	c.written.Add(1)
}

type multiObserver []site.Observer

func (m multiObserver) ObservePage(r site.PageResult) {
	for _, o := range m {
		o.ObservePage(r)
	}
}
