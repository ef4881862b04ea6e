package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// BuildService executes site builds.
type BuildService interface {
	// Run executes a complete build. The result is returned even when the
	// build fails; the error describes the failed pages.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Trigger names what started the build ("cli", "watch", "schedule").
	Trigger string
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// BuildID uniquely identifies the build in logs, the ledger and events.
	BuildID string

	Status BuildStatus

	// Pages is the number of pages written.
	Pages int

	// Failed is the number of pages that failed.
	Failed int

	// Folders holds the per-folder results in configuration order.
	Folders []*site.FolderResult

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates every page was written.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusPartial indicates some pages were written and some failed.
	BuildStatusPartial BuildStatus = "partial"

	// BuildStatusFailed indicates no page could be written or an output
	// write failed.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed without failures.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

func (s BuildStatus) outcomeLabel() metrics.BuildOutcomeLabel {
	switch s {
	case BuildStatusSuccess:
		return metrics.BuildSuccess
	case BuildStatusPartial:
		return metrics.BuildPartial
	default:
		return metrics.BuildFailed
	}
}

func statusFor(written, failed int, canceled bool) BuildStatus {
	switch {
	case canceled:
		return BuildStatusCancelled
	case failed == 0:
		return BuildStatusSuccess
	case written > 0:
		return BuildStatusPartial
	default:
		return BuildStatusFailed
	}
}
