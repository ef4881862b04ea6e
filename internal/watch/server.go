package watch

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
)

// Status is the last build as reported by /status.
type Status struct {
	mu         sync.RWMutex
	last       *build.BuildResult
	lastErr    error
	lastGood   time.Time
	buildCount int
}

// Record stores a finished build.
func (s *Status) Record(res *build.BuildResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = res
	s.lastErr = err
	s.buildCount++
	if err == nil && res != nil {
		s.lastGood = res.EndTime
	}
}

type statusJSON struct {
	Builds     int        `json:"builds"`
	BuildID    string     `json:"build_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Pages      int        `json:"pages"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
	LastGood   *time.Time `json:"last_good,omitempty"`
	DurationMS float64    `json:"duration_ms"`
}

func (s *Status) snapshot() statusJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := statusJSON{Builds: s.buildCount}
	if s.last != nil {
		out.BuildID = s.last.BuildID
		out.Status = string(s.last.Status)
		out.Pages = s.last.Pages
		out.Failed = s.last.Failed
		out.DurationMS = float64(s.last.Duration.Microseconds()) / 1000
	}
	if s.lastErr != nil {
		out.Error = s.lastErr.Error()
	}
	if !s.lastGood.IsZero() {
		t := s.lastGood
		out.LastGood = &t
	}
	return out
}

// NewHandler serves outputDir at /, registry at /metrics and the build
// status at /status.
func NewHandler(outputDir string, reg *prom.Registry, status *Status) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(outputDir)))
	if reg != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
	}
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status.snapshot())
	})
	return mux
}
