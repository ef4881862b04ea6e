package watch

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/config"
)

type fakeService struct {
	mu       sync.Mutex
	triggers []string
}

func (f *fakeService) Run(_ context.Context, req build.BuildRequest) (*build.BuildResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, req.Trigger)
	return &build.BuildResult{Status: build.BuildStatusSuccess, EndTime: time.Now()}, nil
}

func (f *fakeService) count(trigger string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tr := range f.triggers {
		if tr == trigger {
			n++
		}
	}
	return n
}

func TestRun_BuildsServesAndRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		ContentDir:  filepath.Join(root, "content"),
		TemplateDir: filepath.Join(root, "templates"),
		OutputDir:   filepath.Join(root, "public"),
	}
	for _, dir := range []string{cfg.ContentDir, cfg.TemplateDir, cfg.OutputDir} {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "index.html"), []byte("home"), 0o600))

	svc := &fakeService{}
	addrs := make(chan string, 1)
	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, Options{
			Config:   cfg,
			Service:  svc,
			Addr:     "127.0.0.1:0",
			Debounce: 20 * time.Millisecond,
			Ready:    func(addr string) { addrs <- addr },
		})
	}()

	addr := <-addrs
	require.Equal(t, 1, svc.count(TriggerInitial))

	resp, err := http.Get("http://" + addr + "/index.html")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "home", string(body))

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(cfg.ContentDir, "a.md"), []byte("---\ntitle: A\n---\n"), 0o600)
		return svc.count(TriggerChange) >= 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_RequiresConfigAndService(t *testing.T) {
	require.Error(t, Run(t.Context(), Options{}))
}
