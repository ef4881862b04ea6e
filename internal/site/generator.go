// Package site is the site generator: it renders render trees and writes the
// resulting pages under an output directory.
package site

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/render"
)

// Conventional directory defaults.
const (
	DefaultContentDir  = "./content"
	DefaultTemplateDir = "./templates"
	DefaultOutputDir   = "./public"
)

// OutputExt is appended to output names.
const OutputExt = ".html"

// Options configures a Generator. Zero values fall back to defaults.
type Options struct {
	ContentDir  string
	TemplateDir string
	OutputDir   string
	// Concurrency bounds parallel page renders in EmitFolder (default NumCPU).
	Concurrency int
	// FailFast aborts a folder batch on its first failure instead of
	// isolating failures per file.
	FailFast bool
	Markdown *markdown.Converter
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Observer is told about every page written or failed.
	Observer Observer
}

// PageResult describes one emitted (or failed) page.
type PageResult struct {
	Output   string
	Source   string
	Tree     string
	Mode     string
	// Fingerprint is the mdfp content fingerprint of the source file, when
	// the page is file-bound.
	Fingerprint string
	Duration    time.Duration
	Err         error
}

// Observer receives page results. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObservePage(PageResult)
}

type noopObserver struct{}

func (noopObserver) ObservePage(PageResult) {}

// Generator emits pages. It is safe for concurrent use.
type Generator struct {
	opts     Options
	renderer *render.Renderer
	logger   *slog.Logger
	recorder metrics.Recorder
	observer Observer
}

// New returns a generator for opts.
func New(opts Options) *Generator {
	if opts.ContentDir == "" {
		opts.ContentDir = DefaultContentDir
	}
	if opts.TemplateDir == "" {
		opts.TemplateDir = DefaultTemplateDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Markdown == nil {
		opts.Markdown = markdown.Default()
	}

	return &Generator{
		opts:     opts,
		renderer: render.NewRenderer(opts.TemplateDir, render.WithMarkdown(opts.Markdown), render.WithLogger(opts.Logger)),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		observer: opts.Observer,
	}
}

// Options returns the effective options after defaults.
func (g *Generator) Options() Options { return g.opts }

// Renderer exposes the underlying renderer.
func (g *Generator) Renderer() *render.Renderer { return g.renderer }

// Emit renders n standalone and writes <output>/<name>.html. Nothing is
// written when rendering fails.
func (g *Generator) Emit(name string, n *render.Node) error {
	start := time.Now()
	out := g.outputPath(name)
	err := g.emit(name, out, n)
	g.finish(PageResult{Output: out, Tree: n.String(), Mode: "page", Duration: time.Since(start), Err: err})
	return err
}

func (g *Generator) emit(name, out string, n *render.Node) error {
	if err := checkName(name); err != nil {
		return err
	}
	html, err := g.renderer.Render(n)
	if err != nil {
		return err
	}
	return write(out, html)
}

func (g *Generator) outputPath(name string) string {
	return filepath.Join(g.opts.OutputDir, filepath.FromSlash(name)+OutputExt)
}

func checkName(name string) error {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)+OutputExt) {
		return errors.ValidationFailed("output", "name "+strconv.Quote(name)+" is not a path inside the output directory")
	}
	return nil
}

func write(path, html string) error {
	if err := writeAtomic(path, []byte(html)); err != nil {
		return errors.FileSystem("write output", path, err)
	}
	return nil
}

func (g *Generator) finish(res PageResult) {
	result := metrics.ResultSuccess
	if res.Err != nil {
		result = metrics.ResultFailed
		g.logger.Error("Page failed",
			logfields.Output(res.Output),
			logfields.File(res.Source),
			logfields.Error(res.Err))
	} else {
		g.logger.Debug("Page written",
			logfields.Output(res.Output),
			logfields.File(res.Source),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	}
	g.recorder.ObserveRenderDuration(res.Mode, res.Duration)
	g.recorder.IncPageResult(res.Mode, result)
	g.observer.ObservePage(res)
}

func fingerprint(p *render.Page) string {
	return mdfp.CalculateFingerprintFromParts(string(p.FrontMatter), string(p.Body))
}

// writeAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partially written page.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	// #nosec G302 -- generated pages are meant to be world readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
