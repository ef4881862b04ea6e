package site

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/schema"
)

// PageError is one failed page of a folder batch.
type PageError struct {
	Stem string
	Err  error
}

// BatchError collects the failures of a folder batch. Pages not listed were
// written successfully.
type BatchError struct {
	Folder   string
	Failures []PageError
}

func (e *BatchError) Error() string {
	stems := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		stems[i] = f.Stem
	}
	msg := fmt.Sprintf("folder %s: %d page(s) failed: %s", e.Folder, len(e.Failures), strings.Join(stems, ", "))
	if len(e.Failures) > 0 {
		msg += ": " + e.Failures[0].Err.Error()
	}
	return msg
}

// Unwrap exposes every page error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// IsBatchError reports whether err wraps a *BatchError, that is a batch
// where only some pages failed.
func IsBatchError(err error) bool {
	var batch *BatchError
	return stdErrors.As(err, &batch)
}

// IsFatal reports whether err is an output filesystem failure, which stops a
// build instead of being isolated to one page.
func IsFatal(err error) bool {
	return errors.IsCategory(err, errors.CategoryFileSystem)
}

// FolderResult summarizes a folder batch.
type FolderResult struct {
	Folder string
	// Written lists output paths, sorted.
	Written []string
	// Failed lists failures, sorted by stem.
	Failed []PageError
}

// Stems lists the stems of markdown files directly under
// <content>/<folder>, in directory order. Subdirectories and files without
// the .md extension are skipped.
func (g *Generator) Stems(folder string) ([]string, error) {
	dir, err := g.folderDir(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ContentNotFound(dir, err)
		}
		return nil, errors.FileSystem("read content folder", dir, err)
	}

	var stems []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != render.ContentExt {
			continue
		}
		stems = append(stems, strings.TrimSuffix(entry.Name(), render.ContentExt))
	}
	return stems, nil
}

func (g *Generator) folderDir(folder string) (string, error) {
	if folder == "" || !filepath.IsLocal(filepath.FromSlash(folder)) {
		return "", errors.ValidationFailed("folder", strconv.Quote(folder)+" is not a path inside the content directory")
	}
	return filepath.Join(g.opts.ContentDir, filepath.FromSlash(folder)), nil
}

// EmitFolder renders n bound to every markdown file directly under
// <content>/<folder> and writes <output>/<folder>/<stem>.html.
//
// Pages render concurrently. A page that fails to load or render is
// isolated: the others are still written and the failures come back as a
// *BatchError. With FailFast the first failure cancels pages that have not
// started and is returned as-is. An output write failure always does the
// same, FailFast or not. A page that fails never leaves an output file
// behind.
func (g *Generator) EmitFolder(ctx context.Context, folder string, n *render.Node, s schema.Schema) (*FolderResult, error) {
	if err := n.Validate(); err != nil {
		return nil, errors.ValidationFailed("node", err.Error())
	}
	stems, err := g.Stems(folder)
	if err != nil {
		return nil, err
	}
	contentDir, _ := g.folderDir(folder)
	outDir := filepath.Join(g.opts.OutputDir, filepath.FromSlash(folder))
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, errors.FileSystem("create output folder", outDir, err)
	}

	g.logger.Info("Emitting folder", logfields.Folder(folder), logfields.Pages(len(stems)))

	res := &FolderResult{Folder: folder}
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	for _, stem := range stems {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out := filepath.Join(outDir, stem+OutputExt)
			err := g.emitPage(n, contentDir, stem, out, s)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, PageError{Stem: stem, Err: err})
				if g.opts.FailFast || IsFatal(err) {
					return err
				}
				return nil
			}
			res.Written = append(res.Written, out)
			return nil
		})
	}

	waitErr := eg.Wait()
	sort.Strings(res.Written)
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].Stem < res.Failed[j].Stem })

	if waitErr != nil {
		return res, waitErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(res.Failed) > 0 {
		return res, &BatchError{Folder: folder, Failures: res.Failed}
	}
	return res, nil
}

func (g *Generator) emitPage(n *render.Node, contentDir, stem, out string, s schema.Schema) error {
	start := time.Now()
	result := PageResult{
		Output: out,
		Source: filepath.Join(contentDir, stem+render.ContentExt),
		Tree:   n.String(),
		Mode:   "file",
	}

	err := func() error {
		page, err := g.renderer.LoadPage(contentDir, stem, s)
		if err != nil {
			return err
		}
		result.Fingerprint = fingerprint(page)
		html, err := g.renderer.RenderPage(n, page)
		if err != nil {
			return err
		}
		return write(out, html)
	}()

	result.Duration = time.Since(start)
	result.Err = err
	g.finish(result)
	return err
}

// URL returns the site-relative URL of a folder page.
func URL(folder, stem string) string {
	return path.Join(filepath.ToSlash(folder), stem+OutputExt)
}
