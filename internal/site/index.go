package site

import (
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/schema"
)

// PagesKey is the context key listing a folder's pages on an index page.
const PagesKey = "pages"

// CollectPages decodes the metadata of every page in a folder, sorted by
// stem. Each entry is the page's metadata plus "stem", "url" (relative to
// the site root) and "excerpt" (first paragraph as plain text).
//
// Pages that fail to load are reported in a *BatchError alongside the
// entries that did load.
func (g *Generator) CollectPages(folder string, s schema.Schema) ([]datatree.Tree, error) {
	stems, err := g.Stems(folder)
	if err != nil {
		return nil, err
	}
	sort.Strings(stems)
	contentDir, _ := g.folderDir(folder)

	entries := make([]datatree.Tree, 0, len(stems))
	var failures []PageError
	for _, stem := range stems {
		page, err := g.renderer.LoadPage(contentDir, stem, s)
		if err != nil {
			failures = append(failures, PageError{Stem: stem, Err: err})
			continue
		}
		entry := datatree.CloneTree(page.Meta)
		datatree.Merge(entry, datatree.Tree{
			"stem":    stem,
			"url":     URL(folder, stem),
			"excerpt": markdown.Excerpt(page.HTML),
		})
		entries = append(entries, entry)
	}
	if len(failures) > 0 {
		return entries, &BatchError{Folder: folder, Failures: failures}
	}
	return entries, nil
}

// EmitIndex renders a listing of a folder's pages to <output>/<name>.html.
// Every level of n sees the list under PagesKey; local context overrides it.
//
// Pages that fail to load are left out of the listing (their failure is
// reported by EmitFolder) unless FailFast is set.
func (g *Generator) EmitIndex(name string, n *render.Node, folder string, s schema.Schema) error {
	start := time.Now()
	out := g.outputPath(name)

	err := func() error {
		if err := checkName(name); err != nil {
			return err
		}
		entries, err := g.CollectPages(folder, s)
		if err != nil {
			if !IsBatchError(err) || g.opts.FailFast {
				return err
			}
			g.logger.Warn("Index omits pages that failed to load", logfields.Folder(folder), logfields.Error(err))
		}

		list := make([]any, len(entries))
		for i, e := range entries {
			list[i] = e
		}
		page := &render.Page{
			Stem: filepath.Base(name),
			Path: out,
			Meta: datatree.Tree{PagesKey: list},
		}
		html, err := g.renderer.RenderPage(n, page)
		if err != nil {
			return err
		}
		return write(out, html)
	}()

	g.finish(PageResult{Output: out, Tree: n.String(), Mode: "index", Duration: time.Since(start), Err: err})
	return err
}
