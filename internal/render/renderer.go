// Package render composes nested layout fragments into HTML.
//
// A render tree is a chain of Nodes. Rendering a node renders its child
// first and injects the child's output into the node's own template context
// under ContentKey. File-bound rendering additionally binds the tree to one
// markdown page: the page's metadata is merged into every level's context
// and its converted body becomes the innermost node's content.
package render

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cbroglie/mustache"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/schema"
)

// ContentExt is appended to file stems to locate markdown sources.
const ContentExt = ".md"

// ErrNoFrontMatter is the cause of a metadata decode error for a page
// without a leading frontmatter block.
var ErrNoFrontMatter = stdErrors.New("frontmatter block is missing")

// Page is one markdown file, read and decoded once and shared by every level
// of a file-bound render.
type Page struct {
	Stem string
	Path string
	// Meta is the decoded metadata tree produced by the schema.
	Meta datatree.Tree
	// HTML is the converted markdown body.
	HTML string
	// FrontMatter and Body are the raw source halves.
	FrontMatter []byte
	Body        []byte
}

// Renderer renders trees against a template directory. It holds no
// per-render state and is safe for concurrent use.
type Renderer struct {
	templates *Templates
	markdown  *markdown.Converter
	logger    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMarkdown sets the markdown converter (default: markdown.Default()).
func WithMarkdown(c *markdown.Converter) Option {
	return func(r *Renderer) { r.markdown = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer returns a renderer resolving templates under templateDir.
func NewRenderer(templateDir string, opts ...Option) *Renderer {
	r := &Renderer{
		templates: NewTemplates(templateDir),
		markdown:  markdown.Default(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Templates exposes the template loader.
func (r *Renderer) Templates() *Templates { return r.templates }

// Render renders a tree standalone: each level's context is its local
// context (or empty) plus the child's output under ContentKey.
func (r *Renderer) Render(n *Node) (string, error) {
	if err := n.Validate(); err != nil {
		return "", errors.ValidationFailed("node", err.Error())
	}
	return r.render(n)
}

func (r *Renderer) render(n *Node) (string, error) {
	tmpl, err := r.templates.Load(n.template)
	if err != nil {
		return "", err
	}

	data := datatree.Tree{}
	switch n.kind {
	case KindLeaf:
	case KindData:
		datatree.Merge(data, n.context)
	case KindWrap, KindCompose:
		inner, err := r.render(n.child)
		if err != nil {
			return "", err
		}
		if n.kind == KindCompose {
			datatree.Merge(data, n.context)
		}
		datatree.Merge(data, datatree.Tree{ContentKey: inner})
	}

	return r.execute(n.template, tmpl, data)
}

// RenderFile renders a tree bound to <contentDir>/<stem>.md. The page is
// loaded once and shared by every level of the tree.
func (r *Renderer) RenderFile(n *Node, contentDir, stem string, s schema.Schema) (string, error) {
	if err := n.Validate(); err != nil {
		return "", errors.ValidationFailed("node", err.Error())
	}
	page, err := r.LoadPage(contentDir, stem, s)
	if err != nil {
		return "", err
	}
	return r.renderPage(n, page)
}

// RenderPage renders a tree bound to an already loaded page.
func (r *Renderer) RenderPage(n *Node, p *Page) (string, error) {
	if err := n.Validate(); err != nil {
		return "", errors.ValidationFailed("node", err.Error())
	}
	return r.renderPage(n, p)
}

func (r *Renderer) renderPage(n *Node, p *Page) (string, error) {
	tmpl, err := r.templates.Load(n.template)
	if err != nil {
		return "", err
	}

	data := datatree.CloneTree(p.Meta)
	content := p.HTML
	switch n.kind {
	case KindLeaf:
	case KindData:
		datatree.Merge(data, n.context)
	case KindWrap, KindCompose:
		if content, err = r.renderPage(n.child, p); err != nil {
			return "", err
		}
		if n.kind == KindCompose {
			datatree.Merge(data, n.context)
		}
	}
	datatree.Merge(data, datatree.Tree{ContentKey: content})

	return r.execute(n.template, tmpl, data)
}

// LoadPage reads <contentDir>/<stem>.md, extracts its converted body and
// frontmatter, and decodes the frontmatter through s.
func (r *Renderer) LoadPage(contentDir, stem string, s schema.Schema) (*Page, error) {
	path := filepath.Join(contentDir, filepath.FromSlash(stem)+ContentExt)
	if !filepath.IsLocal(filepath.FromSlash(stem) + ContentExt) {
		return nil, errors.ContentNotFound(path, fmt.Errorf("stem %q escapes %s", stem, contentDir))
	}

	// #nosec G304 -- path is validated to stay under the content directory.
	src, err := os.ReadFile(path)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ContentNotFound(path, err)
		}
		return nil, errors.FileSystem("read content", path, err)
	}

	doc, err := r.markdown.Extract(src)
	if err != nil {
		return nil, errors.MetadataDecode(path, err)
	}
	if !doc.HasFrontMatter {
		return nil, errors.MetadataDecode(path, ErrNoFrontMatter)
	}
	fields, err := frontmatter.ParseYAML(doc.FrontMatter)
	if err != nil {
		return nil, errors.MetadataDecode(path, err)
	}
	if s == nil {
		s = schema.Any
	}
	meta, err := s.Decode(fields)
	if err != nil {
		return nil, errors.MetadataDecode(path, err)
	}

	return &Page{
		Stem:        stem,
		Path:        path,
		Meta:        meta,
		HTML:        doc.HTML,
		FrontMatter: doc.FrontMatter,
		Body:        doc.Body,
	}, nil
}

func (r *Renderer) execute(name string, tmpl *mustache.Template, data datatree.Tree) (string, error) {
	start := time.Now()
	out, err := tmpl.Render(data)
	if err != nil {
		return "", errors.TemplateRender(name, err)
	}
	r.logger.Debug("Rendered template",
		logfields.Template(name),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return out, nil
}
