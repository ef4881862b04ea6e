// Package markdown is the metadata extractor: it converts markdown bodies to
// HTML with goldmark and hands back the raw frontmatter for decoding.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
)

// Options controls how markdown is converted.
type Options struct {
	// Extensions enables goldmark extensions by name. See KnownExtensions.
	Extensions []string
	// EscapeHTML drops raw HTML embedded in markdown instead of passing it
	// through to the output.
	EscapeHTML bool
	// HeadingIDs assigns id attributes to headings.
	HeadingIDs bool
}

var extensions = map[string]goldmark.Extender{
	"gfm":            extension.GFM,
	"table":          extension.Table,
	"strikethrough":  extension.Strikethrough,
	"linkify":        extension.Linkify,
	"tasklist":       extension.TaskList,
	"footnote":       extension.Footnote,
	"typographer":    extension.Typographer,
	"definitionlist": extension.DefinitionList,
}

// KnownExtensions lists the extension names accepted in Options.
func KnownExtensions() []string {
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document is a markdown file split into its converted body and raw frontmatter.
type Document struct {
	HTML           string
	FrontMatter    []byte
	HasFrontMatter bool
	// Body is the markdown source after the frontmatter block.
	Body []byte
}

// Converter renders markdown to HTML. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a converter for the given options.
func NewConverter(opts Options) (*Converter, error) {
	var exts []goldmark.Extender
	for _, name := range opts.Extensions {
		ext, ok := extensions[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown markdown extension %q (known: %s)", name, strings.Join(KnownExtensions(), ", "))
		}
		exts = append(exts, ext)
	}

	var rendererOpts []goldmark.Option
	if !opts.EscapeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	if opts.HeadingIDs {
		rendererOpts = append(rendererOpts, goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	}

	md := goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)
	return &Converter{md: md}, nil
}

// Default returns a converter with CommonMark behavior and raw HTML passthrough.
func Default() *Converter {
	c, _ := NewConverter(Options{})
	return c
}

// Convert renders a markdown body (frontmatter already removed) to HTML.
func (c *Converter) Convert(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Extract splits frontmatter from source and converts the remaining body.
func (c *Converter) Extract(source []byte) (Document, error) {
	block, err := frontmatter.Split(source)
	if err != nil {
		return Document{}, err
	}
	out, err := c.Convert(block.Body)
	if err != nil {
		return Document{}, err
	}
	return Document{
		HTML:           out,
		FrontMatter:    block.Raw,
		HasFrontMatter: block.Present,
		Body:           block.Body,
	}, nil
}
