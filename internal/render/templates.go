package render

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cbroglie/mustache"

	"git.home.luguber.info/inful/mdsite/internal/errors"
)

// TemplateExt is appended to template names to locate their files.
const TemplateExt = ".html"

// Templates resolves template names to mustache templates under a directory.
type Templates struct {
	dir      string
	partials mustache.PartialProvider
}

// NewTemplates returns a loader for dir. Partials ({{> name}}) resolve the
// same way as top-level templates.
func NewTemplates(dir string) *Templates {
	return &Templates{
		dir:      dir,
		partials: &mustache.FileProvider{Paths: []string{dir}, Extensions: []string{TemplateExt}},
	}
}

// Dir returns the template root.
func (t *Templates) Dir() string { return t.dir }

// Path returns the file a template name resolves to.
func (t *Templates) Path(name string) string {
	return filepath.Join(t.dir, filepath.FromSlash(name)+TemplateExt)
}

// Load reads and parses a template.
//
// Interpolation is raw: values are inserted without HTML escaping so that
// rendered fragments nest verbatim.
func (t *Templates) Load(name string) (*mustache.Template, error) {
	path := t.Path(name)
	if !filepath.IsLocal(filepath.FromSlash(name) + TemplateExt) {
		return nil, errors.TemplateNotFound(name, path, fmt.Errorf("template name escapes %s", t.dir))
	}

	if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
		return nil, errors.TemplateNotFound(name, path, fmt.Errorf("%s is not a regular file", path))
	}

	// #nosec G304 -- path is validated to stay under the template directory.
	src, err := os.ReadFile(path)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.TemplateNotFound(name, path, err)
		}
		return nil, errors.FileSystem("read template", path, err)
	}

	tmpl, err := mustache.ParseStringPartialsRaw(string(src), t.partials, true)
	if err != nil {
		return nil, errors.TemplateRender(name, err)
	}
	return tmpl, nil
}
