package config

import (
	"fmt"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/schema"
)

// NodeSpec is the YAML form of a render tree. The node kind follows from
// which of Context and Child are set.
type NodeSpec struct {
	Template string         `yaml:"template"`
	Context  map[string]any `yaml:"context,omitempty"`
	Child    *NodeSpec      `yaml:"child,omitempty"`
}

// Build converts the node description to a render tree.
func (s *NodeSpec) Build() (*render.Node, error) {
	if s == nil {
		return nil, fmt.Errorf("node is missing")
	}
	if s.Template == "" {
		return nil, fmt.Errorf("node template is empty")
	}
	var ctx datatree.Tree
	if s.Context != nil {
		ctx, _ = datatree.Normalize(s.Context).(datatree.Tree)
	}
	if s.Child == nil {
		if ctx == nil {
			return render.Leaf(s.Template), nil
		}
		return render.Data(s.Template, ctx), nil
	}
	child, err := s.Child.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Template, err)
	}
	if ctx == nil {
		return render.Wrap(s.Template, child), nil
	}
	return render.Compose(s.Template, ctx, child), nil
}

// PageSpec is a standalone page written to <output>/<Output>.html.
type PageSpec struct {
	Output string    `yaml:"output"`
	Node   *NodeSpec `yaml:"node"`
}

// FolderSpec emits every markdown file of a content folder through Node.
type FolderSpec struct {
	Name string `yaml:"name"`
	// Required front matter keys; pages missing one fail to decode.
	Required []string  `yaml:"required,omitempty"`
	Node     *NodeSpec `yaml:"node"`
	// Index optionally renders a listing of the folder's pages.
	Index *PageSpec `yaml:"index,omitempty"`
}

// Schema returns the metadata schema for the folder's pages.
func (f FolderSpec) Schema() schema.Schema {
	return schema.Keys(f.Required...)
}
