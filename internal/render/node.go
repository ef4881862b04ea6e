package render

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
)

// ContentKey is the reserved context key that receives a child's rendered
// output (or, for the innermost file-bound node, the markdown body).
const ContentKey = "content"

// Kind identifies which optional parts a Node carries.
type Kind int

const (
	// KindLeaf is a template name only.
	KindLeaf Kind = iota + 1
	// KindWrap is a template name and a child.
	KindWrap
	// KindData is a template name and local context.
	KindData
	// KindCompose is a template name, local context and a child.
	KindCompose
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindWrap:
		return "wrap"
	case KindData:
		return "data"
	case KindCompose:
		return "compose"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) hasContext() bool { return k == KindData || k == KindCompose }
func (k Kind) hasChild() bool   { return k == KindWrap || k == KindCompose }

// Node is one fragment of a render tree: a template, optional local context
// and an optional child whose output lands in the template's content key.
//
// Nodes are immutable once built. The local context is copied on
// construction and never handed out or modified afterwards, so the same
// tree may be rendered any number of times, concurrently.
type Node struct {
	kind     Kind
	template string
	context  datatree.Tree
	child    *Node
}

// Leaf returns a node rendering template with an empty context.
func Leaf(template string) *Node {
	return &Node{kind: KindLeaf, template: template}
}

// Wrap returns a node whose template receives child's output as content.
func Wrap(template string, child *Node) *Node {
	return &Node{kind: KindWrap, template: template, child: child}
}

// Data returns a leaf node bound to a local context.
func Data(template string, ctx datatree.Tree) *Node {
	return &Node{kind: KindData, template: template, context: datatree.CloneTree(ctx)}
}

// Compose returns a node with both a local context and a child.
func Compose(template string, ctx datatree.Tree, child *Node) *Node {
	return &Node{kind: KindCompose, template: template, context: datatree.CloneTree(ctx), child: child}
}

// New picks the kind from which optional parts are non-nil.
func New(template string, ctx datatree.Tree, child *Node) *Node {
	switch {
	case ctx != nil && child != nil:
		return Compose(template, ctx, child)
	case ctx != nil:
		return Data(template, ctx)
	case child != nil:
		return Wrap(template, child)
	default:
		return Leaf(template)
	}
}

// Kind reports the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Template returns the template name.
func (n *Node) Template() string { return n.template }

// Context returns a copy of the local context, or nil for kinds without one.
func (n *Node) Context() datatree.Tree {
	if !n.kind.hasContext() {
		return nil
	}
	return datatree.CloneTree(n.context)
}

// Child returns the nested node, or nil.
func (n *Node) Child() *Node { return n.child }

// Templates lists template names from the outermost node inward.
func (n *Node) Templates() []string {
	var names []string
	for cur := n; cur != nil; cur = cur.child {
		names = append(names, cur.template)
	}
	return names
}

// String renders the chain as "outer > inner".
func (n *Node) String() string {
	return strings.Join(n.Templates(), " > ")
}

// Validate checks the whole tree: every node needs a template name and
// wrap/compose nodes need a child.
func (n *Node) Validate() error {
	if n == nil {
		return fmt.Errorf("render tree is nil")
	}
	depth := 0
	for cur := n; cur != nil; cur = cur.child {
		switch {
		case cur.kind < KindLeaf || cur.kind > KindCompose:
			return fmt.Errorf("node at depth %d: invalid kind %v", depth, cur.kind)
		case strings.TrimSpace(cur.template) == "":
			return fmt.Errorf("node at depth %d: template name is empty", depth)
		case cur.kind.hasChild() && cur.child == nil:
			return fmt.Errorf("node at depth %d (%s): %s node requires a child", depth, cur.template, cur.kind)
		case !cur.kind.hasChild() && cur.child != nil:
			return fmt.Errorf("node at depth %d (%s): %s node cannot have a child", depth, cur.template, cur.kind)
		}
		depth++
	}
	return nil
}
