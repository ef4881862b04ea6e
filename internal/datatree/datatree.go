// Package datatree holds the structured data trees bound to template
// evaluation and the deep merge used to compose them.
//
// A tree is a string-keyed mapping whose values are nil, booleans, numbers,
// strings, []any sequences or nested map[string]any mappings.
package datatree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tree is a string-keyed structured data tree.
type Tree = map[string]any

// Merge deep-merges src into dst.
//
// Keys present on only one side are preserved. When both sides hold a
// mapping for a key the mappings merge recursively; otherwise src's value
// replaces dst's value. Sequences are replaced, never concatenated.
func Merge(dst, src Tree) {
	for k, sv := range src {
		dst[k] = MergeValue(dst[k], sv)
	}
}

// MergeValue merges src into dst and returns the result. dst is modified in
// place when both values are mappings.
func MergeValue(dst, src any) any {
	dm, dok := asTree(dst)
	sm, sok := asTree(src)
	if !dok || !sok {
		return Clone(src)
	}
	if dm == nil {
		dm = Tree{}
	}
	Merge(dm, sm)
	return dm
}

// Clone returns a deep copy of v. Mappings and sequences are copied;
// scalars are returned as-is.
func Clone(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		if vv == nil {
			return vv
		}
		out := make(Tree, len(vv))
		for k, val := range vv {
			out[k] = Clone(val)
		}
		return out
	case []any:
		if vv == nil {
			return vv
		}
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// CloneTree deep-copies a tree. A nil tree yields an empty tree.
func CloneTree(t Tree) Tree {
	if t == nil {
		return Tree{}
	}
	return Clone(t).(Tree)
}

// FromValue encodes any Go value into a tree by round-tripping it through
// YAML, so `yaml` struct tags name the resulting keys. The value must encode
// to a mapping.
func FromValue(v any) (Tree, error) {
	if t, ok := v.(Tree); ok {
		return CloneTree(t), nil
	}
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if decoded == nil {
		return Tree{}, nil
	}
	t, ok := asTree(Normalize(decoded))
	if !ok {
		return nil, fmt.Errorf("value of type %T does not encode to a mapping", v)
	}
	return t, nil
}

// Normalize converts map[any]any mappings (as produced by some YAML
// decoders) into map[string]any, recursively.
func Normalize(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		for k, val := range vv {
			vv[k] = Normalize(val)
		}
		return vv
	case map[any]any:
		out := make(Tree, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		for i, val := range vv {
			vv[i] = Normalize(val)
		}
		return vv
	default:
		return v
	}
}

func asTree(v any) (Tree, bool) {
	t, ok := v.(map[string]any)
	return t, ok
}
