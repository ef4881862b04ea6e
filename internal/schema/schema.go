// Package schema provides the metadata schema capability consumed by
// file-bound rendering: decoding parsed frontmatter into a caller-defined
// shape and encoding it back into a context tree.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
)

// Schema decodes parsed frontmatter fields and returns the tree that is
// merged into the rendering context.
type Schema interface {
	Decode(fields map[string]any) (datatree.Tree, error)
}

// Validator may be implemented by typed metadata to reject decoded values.
type Validator interface {
	Validate() error
}

// MissingFieldsError reports required keys absent from the frontmatter.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required frontmatter fields: " + strings.Join(e.Fields, ", ")
}

// For returns a schema decoding frontmatter into T. Keys follow T's `yaml`
// struct tags. If *T or T implements Validator it is called after decoding.
func For[T any]() Schema {
	return typed[T]{}
}

type typed[T any] struct{}

func (typed[T]) Decode(fields map[string]any) (datatree.Tree, error) {
	v, err := DecodeInto[T](fields)
	if err != nil {
		return nil, err
	}
	return datatree.FromValue(v)
}

// DecodeInto decodes frontmatter fields into a value of type T.
func DecodeInto[T any](fields map[string]any) (T, error) {
	var v T
	raw, err := yaml.Marshal(fields)
	if err != nil {
		return v, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode frontmatter into %T: %w", v, err)
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, err
		}
	} else if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Keys returns a free-form schema that accepts any mapping as long as every
// required key is present with a non-null value.
func Keys(required ...string) Schema {
	return keys(required)
}

// Any accepts any frontmatter mapping.
var Any = Keys()

type keys []string

func (k keys) Decode(fields map[string]any) (datatree.Tree, error) {
	var missing []string
	for _, key := range k {
		if v, ok := fields[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingFieldsError{Fields: missing}
	}
	return datatree.CloneTree(fields), nil
}
