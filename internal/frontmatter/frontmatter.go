// Package frontmatter separates a leading YAML block delimited by `---`
// fences from the markdown body that follows it.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// ErrNotMapping indicates the frontmatter parsed as YAML but is not a mapping.
var ErrNotMapping = errors.New("yaml frontmatter is not a mapping")

// Block is the result of splitting a document.
type Block struct {
	// Raw is the frontmatter without delimiters. Empty when absent or empty.
	Raw []byte
	// Body is everything after the closing delimiter (or the whole input).
	Body []byte
	// Present reports whether the document opened with a delimiter.
	Present bool
}

// Split separates YAML frontmatter from the markdown body.
//
// If the document does not start with a `---` line, Present is false and
// Body is the full input. Both LF and CRLF line endings are accepted.
func Split(content []byte) (Block, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Block{Body: content}, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return Block{Raw: []byte{}, Body: content[start+len(open):], Present: true}, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing fence on the very last line has no trailing newline.
		closeEOF := []byte(nl + "---")
		if bytes.HasSuffix(content, closeEOF) {
			end := len(content) - len(closeEOF) + len(nl)
			return Block{Raw: content[start:end], Body: []byte{}, Present: true}, nil
		}
		return Block{}, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return Block{
		Raw:     content[start:end],
		Body:    content[start+idx+len(closeSeq):],
		Present: true,
	}, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse yaml frontmatter: %w", err)
	}
	if decoded == nil {
		return map[string]any{}, nil
	}
	fields, ok := datatree.Normalize(decoded).(map[string]any)
	if !ok {
		return nil, ErrNotMapping
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
