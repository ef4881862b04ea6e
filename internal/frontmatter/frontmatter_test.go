package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	b, err := Split(input)
	require.NoError(t, err)
	require.False(t, b.Present)
	require.Empty(t, b.Raw)
	require.Equal(t, input, b.Body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	b, err := Split([]byte("---\ntitle: \"Hello\"\n---\nWorld\n"))
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("title: \"Hello\"\n"), b.Raw)
	require.Equal(t, []byte("World\n"), b.Body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	b, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("key: value\r\n"), b.Raw)
	require.Equal(t, []byte("# Title\r\n"), b.Body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	b, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Empty(t, b.Raw)
	require.Equal(t, []byte("# Title\n"), b.Body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	b, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("title: x\n"), b.Raw)
	require.Empty(t, b.Body)
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Hello\nauthor:\n  name: Ada\ntags: [a, b]\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"title":  "Hello",
		"author": map[string]any{"name": "Ada"},
		"tags":   []any{"a", "b"},
	}, fields)
}

func TestParseYAML_EmptyYieldsEmptyMap(t *testing.T) {
	fields, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML([]byte("title: [unclosed\n"))
	require.Error(t, err)
}

func TestParseYAML_NotMapping(t *testing.T) {
	_, err := ParseYAML([]byte("- a\n- b\n"))
	require.ErrorIs(t, err, ErrNotMapping)
}
