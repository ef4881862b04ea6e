package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFiles writes name→content pairs under dir, creating parents.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// fixture creates template and content directories for a test.
func fixture(t *testing.T, templates, content map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	tdir := filepath.Join(root, "templates")
	cdir := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(tdir, 0o750))
	require.NoError(t, os.MkdirAll(cdir, 0o750))
	writeFiles(t, tdir, templates)
	writeFiles(t, cdir, content)
	return tdir, cdir
}
