package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
	siteerrors "git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/retry"
)

const sampleConfig = `
content_dir: ./src
output_dir: ${MDSITE_TEST_OUT}
concurrency: 2
pages:
  - output: index
    node: {template: base, context: {title: Home}, child: {template: home}}
folders:
  - name: posts
    required: [title]
    node: {template: base, child: {template: article}}
    index:
      output: posts/index
      node: {template: list}
events:
  nats_url: nats://localhost:4222
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ParsesAndAppliesDefaults(t *testing.T) {
	t.Setenv("MDSITE_TEST_OUT", "/tmp/site")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "./src", cfg.ContentDir)
	require.Equal(t, "./templates", cfg.TemplateDir)
	require.Equal(t, "/tmp/site", cfg.OutputDir)
	require.Equal(t, 2, cfg.Concurrency)
	require.Equal(t, DefaultSubject, cfg.Events.Subject)
	require.True(t, cfg.Events.Enabled())
	require.Len(t, cfg.Pages, 1)
	require.Len(t, cfg.Folders, 1)
	require.Equal(t, []string{"title"}, cfg.Folders[0].Required)
	require.Equal(t, "posts/index", cfg.Folders[0].Index.Output)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("bad.yaml", []byte("pages: [unclosed"))
	require.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
	require.Contains(t, err.Error(), "bad.yaml")
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"escaping output":   "pages: [{output: ../x, node: {template: a}}]",
		"empty output":      "pages: [{node: {template: a}}]",
		"missing node":      "pages: [{output: x}]",
		"empty template":    "pages: [{output: x, node: {child: {template: a}}}]",
		"duplicate output":  "pages: [{output: x, node: {template: a}}, {output: x, node: {template: b}}]",
		"index collision":   "pages: [{output: p/index, node: {template: a}}]\nfolders: [{name: p, node: {template: a}, index: {output: p/index, node: {template: l}}}]",
		"bad folder":        "folders: [{name: /abs, node: {template: a}}]",
		"duplicate folder":  "folders: [{name: p, node: {template: a}}, {name: p, node: {template: b}}]",
		"negative workers":  "concurrency: -1",
		"unknown extension": "markdown: {extensions: [nope]}",
		"nested bad child":  "folders: [{name: p, node: {template: a, child: {context: {x: 1}}}}]",
		"bad backoff":       "events: {nats_url: nats://x, backoff: sometimes}",
		"negative retries":  "events: {nats_url: nats://x, max_retries: -2}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("mdsite.yaml", []byte(body))
			require.Error(t, err)
			require.True(t, siteerrors.IsCategory(err, siteerrors.CategoryValidation), err.Error())
		})
	}
}

func TestNodeSpec_BuildKinds(t *testing.T) {
	cases := []struct {
		name string
		spec NodeSpec
		kind render.Kind
	}{
		{"leaf", NodeSpec{Template: "a"}, render.KindLeaf},
		{"data", NodeSpec{Template: "a", Context: map[string]any{"x": 1}}, render.KindData},
		{"wrap", NodeSpec{Template: "a", Child: &NodeSpec{Template: "b"}}, render.KindWrap},
		{"compose", NodeSpec{Template: "a", Context: map[string]any{}, Child: &NodeSpec{Template: "b"}}, render.KindCompose},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := tc.spec.Build()
			require.NoError(t, err)
			require.Equal(t, tc.kind, n.Kind())
		})
	}
}

func TestNodeSpec_BuildFromYAML(t *testing.T) {
	cfg, err := Parse("mdsite.yaml", []byte(sampleConfig))
	require.NoError(t, err)

	n, err := cfg.Pages[0].Node.Build()
	require.NoError(t, err)
	require.Equal(t, "base > home", n.String())
	require.Equal(t, datatree.Tree{"title": "Home"}, n.Context())
}

func TestFolderSpec_Schema(t *testing.T) {
	s := FolderSpec{Required: []string{"title"}}.Schema()
	_, err := s.Decode(map[string]any{"draft": true})
	require.Error(t, err)

	tree, err := s.Decode(map[string]any{"title": "x"})
	require.NoError(t, err)
	require.Equal(t, "x", tree["title"])
}

func TestEventsConfig_RetryPolicy(t *testing.T) {
	cfg, err := Parse("mdsite.yaml", []byte("events: {nats_url: nats://x, max_retries: 3, backoff: Exponential}"))
	require.NoError(t, err)
	p := cfg.Events.RetryPolicy()
	require.Equal(t, retry.ModeExponential, p.Mode)
	require.Equal(t, 3, p.MaxRetries)
	require.Zero(t, Default().Events.RetryPolicy().MaxRetries)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "./content", cfg.ContentDir)
	require.Equal(t, "./public", cfg.OutputDir)
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.Events.Enabled())
}

func TestLoadEnvFiles_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("MDSITE_ENV_A=from-file\nMDSITE_ENV_B=from-file\n"), 0o600))
	t.Setenv("MDSITE_ENV_A", "from-env")
	t.Setenv("MDSITE_ENV_B", "")
	require.NoError(t, os.Unsetenv("MDSITE_ENV_B"))

	path := writeConfig(t, "content_dir: ${MDSITE_ENV_A}\noutput_dir: ${MDSITE_ENV_B}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.ContentDir)
	require.Equal(t, "from-file", cfg.OutputDir)
}

func TestInit_WritesStarterSite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mdsite.yaml")

	written, err := Init(path, false)
	require.NoError(t, err)
	require.Contains(t, written, path)
	require.FileExists(t, filepath.Join(dir, "templates", "base.html"))
	require.FileExists(t, filepath.Join(dir, "content", "posts", "hello.md"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Folders, 1)
	require.NotNil(t, cfg.Folders[0].Index)

	_, err = Init(path, false)
	require.True(t, siteerrors.IsCategory(err, siteerrors.CategoryValidation))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "base.html"), []byte("custom"), 0o600))
	_, err = Init(path, true)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "templates", "base.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<!doctype html>")
}
