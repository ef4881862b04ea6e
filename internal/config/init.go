package config

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdsite/internal/errors"
)

// Example returns the starter configuration written by Init.
func Example() *Config {
	return &Config{
		ContentDir:  "./content",
		TemplateDir: "./templates",
		OutputDir:   "./public",
		Markdown:    MarkdownConfig{Extensions: []string{"gfm", "footnote"}},
		Pages: []PageSpec{{
			Output: "index",
			Node: &NodeSpec{
				Template: "base",
				Context:  map[string]any{"title": "Home"},
				Child:    &NodeSpec{Template: "home"},
			},
		}},
		Folders: []FolderSpec{{
			Name:     "posts",
			Required: []string{"title"},
			Node:     &NodeSpec{Template: "base", Child: &NodeSpec{Template: "article"}},
			Index: &PageSpec{
				Output: "posts/index",
				Node: &NodeSpec{
					Template: "base",
					Context:  map[string]any{"title": "Posts"},
					Child:    &NodeSpec{Template: "list"},
				},
			},
		}},
		Ledger: ".mdsite/ledger.db",
	}
}

var starterFiles = map[string]string{
	"templates/base.html": `<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{title}}</title></head>
<body>
{{content}}
</body>
</html>
`,
	"templates/home.html": `<h1>Welcome</h1>
<p><a href="/posts/index.html">All posts</a></p>
`,
	"templates/article.html": `<article>
<h1>{{title}}</h1>
{{content}}
</article>
`,
	"templates/list.html": `<h1>{{title}}</h1>
<ul>
{{#pages}}<li><a href="/{{url}}">{{title}}</a> {{excerpt}}</li>
{{/pages}}</ul>
`,
	"content/posts/hello.md": `---
title: Hello
---
Your first post. Edit content/posts/hello.md and run mdsite build.
`,
}

// Init writes a starter configuration to configPath and scaffolds templates
// and content next to it. Existing files are kept unless force is set. It
// returns the files written.
func Init(configPath string, force bool) ([]string, error) {
	data, err := yaml.Marshal(Example())
	if err != nil {
		return nil, errors.InternalError("marshal example config", err)
	}

	files := map[string][]byte{configPath: data}
	root := filepath.Dir(configPath)
	for rel, content := range starterFiles {
		files[filepath.Join(root, filepath.FromSlash(rel))] = []byte(content)
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return nil, errors.ValidationFailed("config", fmt.Sprintf("%s already exists (use --force to overwrite)", configPath))
		}
	}

	var written []string
	for _, path := range sortedKeys(files) {
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !stdErrors.Is(err, fs.ErrNotExist) {
				return written, errors.FileSystem("stat", path, err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return written, errors.FileSystem("create directory", filepath.Dir(path), err)
		}
		// #nosec G306 -- starter files are meant to be edited by the user.
		if err := os.WriteFile(path, files[path], 0o644); err != nil {
			return written, errors.FileSystem("write", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
