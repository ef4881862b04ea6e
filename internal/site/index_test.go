package site

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
	siteerrors "git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/schema"
)

func indexFiles() map[string]string {
	return map[string]string{
		"templates/base.html": "<main>{{content}}</main>",
		"templates/list.html": "<h1>{{heading}}</h1><ul>{{#pages}}<li><a href=\"/{{url}}\">{{title}}</a> {{excerpt}}</li>{{/pages}}</ul>",
		"content/posts/b.md":  "---\ntitle: Second\n---\n# Head\n\nThe *second* post.\n",
		"content/posts/a.md":  "---\ntitle: First\n---\nFirst post.\n",
	}
}

func TestCollectPages_SortedWithDerivedKeys(t *testing.T) {
	ts := newTestSite(t, indexFiles())

	entries, err := ts.gen.CollectPages("posts", schema.Keys("title"))
	require.NoError(t, err)
	require.Equal(t, []datatree.Tree{
		{"title": "First", "stem": "a", "url": "posts/a.html", "excerpt": "First post."},
		{"title": "Second", "stem": "b", "url": "posts/b.html", "excerpt": "The second post."},
	}, entries)
}

func TestEmitIndex_RendersListing(t *testing.T) {
	ts := newTestSite(t, indexFiles())

	n := render.Wrap("base", render.Data("list", datatree.Tree{"heading": "Posts"}))
	require.NoError(t, ts.gen.EmitIndex("posts/index", n, "posts", schema.Keys("title")))

	require.Equal(t,
		"<main><h1>Posts</h1><ul>"+
			"<li><a href=\"/posts/a.html\">First</a> First post.</li>"+
			"<li><a href=\"/posts/b.html\">Second</a> The second post.</li>"+
			"</ul></main>",
		ts.read(t, "posts/index.html"))
	require.Equal(t, 1, ts.recorder.results["index/success"])
}

func TestEmitIndex_SkipsBrokenPagesUnlessFailFast(t *testing.T) {
	files := indexFiles()
	files["content/posts/c.md"] = "no front matter"
	n := render.Data("list", datatree.Tree{"heading": "Posts"})

	ts := newTestSite(t, files)
	require.NoError(t, ts.gen.EmitIndex("index", n, "posts", schema.Keys("title")))
	require.NotContains(t, ts.read(t, "index.html"), "posts/c.html")

	strict := newTestSite(t, files, func(o *Options) { o.FailFast = true })
	err := strict.gen.EmitIndex("index", n, "posts", schema.Keys("title"))
	require.True(t, siteerrors.IsCategory(err, siteerrors.CategoryMetadataDecode))
	require.Empty(t, strict.outputs(t))
}

func TestIsBatchError(t *testing.T) {
	batch := &BatchError{Folder: "posts", Failures: []PageError{{Stem: "c", Err: siteerrors.ContentNotFound("c.md", nil)}}}

	require.True(t, IsBatchError(batch))
	require.True(t, IsBatchError(fmt.Errorf("collect posts: %w", batch)))
	require.False(t, IsBatchError(siteerrors.ContentNotFound("c.md", nil)))
	require.False(t, IsBatchError(nil))
}
