package render

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/datatree"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestRenderFile_LayoutSnapshot(t *testing.T) {
	tdir, cdir := fixture(t, map[string]string{
		"base.html":    "<html><head><title>{{title}} | {{site}}</title></head><body>{{content}}</body></html>",
		"article.html": "<article><h1>{{title}}</h1>{{#tags}}<span>{{.}}</span>{{/tags}}{{content}}</article>",
	}, map[string]string{
		"intro.md": "---\ntitle: Intro\ntags: [go, web]\n---\n# Heading\n\nSome *text*.\n",
	})

	out, err := NewRenderer(tdir).RenderFile(
		Compose("base", datatree.Tree{"site": "mdsite"}, Leaf("article")), cdir, "intro", nil)
	require.NoError(t, err)
	snaps.MatchSnapshot(t, out)
}
