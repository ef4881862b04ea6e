package buildlog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/site"
)

const testBuildID = "0b7c6f7e-6a43-4c1b-9a0d-5b1e2f3a4c5d"

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedger_BuildLifecycle(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()
	started := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, l.Begin(ctx, testBuildID, started))

	builds, err := l.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Equal(t, "running", builds[0].Outcome)
	require.True(t, builds[0].FinishedAt.IsZero())
	require.Zero(t, builds[0].Duration())

	require.NoError(t, l.Finish(ctx, Build{
		ID:         testBuildID,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Outcome:    "partial",
		Pages:      3,
		Failed:     1,
		Error:      "folder posts: 1 page(s) failed: b",
	}))

	builds, err = l.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	b := builds[0]
	require.Equal(t, testBuildID, b.ID)
	require.Equal(t, "partial", b.Outcome)
	require.Equal(t, 3, b.Pages)
	require.Equal(t, 1, b.Failed)
	require.Equal(t, 1500*time.Millisecond, b.Duration())
	require.Contains(t, b.Error, "posts")
}

func TestLedger_FinishUnknownBuild(t *testing.T) {
	l := openLedger(t)
	err := l.Finish(t.Context(), Build{ID: "missing", FinishedAt: time.Now(), Outcome: "success"})
	require.Error(t, err)
}

func TestLedger_RecentNewestFirstWithLimit(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, l.Begin(ctx, id, base.Add(time.Duration(i)*time.Minute)))
	}

	builds, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	require.Equal(t, "third", builds[0].ID)
	require.Equal(t, "second", builds[1].ID)
}

func TestLedger_ObserverRecordsPages(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()
	require.NoError(t, l.Begin(ctx, testBuildID, time.Now()))

	obs := l.Observer(ctx, testBuildID, nil)
	obs.ObservePage(site.PageResult{
		Output:      "public/posts/a.html",
		Source:      "content/posts/a.md",
		Tree:        "base > article",
		Mode:        "file",
		Fingerprint: "abc123",
		Duration:    2 * time.Millisecond,
	})
	obs.ObservePage(site.PageResult{
		Output: "public/index.html",
		Tree:   "base > home",
		Mode:   "page",
		Err:    errors.New("template_not_found (fatal): template not found \"home\""),
	})

	pages, err := l.Pages(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	require.Equal(t, StatusWritten, pages[0].Status)
	require.Equal(t, "abc123", pages[0].Fingerprint)
	require.Equal(t, 2*time.Millisecond, pages[0].Duration)
	require.Empty(t, pages[0].Error)

	require.Equal(t, StatusFailed, pages[1].Status)
	require.Empty(t, pages[1].Source)
	require.Contains(t, pages[1].Error, "home")

	fp, err := l.LastFingerprint(ctx, "content/posts/a.md")
	require.NoError(t, err)
	require.Equal(t, "abc123", fp)

	fp, err = l.LastFingerprint(ctx, "content/posts/none.md")
	require.NoError(t, err)
	require.Empty(t, fp)
}

func TestLedger_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Begin(t.Context(), testBuildID, time.Now()))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	builds, err := l.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Equal(t, testBuildID, builds[0].ID)
}
