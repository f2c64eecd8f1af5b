// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfbatch/internal/batch"
	"github.com/pdiddy/pdfbatch/internal/cache"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func summary(id string, started time.Time, entries ...batch.Entry) batch.Summary {
	return batch.Summary{
		RunID:     id,
		Input:     "/in",
		OutRoot:   "/out",
		Method:    types.MethodAuto,
		StartedAt: started,
		Duration:  3 * time.Second,
		Entries:   entries,
	}
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	t0 := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

	first := summary("run-1", t0,
		batch.Entry{Path: "/in/a.pdf", Status: types.DocConverted, Duration: time.Second, Cache: cache.Miss, Artifact: "/out/a/auto"},
		batch.Entry{Path: "/in/sub/b.pdf", RelDir: "sub", Status: types.DocFailed, Error: "boom"},
	)
	second := summary("run-2", t0.Add(time.Hour),
		batch.Entry{Path: "/in/a.pdf", Status: types.DocConverted, Duration: 2 * time.Second, Cache: cache.Hit},
	)
	require.NoError(t, l.Record(ctx, first))
	require.NoError(t, l.Record(ctx, second))

	runs, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, Run{
		ID: "run-1", StartedAt: t0, Duration: 3 * time.Second, Input: "/in", OutRoot: "/out",
		Method: types.MethodAuto, Converted: 1, Failed: 1,
	}, runs[1])

	runs, err = l.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	docs, err := l.Documents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, first.Entries, docs)

	hist, err := l.History(ctx, "/in/a.pdf")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, cache.Hit, hist[0].Cache)
	assert.Equal(t, cache.Miss, hist[1].Cache)
}

func TestHistoryResolvesRelativePath(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	abs := filepath.Join(wd, "docs", "a.pdf")
	require.NoError(t, l.Record(ctx, summary("run-1", time.Now(), batch.Entry{Path: abs, Status: types.DocConverted})))

	for _, p := range []string{"docs/a.pdf", "./docs/../docs/a.pdf", abs} {
		hist, err := l.History(ctx, p)
		require.NoError(t, err)
		require.Len(t, hist, 1, p)
		assert.Equal(t, abs, hist[0].Path)
	}
}

func TestRecordDuplicateRunFails(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	s := summary("run-1", time.Now(), batch.Entry{Path: "/in/a.pdf", Status: types.DocConverted})
	require.NoError(t, l.Record(ctx, s))
	assert.Error(t, l.Record(ctx, s))

	docs, err := l.Documents(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1, "failed transaction leaves no partial rows")
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, summary("run-1", time.Now())))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
