package crontab

import (
	"context"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/cronsync/internal/logger"
)

const backupLine = "0 2 * * * /usr/local/bin/backup.sh"

func newTestReconciler(t *testing.T, table Table, opts ...[]JobOption) (*Reconciler, *Registry) {
	t.Helper()
	reg := NewRegistry()
	for _, o := range opts {
		_, err := reg.Declare(noopJob, o...)
		require.NoError(t, err)
	}
	codec, _ := testCodec(t)
	return NewReconciler(table, reg, codec, logger.Discard()), reg
}

func ownedLines(t *testing.T, r *Reconciler) []Entry {
	t.Helper()
	seq, err := r.Show(context.Background())
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestReconciler_AddKeepsForeignLines(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable(backupLine)
	r, reg := newTestReconciler(t, table, []JobOption{WithName("sync"), WithMinute("*/5")})

	report, err := r.Add(ctx)
	require.NoError(t, err)

	var job *Job
	for _, j := range reg.All() {
		job = j
	}

	lines := table.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, backupLine, lines[0])
	assert.Equal(t, r.codec.Encode(job), lines[1])

	assert.Empty(t, report.Removed)
	require.Len(t, report.Added, 1)
	assert.Equal(t, job.ID(), report.Added[0].Entry.ID)
	assert.Same(t, job, report.Added[0].Job)
	assert.Equal(t, 1, report.Kept)

	_, err = r.Remove(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{backupLine}, table.Lines())
}

func TestReconciler_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable(backupLine)
	r, _ := newTestReconciler(t, table,
		[]JobOption{WithName("a"), WithMinute("0")},
		[]JobOption{WithName("b"), WithHour("4")})

	_, err := r.Add(ctx)
	require.NoError(t, err)
	first := table.Lines()

	report, err := r.Add(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, table.Lines())
	assert.Len(t, report.Removed, 2)
	assert.Len(t, report.Added, 2)
	assert.Equal(t, 2, table.Writes())
}

func TestReconciler_AddReplacesStaleLines(t *testing.T) {
	ctx := context.Background()
	codec, inv := testCodec(t)
	stale := "0 0 * * * " + inv + " run deadbeefdeadbeef # " + codec.Marker()
	table := NewMemoryTable(stale, backupLine)
	r, _ := newTestReconciler(t, table, []JobOption{WithName("fresh")})

	report, err := r.Add(ctx)
	require.NoError(t, err)

	require.Len(t, report.Removed, 1)
	assert.Equal(t, "deadbeefdeadbeef", report.Removed[0].Entry.ID)
	assert.Nil(t, report.Removed[0].Job)

	lines := table.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, backupLine, lines[0])
	assert.NotContains(t, lines, stale)
}

func TestReconciler_RemoveStripsMalformedOwnedLines(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable(
		"# comment",
		"* * * * * echo hello # cronsync jobs for myapp",
		backupLine,
		"* * * * * echo other # cronsync jobs for otherapp",
	)
	r, _ := newTestReconciler(t, table)

	report, err := r.Remove(ctx)
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Empty(t, report.Removed[0].Entry.ID)
	assert.Equal(t, 3, report.Kept)
	assert.Equal(t, []string{
		"# comment",
		backupLine,
		"* * * * * echo other # cronsync jobs for otherapp",
	}, table.Lines())
}

func TestReconciler_RemoveWithoutOwnedLinesStillWrites(t *testing.T) {
	table := NewMemoryTable(backupLine)
	r, _ := newTestReconciler(t, table)

	_, err := r.Remove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Writes())
	assert.Equal(t, []string{backupLine}, table.Lines())
}

func TestReconciler_AddWithEmptyRegistry(t *testing.T) {
	codec, inv := testCodec(t)
	table := NewMemoryTable("* * * * * " + inv + " run 0123456789abcdef # " + codec.Marker())
	r, _ := newTestReconciler(t, table)

	_, err := r.Add(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Lines())
}

func TestReconciler_Show(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable(backupLine)
	r, reg := newTestReconciler(t, table,
		[]JobOption{WithName("a"), WithMinute("0")},
		[]JobOption{WithName("b"), WithHour("4")})

	assert.Empty(t, ownedLines(t, r))

	_, err := r.Add(ctx)
	require.NoError(t, err)

	entries := ownedLines(t, r)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		job, ok := r.Lookup(entry.ID)
		require.True(t, ok)
		assert.Equal(t, job.Schedule(), entry.Schedule)
	}
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 1, table.Writes())

	_, err = r.Remove(ctx)
	require.NoError(t, err)
	assert.Empty(t, ownedLines(t, r))
}

func TestReconciler_SealsRegistry(t *testing.T) {
	_, reg := newTestReconciler(t, NewMemoryTable())

	_, err := reg.Declare(noopJob)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestReconciler_ReadError(t *testing.T) {
	table := NewMemoryTable(backupLine)
	table.ReadErr = errors.Mark(errors.New("crontab: not allowed"), ErrPermission)
	r, _ := newTestReconciler(t, table, []JobOption{WithName("a")})

	_, err := r.Add(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermission))

	_, err = r.Remove(context.Background())
	assert.True(t, errors.Is(err, ErrPermission))

	_, err = r.Show(context.Background())
	assert.True(t, errors.Is(err, ErrPermission))

	assert.Equal(t, 0, table.Writes())
}

func TestReconciler_WriteError(t *testing.T) {
	writeErr := errors.Mark(errors.New("crontab: installing new crontab failed"), ErrPermission)
	table := NewMemoryTable(backupLine)
	table.WriteErr = writeErr
	r, _ := newTestReconciler(t, table, []JobOption{WithName("a")})

	_, err := r.Add(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermission))
	assert.Contains(t, err.Error(), "failed to write crontab")
	assert.Equal(t, []string{backupLine}, table.Lines())
}

func TestReconciler_SendReportScenario(t *testing.T) {
	ctx := context.Background()
	initial := "30 2 * * * /usr/bin/backup.sh"
	table := NewMemoryTable(initial)
	r, reg := newTestReconciler(t, table, []JobOption{WithName("send_report"), WithMinute("0"), WithHour("6")})

	_, err := r.Add(ctx)
	require.NoError(t, err)

	var id string
	for jobID := range reg.All() {
		id = jobID
	}
	_, inv := testCodec(t)

	assert.Equal(t, []string{
		initial,
		"0 6 * * * " + inv + " run " + id + " # cronsync jobs for myapp",
	}, table.Lines())

	_, err = r.Remove(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{initial}, table.Lines())
}
