package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ss1"))
	require.NoError(t, err)
	return s
}

func TestOpenCreatesLayout(t *testing.T) {
	s := newStore(t)
	for _, dir := range []string{"files", "undo", "checkpoints", "meta"} {
		fi, err := os.Stat(filepath.Join(s.Root(), dir))
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

func TestCreateReadReplace(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Create("a.txt"))
	assert.ErrorIs(t, s.Create("a.txt"), ErrConflict)

	body, err := s.Read("a.txt")
	require.NoError(t, err)
	assert.Empty(t, body)

	require.NoError(t, s.Replace("a.txt", []byte("hello")))
	body, err = s.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	_, err = s.Read("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInNestedFolder(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Create("docs/reports/q3.txt"))
	assert.True(t, s.Exists("docs/reports/q3.txt"))
}

func TestUndoSnapshotConsumedOnRestore(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("bye")))
	require.NoError(t, s.WriteUndo("f.txt", []byte("hi")))

	require.NoError(t, s.Undo("f.txt"))
	body, err := s.Read("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(body))

	// The snapshot is single-step: a second undo has nothing to restore.
	assert.ErrorIs(t, s.Undo("f.txt"), ErrNotFound)
}

func TestUndoOverwritesPreviousSnapshot(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("v3")))
	require.NoError(t, s.WriteUndo("f.txt", []byte("v1")))
	require.NoError(t, s.WriteUndo("f.txt", []byte("v2")))

	snap, err := s.ReadUndo("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(snap))
}

func TestCheckpointAndRevert(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("stable version")))
	require.NoError(t, s.Checkpoint("f.txt", "v1"))

	require.NoError(t, s.Replace("f.txt", []byte("broken edits")))
	require.NoError(t, s.Revert("f.txt", "v1"))

	body, err := s.Read("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "stable version", string(body))

	assert.ErrorIs(t, s.Revert("f.txt", "nope"), ErrNotFound)
}

func TestCheckpointOfMissingFile(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.Checkpoint("ghost.txt", "v1"), ErrNotFound)
}

func TestListCheckpoints(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("x")))
	assert.Empty(t, s.ListCheckpoints("f.txt"))

	require.NoError(t, s.Checkpoint("f.txt", "alpha"))
	require.NoError(t, s.Checkpoint("f.txt", "beta"))
	assert.ElementsMatch(t, []string{"alpha", "beta"}, s.ListCheckpoints("f.txt"))
}

func TestRenameCarriesArtifacts(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("old.txt", []byte("content")))
	require.NoError(t, s.WriteUndo("old.txt", []byte("pre")))
	require.NoError(t, s.Checkpoint("old.txt", "v1"))

	require.NoError(t, s.Rename("old.txt", "new.txt"))

	assert.False(t, s.Exists("old.txt"))
	body, err := s.Read("new.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(body))

	snap, err := s.ReadUndo("new.txt")
	require.NoError(t, err)
	assert.Equal(t, "pre", string(snap))
	assert.Equal(t, []string{"v1"}, s.ListCheckpoints("new.txt"))
}

func TestRenameErrors(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("a.txt", []byte("a")))
	require.NoError(t, s.Replace("b.txt", []byte("b")))

	assert.ErrorIs(t, s.Rename("missing.txt", "c.txt"), ErrNotFound)
	assert.ErrorIs(t, s.Rename("a.txt", "b.txt"), ErrConflict)
}

func TestRenameIntoTrashFolder(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("doc.txt", []byte("bytes")))
	require.NoError(t, s.Rename("doc.txt", ".trash/1700000000_doc.txt"))
	body, err := s.Read(".trash/1700000000_doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(body))
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("x")))
	require.NoError(t, s.WriteUndo("f.txt", []byte("u")))
	require.NoError(t, s.Checkpoint("f.txt", "v1"))

	require.NoError(t, s.Delete("f.txt"))
	assert.False(t, s.Exists("f.txt"))
	_, err := s.ReadUndo("f.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.ListCheckpoints("f.txt"))

	assert.ErrorIs(t, s.Delete("f.txt"), ErrNotFound)
}

func TestUndoPseudoPathThroughFiles(t *testing.T) {
	// Replication fetches undo snapshots as ../undo/<file>.undo relative
	// to files/; the path must resolve into the undo tree.
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("x")))
	require.NoError(t, s.WriteUndo("f.txt", []byte("snapshot")))

	body, err := s.Read("../undo/f.txt.undo")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(body))
}

func TestStat(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Replace("f.txt", []byte("three little words")))
	info, err := s.Stat("f.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(18), info.Size)
	assert.Equal(t, 3, info.Words)
	assert.Equal(t, int64(18), info.Chars)
	assert.NotZero(t, info.MTime)

	_, err = s.Stat("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
