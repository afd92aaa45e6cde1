package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "nm_state.json"))
}

func TestDirectoryBasics(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Primary("a.txt")
	assert.False(t, ok)

	s.SetPrimary("a.txt", 2)
	ssid, ok := s.Primary("a.txt")
	require.True(t, ok)
	assert.Equal(t, 2, ssid)

	// Repeated lookups go through the cache and stay correct after an
	// update.
	s.SetPrimary("a.txt", 5)
	ssid, _ = s.Primary("a.txt")
	assert.Equal(t, 5, ssid)

	s.DeleteFile("a.txt")
	assert.False(t, s.Exists("a.txt"))
}

func TestDirectoryLookupBeyondCacheCapacity(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 200; i++ {
		s.SetPrimary(filepath.Join("dir", string(rune('a'+i%26)), "f", "x"+string(rune('0'+i%10))), i)
	}
	s.SetPrimary("pinned.txt", 7)
	for _, f := range s.Files() {
		_, ok := s.Primary(f)
		assert.True(t, ok, f)
	}
	ssid, ok := s.Primary("pinned.txt")
	require.True(t, ok)
	assert.Equal(t, 7, ssid)
}

func TestRenameFile(t *testing.T) {
	s := newTestStore(t)
	s.SetPrimary("old.txt", 1)
	s.SetReplicas("old.txt", []int{2})
	s.AddRequest("old.txt", "bob", "R")

	require.True(t, s.RenameFile("old.txt", "new.txt"))
	assert.False(t, s.Exists("old.txt"))
	ssid, _ := s.Primary("new.txt")
	assert.Equal(t, 1, ssid)
	assert.Equal(t, []int{2}, s.Replicas("new.txt"))
	assert.Len(t, s.Requests("new.txt"), 1)

	s.SetPrimary("other.txt", 3)
	assert.False(t, s.RenameFile("new.txt", "other.txt"), "destination taken")
	assert.False(t, s.RenameFile("ghost.txt", "x.txt"), "source missing")
}

func TestReplicasExcludePrimary(t *testing.T) {
	s := newTestStore(t)
	s.SetPrimary("f.txt", 1)
	s.SetReplicas("f.txt", []int{1, 2, 2, 3})
	assert.Equal(t, []int{2, 3}, s.Replicas("f.txt"))
}

func TestFilesReplicatedOn(t *testing.T) {
	s := newTestStore(t)
	s.SetPrimary("a.txt", 1)
	s.SetReplicas("a.txt", []int{2})
	s.SetPrimary("b.txt", 2)
	s.SetReplicas("b.txt", []int{3})

	got := s.FilesReplicatedOn(2)
	assert.Equal(t, map[string]int{"a.txt": 1}, got)
}

func TestAclChecks(t *testing.T) {
	s := newTestStore(t)
	s.SetOwner("f.txt", "alice")
	s.Grant("f.txt", "alice", PermR|PermW)
	s.Grant("f.txt", "bob", PermR)
	s.Grant("f.txt", "carol", PermW)

	tests := []struct {
		name     string
		user     string
		canRead  bool
		canWrite bool
	}{
		{"owner always passes", "alice", true, true},
		{"read grant", "bob", true, false},
		{"write grant implies read", "carol", true, true},
		{"stranger denied", "mallory", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canRead, s.CanRead("f.txt", tt.user))
			assert.Equal(t, tt.canWrite, s.CanWrite("f.txt", tt.user))
		})
	}

	assert.False(t, s.CanRead("unknown.txt", "alice"))
}

func TestAclAnonymousFallback(t *testing.T) {
	s := newTestStore(t)
	s.SetOwner("pub.txt", "alice")
	s.Grant("pub.txt", Anonymous, PermR)

	assert.True(t, s.CanRead("pub.txt", "stranger"))
	assert.False(t, s.CanWrite("pub.txt", "stranger"))

	s.Grant("pub.txt", Anonymous, PermR|PermW)
	assert.True(t, s.CanWrite("pub.txt", "stranger"))
}

func TestAclRevokeAndRename(t *testing.T) {
	s := newTestStore(t)
	s.SetOwner("f.txt", "alice")
	s.Grant("f.txt", "bob", PermR)
	s.Revoke("f.txt", "bob")
	assert.False(t, s.CanRead("f.txt", "bob"))

	s.RenameACL("f.txt", "g.txt")
	assert.Equal(t, "alice", s.Owner("g.txt"))
	assert.Empty(t, s.Owner("f.txt"))
}

func TestFormatAccess(t *testing.T) {
	s := newTestStore(t)
	s.SetOwner("f.txt", "alice")
	s.Grant("f.txt", "alice", PermR|PermW)
	s.Grant("f.txt", "bob", PermR)
	s.Grant("f.txt", "carol", PermW)
	assert.Equal(t, "alice (RW), bob (R), carol (W)", s.FormatAccess("f.txt"))
}

func TestRequestsDedup(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.AddRequest("f.txt", "bob", "R"))
	assert.False(t, s.AddRequest("f.txt", "bob", "W"), "one pending request per user")
	require.True(t, s.AddRequest("f.txt", "carol", "W"))

	reqs := s.Requests("f.txt")
	require.Len(t, reqs, 2)
	assert.Equal(t, Request{User: "bob", Mode: "R"}, reqs[0])
	assert.Equal(t, Request{User: "carol", Mode: "W"}, reqs[1])

	assert.True(t, s.RemoveRequest("f.txt", "bob"))
	assert.False(t, s.RemoveRequest("f.txt", "bob"))
	s.ClearRequests("f.txt")
	assert.Empty(t, s.Requests("f.txt"))
}

func TestTrash(t *testing.T) {
	s := newTestStore(t)
	s.TrashAdd(TrashEntry{File: "a.txt", Trashed: ".trash/1_a.txt", Owner: "alice", SSID: 1, When: 1})
	s.TrashAdd(TrashEntry{File: "b.txt", Trashed: ".trash/2_b.txt", Owner: "bob", SSID: 2, When: 2})

	e, ok := s.TrashFind("a.txt")
	require.True(t, ok)
	assert.Equal(t, ".trash/1_a.txt", e.Trashed)

	list := s.TrashList()
	require.Len(t, list, 2)
	assert.Equal(t, "a.txt", list[0].File)

	assert.True(t, s.TrashRemove("a.txt"))
	assert.False(t, s.TrashRemove("a.txt"))
}

func TestFolderChildren(t *testing.T) {
	s := newTestStore(t)
	s.AddFolder("docs")
	s.AddFolder("docs/reports")
	s.AddFolder("docs/drafts")
	s.AddFolder("pics")
	s.SetPrimary("docs/readme.txt", 1)
	s.SetPrimary("docs/reports/q3.txt", 1)
	s.SetPrimary("top.txt", 2)

	assert.Equal(t, []string{"docs", "pics"}, s.ChildFolders(""))
	assert.Equal(t, []string{"drafts", "reports"}, s.ChildFolders("docs"))
	assert.Equal(t, []string{"top.txt"}, s.ChildFiles(""))
	assert.Equal(t, []string{"readme.txt"}, s.ChildFiles("docs"))
}

func TestMoveFolderPrefix(t *testing.T) {
	s := newTestStore(t)
	s.AddFolder("docs")
	s.AddFolder("docs/reports")
	s.SetPrimary("docs/a.txt", 1)
	s.SetPrimary("docs/reports/b.txt", 2)
	s.SetPrimary("unrelated.txt", 3)

	moved := s.MoveFolderPrefix("docs", "archive")
	require.Len(t, moved, 2)
	assert.Equal(t, FolderRename{OldFile: "docs/a.txt", NewFile: "archive/a.txt", SSID: 1}, moved[0])
	assert.Equal(t, FolderRename{OldFile: "docs/reports/b.txt", NewFile: "archive/reports/b.txt", SSID: 2}, moved[1])

	assert.True(t, s.HasFolder("archive"))
	assert.True(t, s.HasFolder("archive/reports"))
	assert.False(t, s.HasFolder("docs"))
	assert.True(t, s.Exists("archive/a.txt"))
	assert.True(t, s.Exists("unrelated.txt"))

	assert.Nil(t, s.MoveFolderPrefix("ghost", "x"))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.UserActive("alice"))
	s.SetUserActive("alice", true)
	s.SetUserActive("bob", false)
	assert.True(t, s.UserActive("alice"))
	assert.Equal(t, []string{"alice", "bob"}, s.Users())
	assert.Equal(t, []string{"alice"}, s.ActiveUsers())

	s.SetUserActive("alice", false)
	assert.Empty(t, s.ActiveUsers())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nm_state.json")

	s := New(path)
	s.SetPrimary("docs/a.txt", 1)
	s.TouchModified("docs/a.txt", "alice", 100)
	s.TouchAccessed("docs/a.txt", "bob", 200)
	s.SetReplicas("docs/a.txt", []int{2, 3})
	s.SetOwner("docs/a.txt", "alice")
	s.Grant("docs/a.txt", "alice", PermR|PermW)
	s.Grant("docs/a.txt", "bob", PermR)
	s.AddRequest("docs/a.txt", "carol", "W")
	s.AddFolder("docs")
	s.TrashAdd(TrashEntry{File: "old.txt", Trashed: ".trash/5_old.txt", Owner: "alice", SSID: 1, When: 5})
	s.SetUserActive("alice", true)
	s.SetUserActive("bob", false)
	require.NoError(t, s.Save())

	loaded := New(path)
	require.NoError(t, loaded.Load())

	ssid, ok := loaded.Primary("docs/a.txt")
	require.True(t, ok)
	assert.Equal(t, 1, ssid)
	entry, _ := loaded.Entry("docs/a.txt")
	assert.Equal(t, "alice", entry.LastModifiedUser)
	assert.Equal(t, int64(100), entry.LastModifiedTime)
	assert.Equal(t, "bob", entry.LastAccessedUser)
	assert.Equal(t, []int{2, 3}, loaded.Replicas("docs/a.txt"))
	assert.Equal(t, "alice", loaded.Owner("docs/a.txt"))
	assert.True(t, loaded.CanRead("docs/a.txt", "bob"))
	assert.Equal(t, []Request{{User: "carol", Mode: "W"}}, loaded.Requests("docs/a.txt"))
	assert.True(t, loaded.HasFolder("docs"))
	trashed, ok := loaded.TrashFind("old.txt")
	require.True(t, ok)
	assert.Equal(t, ".trash/5_old.txt", trashed.Trashed)
	assert.True(t, loaded.UserActive("alice"))
	assert.Equal(t, []string{"alice", "bob"}, loaded.Users())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, s.Load())
	assert.Empty(t, s.Files())
}

func TestLoadLegacyFormat(t *testing.T) {
	// Older deployments persisted directory values as bare ssids and
	// requests as bare usernames.
	legacy := `{
	  "users": ["alice"],
	  "active": [],
	  "directory": {"a.txt": 3},
	  "acls": {"a.txt": {"owner": "alice", "grants": {"alice": "RW", "bob": "R"}}},
	  "replicas": {"a.txt": [1]},
	  "requests": {"a.txt": ["carol", "dave"]},
	  "folders": ["docs"],
	  "trash": []
	}`
	path := filepath.Join(t.TempDir(), "nm_state.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := New(path)
	require.NoError(t, s.Load())

	ssid, ok := s.Primary("a.txt")
	require.True(t, ok)
	assert.Equal(t, 3, ssid)
	assert.Equal(t, []Request{{User: "carol", Mode: "R"}, {User: "dave", Mode: "R"}}, s.Requests("a.txt"))
	assert.True(t, s.CanRead("a.txt", "bob"))
	assert.True(t, s.HasFolder("docs"))
}

func TestSaveIsAtomicOverExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nm_state.json")
	s := New(path)
	s.SetPrimary("a.txt", 1)
	require.NoError(t, s.Save())
	s.SetPrimary("b.txt", 2)
	require.NoError(t, s.Save())

	loaded := New(path)
	require.NoError(t, loaded.Load())
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, loaded.Files())

	// No temp litter left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
