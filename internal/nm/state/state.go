// Package state owns everything the naming manager persists: the
// file-to-server directory, ACLs, pending access requests, the logical
// folder namespace, the trash index, and the user table.
//
// All of it lives in one Store guarded by one RWMutex and is saved as a
// single JSON document. Handlers mutate through the typed accessors and
// then call Save, which writes atomically (temp + fsync + rename).
package state

import "sync"

// Anonymous is the reserved pseudo-user consulted as the public fallback
// in ACL checks. It is a convention, not a keyword: the name is simply
// unavailable as a real grantee identity.
const Anonymous = "anonymous"

// Perm is an access permission bitmask.
type Perm int

const (
	PermR Perm = 1 << iota
	PermW
)

// String renders the persisted grant form.
func (p Perm) String() string {
	switch {
	case p&PermR != 0 && p&PermW != 0:
		return "RW"
	case p&PermW != 0:
		return "W"
	case p&PermR != 0:
		return "R"
	}
	return ""
}

// ParsePerm decodes a persisted grant.
func ParsePerm(s string) Perm {
	var p Perm
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'R', 'r':
			p |= PermR
		case 'W', 'w':
			p |= PermW
		}
	}
	return p
}

// DirEntry is the directory record for one file.
type DirEntry struct {
	PrimarySSID      int
	LastModifiedUser string
	LastModifiedTime int64
	LastAccessedUser string
	LastAccessedTime int64
}

// AclEntry holds the owner and per-user grants for one file. The owner
// always behaves as RW regardless of grants.
type AclEntry struct {
	Owner  string
	Grants map[string]Perm
}

// Request is a pending access request. At most one per (file, user).
type Request struct {
	User string
	Mode string // "R" or "W"
}

// TrashEntry records a soft-deleted file.
type TrashEntry struct {
	File    string // original path
	Trashed string // .trash/<epoch>_<flattened>
	SSID    int
	Owner   string
	When    int64
}

// Store is the naming manager's persisted state.
type Store struct {
	mu   sync.RWMutex
	path string

	users     map[string]bool // name -> known
	active    map[string]bool // name -> has live session
	directory map[string]*DirEntry
	replicas  map[string][]int
	acls      map[string]*AclEntry
	requests  map[string][]Request
	folders   map[string]bool
	trash     map[string]TrashEntry // keyed by original path

	cache *lruCache // file -> primary ssid, hot-path lookups
}

// New returns an empty store that persists to path.
func New(path string) *Store {
	return &Store{
		path:      path,
		users:     make(map[string]bool),
		active:    make(map[string]bool),
		directory: make(map[string]*DirEntry),
		replicas:  make(map[string][]int),
		acls:      make(map[string]*AclEntry),
		requests:  make(map[string][]Request),
		folders:   make(map[string]bool),
		trash:     make(map[string]TrashEntry),
		cache:     newLRUCache(64),
	}
}
