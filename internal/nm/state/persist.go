package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// persistedDoc is the on-disk schema. Directory values and request
// entries are raw so the loader can also accept the older format where a
// directory value is a bare ssid and a request is a bare username.
type persistedDoc struct {
	Users     []string                   `json:"users"`
	Active    []string                   `json:"active"`
	Directory map[string]json.RawMessage `json:"directory"`
	Acls      map[string]persistedAcl    `json:"acls"`
	Replicas  map[string][]int           `json:"replicas"`
	Requests  map[string]json.RawMessage `json:"requests"`
	Folders   []string                   `json:"folders"`
	Trash     []persistedTrash           `json:"trash"`
}

type persistedDir struct {
	SSID             int     `json:"ss_id"`
	LastModifiedUser *string `json:"last_modified_user"`
	LastModifiedTime int64   `json:"last_modified_time"`
	LastAccessedUser *string `json:"last_accessed_user"`
	LastAccessedTime int64   `json:"last_accessed_time"`
}

type persistedAcl struct {
	Owner  string            `json:"owner"`
	Grants map[string]string `json:"grants"`
}

type persistedRequest struct {
	User string `json:"user"`
	Mode string `json:"mode"`
}

type persistedTrash struct {
	File    string `json:"file"`
	Trashed string `json:"trashed"`
	Owner   string `json:"owner"`
	SSID    int    `json:"ssid"`
	When    int64  `json:"when"`
}

// Save writes the whole store as one JSON document, atomically: temp file
// in the same directory, fsync, rename.
func (s *Store) Save() error {
	s.mu.RLock()
	doc := s.snapshot()
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create state temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *Store) snapshot() *persistedDoc {
	doc := &persistedDoc{
		Users:     []string{},
		Active:    []string{},
		Directory: make(map[string]json.RawMessage),
		Acls:      make(map[string]persistedAcl),
		Replicas:  make(map[string][]int),
		Requests:  make(map[string]json.RawMessage),
		Folders:   []string{},
		Trash:     []persistedTrash{},
	}
	for u := range s.users {
		doc.Users = append(doc.Users, u)
	}
	for u := range s.active {
		doc.Active = append(doc.Active, u)
	}
	for file, e := range s.directory {
		pd := persistedDir{
			SSID:             e.PrimarySSID,
			LastModifiedTime: e.LastModifiedTime,
			LastAccessedTime: e.LastAccessedTime,
		}
		if e.LastModifiedUser != "" {
			u := e.LastModifiedUser
			pd.LastModifiedUser = &u
		}
		if e.LastAccessedUser != "" {
			u := e.LastAccessedUser
			pd.LastAccessedUser = &u
		}
		raw, _ := json.Marshal(pd)
		doc.Directory[file] = raw
	}
	for file, e := range s.acls {
		pa := persistedAcl{Owner: e.Owner, Grants: make(map[string]string)}
		for u, p := range e.Grants {
			pa.Grants[u] = p.String()
		}
		doc.Acls[file] = pa
	}
	for file, reps := range s.replicas {
		out := make([]int, len(reps))
		copy(out, reps)
		doc.Replicas[file] = out
	}
	for file, reqs := range s.requests {
		out := make([]persistedRequest, 0, len(reqs))
		for _, r := range reqs {
			out = append(out, persistedRequest{User: r.User, Mode: r.Mode})
		}
		raw, _ := json.Marshal(out)
		doc.Requests[file] = raw
	}
	for f := range s.folders {
		doc.Folders = append(doc.Folders, f)
	}
	for _, t := range s.trash {
		doc.Trash = append(doc.Trash, persistedTrash{
			File: t.File, Trashed: t.Trashed, Owner: t.Owner, SSID: t.SSID, When: t.When,
		})
	}
	return doc
}

// Load replaces the in-memory state from the persisted document. A
// missing file is not an error; the store starts empty.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state: %w", err)
	}
	var doc persistedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]bool)
	for _, u := range doc.Users {
		s.users[u] = true
	}
	s.active = make(map[string]bool)
	for _, u := range doc.Active {
		s.active[u] = true
		s.users[u] = true
	}

	s.directory = make(map[string]*DirEntry)
	for file, raw := range doc.Directory {
		e, err := decodeDirEntry(raw)
		if err != nil {
			return fmt.Errorf("decode directory entry %q: %w", file, err)
		}
		s.directory[file] = e
	}

	s.acls = make(map[string]*AclEntry)
	for file, pa := range doc.Acls {
		e := &AclEntry{Owner: pa.Owner, Grants: make(map[string]Perm)}
		for u, p := range pa.Grants {
			e.Grants[u] = ParsePerm(p)
		}
		s.acls[file] = e
	}

	s.replicas = make(map[string][]int)
	for file, reps := range doc.Replicas {
		s.replicas[file] = reps
	}

	s.requests = make(map[string][]Request)
	for file, raw := range doc.Requests {
		reqs, err := decodeRequests(raw)
		if err != nil {
			return fmt.Errorf("decode requests for %q: %w", file, err)
		}
		if len(reqs) > 0 {
			s.requests[file] = reqs
		}
	}

	s.folders = make(map[string]bool)
	for _, f := range doc.Folders {
		s.folders[f] = true
	}

	s.trash = make(map[string]TrashEntry)
	for _, t := range doc.Trash {
		s.trash[t.File] = TrashEntry{
			File: t.File, Trashed: t.Trashed, Owner: t.Owner, SSID: t.SSID, When: t.When,
		}
	}

	s.cache = newLRUCache(64)
	return nil
}

// decodeDirEntry accepts both the current object form and the legacy bare
// integer ssid.
func decodeDirEntry(raw json.RawMessage) (*DirEntry, error) {
	var legacy int
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return &DirEntry{PrimarySSID: legacy}, nil
	}
	var pd persistedDir
	if err := json.Unmarshal(raw, &pd); err != nil {
		return nil, err
	}
	e := &DirEntry{
		PrimarySSID:      pd.SSID,
		LastModifiedTime: pd.LastModifiedTime,
		LastAccessedTime: pd.LastAccessedTime,
	}
	if pd.LastModifiedUser != nil {
		e.LastModifiedUser = *pd.LastModifiedUser
	}
	if pd.LastAccessedUser != nil {
		e.LastAccessedUser = *pd.LastAccessedUser
	}
	return e, nil
}

// decodeRequests accepts both the current {user, mode} form and the
// legacy bare username list (which implies mode R).
func decodeRequests(raw json.RawMessage) ([]Request, error) {
	var legacy []string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		out := make([]Request, 0, len(legacy))
		for _, u := range legacy {
			out = append(out, Request{User: u, Mode: "R"})
		}
		return out, nil
	}
	var reqs []persistedRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		mode := r.Mode
		if mode != "W" {
			mode = "R"
		}
		out = append(out, Request{User: r.User, Mode: mode})
	}
	return out, nil
}
