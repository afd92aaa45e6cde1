package state

import (
	"sort"
	"strings"
)

// SetPrimary upserts the file's primary mapping.
func (s *Store) SetPrimary(file string, ssid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.directory[file]
	if !ok {
		e = &DirEntry{}
		s.directory[file] = e
	}
	e.PrimarySSID = ssid
	s.cache.put(file, ssid)
}

// Primary resolves the file's primary storage server.
func (s *Store) Primary(file string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ssid, ok := s.cache.get(file); ok {
		return ssid, true
	}
	e, ok := s.directory[file]
	if !ok {
		return 0, false
	}
	s.cache.put(file, e.PrimarySSID)
	return e.PrimarySSID, true
}

// Exists reports whether the file is mapped.
func (s *Store) Exists(file string) bool {
	_, ok := s.Primary(file)
	return ok
}

// Entry returns a copy of the directory record.
func (s *Store) Entry(file string) (DirEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.directory[file]
	if !ok {
		return DirEntry{}, false
	}
	return *e, true
}

// DeleteFile drops the mapping and its replica list.
func (s *Store) DeleteFile(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.directory, file)
	delete(s.replicas, file)
	s.cache.drop(file)
}

// RenameFile moves the mapping, replica list, and pending requests to a
// new key. Returns false when the source is unmapped or the destination
// is taken.
func (s *Store) RenameFile(oldFile, newFile string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.directory[oldFile]
	if !ok {
		return false
	}
	if _, taken := s.directory[newFile]; taken {
		return false
	}
	delete(s.directory, oldFile)
	s.directory[newFile] = e
	if reps, ok := s.replicas[oldFile]; ok {
		delete(s.replicas, oldFile)
		s.replicas[newFile] = reps
	}
	if reqs, ok := s.requests[oldFile]; ok {
		delete(s.requests, oldFile)
		s.requests[newFile] = reqs
	}
	s.cache.drop(oldFile)
	s.cache.put(newFile, e.PrimarySSID)
	return true
}

// Files returns a sorted snapshot of all mapped file names.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.directory))
	for f := range s.directory {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// MappingCounts tallies mapped files per primary ssid, used for
// least-loaded placement.
func (s *Store) MappingCounts() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int]int)
	for _, e := range s.directory {
		counts[e.PrimarySSID]++
	}
	return counts
}

// TouchModified records the last writer.
func (s *Store) TouchModified(file, user string, when int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.directory[file]; ok {
		e.LastModifiedUser = user
		e.LastModifiedTime = when
	}
}

// TouchAccessed records the last reader.
func (s *Store) TouchAccessed(file, user string, when int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.directory[file]; ok {
		e.LastAccessedUser = user
		e.LastAccessedTime = when
	}
}

// SetReplicas replaces the file's replica list. The primary is filtered
// out to preserve the invariant that it never appears among its own
// replicas.
func (s *Store) SetReplicas(file string, replicas []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	primary := -1
	if e, ok := s.directory[file]; ok {
		primary = e.PrimarySSID
	}
	out := make([]int, 0, len(replicas))
	seen := make(map[int]bool)
	for _, r := range replicas {
		if r == primary || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	s.replicas[file] = out
}

// Replicas returns a copy of the file's replica list in order.
func (s *Store) Replicas(file string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reps := s.replicas[file]
	out := make([]int, len(reps))
	copy(out, reps)
	return out
}

// FilesReplicatedOn lists files whose replica set contains ssid, paired
// with their current primaries. Used for resync on an UP transition.
func (s *Store) FilesReplicatedOn(ssid int) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for file, reps := range s.replicas {
		for _, r := range reps {
			if r == ssid {
				if e, ok := s.directory[file]; ok {
					out[file] = e.PrimarySSID
				}
				break
			}
		}
	}
	return out
}

// FilesUnder lists mapped files with the given path prefix (the prefix
// must align with a path segment boundary).
func (s *Store) FilesUnder(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for f := range s.directory {
		if strings.HasPrefix(f, prefix+"/") {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
