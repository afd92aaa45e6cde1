package state

import "sort"

// TrashAdd records a soft-deleted file.
func (s *Store) TrashAdd(entry TrashEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trash[entry.File] = entry
}

// TrashFind looks up a trash entry by its original path.
func (s *Store) TrashFind(file string) (TrashEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.trash[file]
	return e, ok
}

// TrashRemove drops the entry for the original path.
func (s *Store) TrashRemove(file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trash[file]; !ok {
		return false
	}
	delete(s.trash, file)
	return true
}

// TrashList snapshots the trash index sorted by original path.
func (s *Store) TrashList() []TrashEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrashEntry, 0, len(s.trash))
	for _, e := range s.trash {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
