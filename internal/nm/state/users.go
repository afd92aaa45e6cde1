package state

import "sort"

// UserActive reports whether the user currently has a live session.
func (s *Store) UserActive(user string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[user]
}

// SetUserActive toggles a user's session flag, registering the user when
// first seen.
func (s *Store) SetUserActive(user string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user] = true
	if active {
		s.active[user] = true
	} else {
		delete(s.active, user)
	}
}

// Users returns all known user names, sorted.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for u := range s.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// ActiveUsers returns the names with live sessions, sorted.
func (s *Store) ActiveUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.active))
	for u := range s.active {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
