package state

// AddRequest queues an access request. Returns false when the same user
// already has one pending for the file.
func (s *Store) AddRequest(file, user, mode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests[file] {
		if r.User == user {
			return false
		}
	}
	if mode != "W" {
		mode = "R"
	}
	s.requests[file] = append(s.requests[file], Request{User: user, Mode: mode})
	return true
}

// Requests returns a copy of the file's pending queue in arrival order.
func (s *Store) Requests(file string) []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := s.requests[file]
	out := make([]Request, len(reqs))
	copy(out, reqs)
	return out
}

// RemoveRequest clears one user's pending request. Returns false when
// none was pending.
func (s *Store) RemoveRequest(file, user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.requests[file]
	for i, r := range reqs {
		if r.User == user {
			s.requests[file] = append(reqs[:i], reqs[i+1:]...)
			if len(s.requests[file]) == 0 {
				delete(s.requests, file)
			}
			return true
		}
	}
	return false
}

// ClearRequests drops every pending request for the file.
func (s *Store) ClearRequests(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, file)
}
