package state

import (
	"fmt"
	"sort"
	"strings"
)

func (s *Store) aclEntry(file string) *AclEntry {
	e, ok := s.acls[file]
	if !ok {
		e = &AclEntry{Grants: make(map[string]Perm)}
		s.acls[file] = e
	}
	return e
}

// SetOwner records the file's owner. Owners pass every ACL check.
func (s *Store) SetOwner(file, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aclEntry(file).Owner = owner
}

// Owner returns the file's owner, "" when no ACL entry exists.
func (s *Store) Owner(file string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.acls[file]; ok {
		return e.Owner
	}
	return ""
}

// Grant upserts a user's permission bits for the file.
func (s *Store) Grant(file, user string, perm Perm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aclEntry(file).Grants[user] = perm
}

// Revoke removes a user's grant for the file.
func (s *Store) Revoke(file, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.acls[file]; ok {
		delete(e.Grants, user)
	}
}

// DeleteACL drops the whole ACL entry for the file.
func (s *Store) DeleteACL(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.acls, file)
}

// RenameACL moves the ACL entry to a new file name.
func (s *Store) RenameACL(oldFile, newFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.acls[oldFile]; ok {
		delete(s.acls, oldFile)
		s.acls[newFile] = e
	}
}

// CanRead checks read-class access: the owner always passes; otherwise
// the user's grant (or the anonymous fallback) must carry R or W. A write
// grant implies readability even when R is not set.
func (s *Store) CanRead(file, user string) bool {
	return s.check(file, user, PermR|PermW)
}

// CanWrite checks write-class access: the owner always passes; otherwise
// the grant must carry W.
func (s *Store) CanWrite(file, user string) bool {
	return s.check(file, user, PermW)
}

func (s *Store) check(file, user string, want Perm) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.acls[file]
	if !ok {
		return false
	}
	if e.Owner != "" && e.Owner == user {
		return true
	}
	if p, ok := e.Grants[user]; ok && p&want != 0 {
		return true
	}
	if p, ok := e.Grants[Anonymous]; ok && p&want != 0 {
		return true
	}
	return false
}

// FormatAccess renders the access summary shown by INFO:
// "owner (RW), user2 (R), ...".
func (s *Store) FormatAccess(file string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.acls[file]
	if !ok {
		return ""
	}
	var parts []string
	if e.Owner != "" {
		parts = append(parts, fmt.Sprintf("%s (RW)", e.Owner))
	}
	users := make([]string, 0, len(e.Grants))
	for u := range e.Grants {
		if u != e.Owner {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	for _, u := range users {
		parts = append(parts, fmt.Sprintf("%s (%s)", u, e.Grants[u]))
	}
	return strings.Join(parts, ", ")
}
