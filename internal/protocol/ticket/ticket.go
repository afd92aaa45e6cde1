// Package ticket implements the capability tokens the naming manager hands
// to clients. A ticket binds one authorization decision to a single
// operation on a single file at a single storage server, for a bounded
// time.
//
// The signature is a salted rolling checksum, not a MAC: tickets defend
// against accidental mis-routing and replay across files and operations,
// not against a hostile actor.
package ticket

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the lifetime granted by the naming manager.
const DefaultTTL = 600 * time.Second

const salt = "DOCSPLUS-SALT-2025"

// Ticket is the decoded form of the wire token "file|op|ssid|exp|sig".
type Ticket struct {
	File string
	Op   string
	SSID int
	Exp  int64 // epoch seconds
	Sig  uint64
}

// Build creates a signed ticket valid for ttl from now.
func Build(file, op string, ssid int, ttl time.Duration) Ticket {
	exp := time.Now().Add(ttl).Unix()
	return Ticket{
		File: file,
		Op:   op,
		SSID: ssid,
		Exp:  exp,
		Sig:  checksum(file, op, ssid, exp),
	}
}

// String encodes the ticket in wire form.
func (t Ticket) String() string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", t.File, t.Op, t.SSID, t.Exp, t.Sig)
}

// Parse decodes a wire token. It performs no validity checks beyond shape.
func Parse(s string) (Ticket, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 5 {
		return Ticket{}, fmt.Errorf("ticket: expected 5 fields, got %d", len(parts))
	}
	ssid, err := strconv.Atoi(parts[2])
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket: bad ssid: %w", err)
	}
	exp, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket: bad expiry: %w", err)
	}
	sig, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket: bad signature: %w", err)
	}
	return Ticket{File: parts[0], Op: parts[1], SSID: ssid, Exp: exp, Sig: sig}, nil
}

// Validate checks a wire token against the required file, operation, and
// storage server. Every field must match exactly, the token must not be
// expired, and the signature must recompute.
func Validate(token, file, op string, ssid int) bool {
	t, err := Parse(token)
	if err != nil {
		return false
	}
	if t.File != file || t.Op != op || t.SSID != ssid {
		return false
	}
	if time.Now().Unix() > t.Exp {
		return false
	}
	return t.Sig == checksum(t.File, t.Op, t.SSID, t.Exp)
}

// checksum is a djb2 hash over the ticket fields and the compile-time salt.
func checksum(file, op string, ssid int, exp int64) uint64 {
	sum := uint64(5381)
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			sum = sum<<5 + sum + uint64(s[i])
		}
	}
	mix(file)
	mix(op)
	mix(salt)
	sum = sum<<5 + sum + uint64(ssid)
	sum = sum<<5 + sum + uint64(exp)
	return sum
}
