package ticket

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParseRoundTrip(t *testing.T) {
	tkt := Build("docs/notes.txt", "WRITE", 3, DefaultTTL)
	parsed, err := Parse(tkt.String())
	require.NoError(t, err)
	assert.Equal(t, tkt, parsed)
}

func TestValidate(t *testing.T) {
	tkt := Build("a.txt", "READ", 1, DefaultTTL).String()
	assert.True(t, Validate(tkt, "a.txt", "READ", 1))

	tests := []struct {
		name string
		file string
		op   string
		ssid int
	}{
		{"wrong file", "b.txt", "READ", 1},
		{"wrong op", "a.txt", "WRITE", 1},
		{"wrong ssid", "a.txt", "READ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Validate(tkt, tt.file, tt.op, tt.ssid))
		})
	}
}

func TestValidateExpired(t *testing.T) {
	tkt := Build("a.txt", "READ", 1, -2*time.Second)
	assert.False(t, Validate(tkt.String(), "a.txt", "READ", 1))
}

func TestValidateTamperedSignature(t *testing.T) {
	tkt := Build("a.txt", "READ", 1, DefaultTTL)
	forged := fmt.Sprintf("%s|%s|%d|%d|%d", tkt.File, tkt.Op, tkt.SSID, tkt.Exp, tkt.Sig+1)
	assert.False(t, Validate(forged, "a.txt", "READ", 1))
}

func TestValidateTamperedExpiry(t *testing.T) {
	// Extending the lifetime without recomputing the signature must fail.
	tkt := Build("a.txt", "READ", 1, DefaultTTL)
	forged := fmt.Sprintf("%s|%s|%d|%d|%d", tkt.File, tkt.Op, tkt.SSID, tkt.Exp+3600, tkt.Sig)
	assert.False(t, Validate(forged, "a.txt", "READ", 1))
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"a.txt|READ|1|12345",
		"a.txt|READ|x|12345|99",
		"a.txt|READ|1|zz|99",
		"a.txt|READ|1|12345|sig",
	} {
		_, err := Parse(raw)
		assert.Error(t, err, "input %q", raw)
	}
}
