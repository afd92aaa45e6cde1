package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sent := Message{"type": "LOOKUP", "file": "a.txt", "op": "READ", "port": 9001}
	errCh := make(chan error, 1)
	go func() { errCh <- Send(client, sent) }()

	got, err := Recv(server)
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	assert.Equal(t, "LOOKUP", got.Type())
	assert.Equal(t, "a.txt", got.Str("file"))
	assert.Equal(t, 9001, got.Int("port"))
	assert.True(t, got.Has("op"))
	assert.False(t, got.Has("missing"))
}

func TestMultipleFramesInSequence(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		for i := 0; i < 3; i++ {
			Send(client, Message{"type": "SS_HEARTBEAT", "ssId": i})
		}
	}()

	for i := 0; i < 3; i++ {
		got, err := Recv(server)
		require.NoError(t, err)
		assert.Equal(t, i, got.Int("ssId"))
	}
}

func TestRecvEOF(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	client.Close()

	_, err := Recv(server)
	assert.Error(t, err)
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		ok   bool
	}{
		{"ok reply", Reply(StatusOK), true},
		{"error reply", Reply(ErrLocked), false},
		{"ok with fields", OKReply(Message{"body": "x"}), true},
		{"message reply", ReplyMsg(ErrBadRequest, "session-active"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.msg.OK())
		})
	}

	r := ReplyMsg(ErrBadRequest, "session-active")
	assert.Equal(t, "session-active", r.Str("msg"))
	assert.Equal(t, ErrBadRequest, r.Status())

	ok := OKReply(Message{"word": "hello"})
	assert.Equal(t, "hello", ok.Str("word"))
}
