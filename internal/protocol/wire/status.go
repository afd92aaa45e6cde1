package wire

// Status is the terminal result kind carried on every response frame.
type Status string

const (
	StatusOK   Status = "OK"
	StatusStop Status = "STOP" // stream sentinel

	ErrNoAuth      Status = "ERR_NOAUTH"
	ErrNotFound    Status = "ERR_NOTFOUND"
	ErrLocked      Status = "ERR_LOCKED"
	ErrBadRequest  Status = "ERR_BADREQ"
	ErrConflict    Status = "ERR_CONFLICT"
	ErrUnavailable Status = "ERR_UNAVAILABLE"
	ErrInternal    Status = "ERR_INTERNAL"
)

// Reply builds a bare status response.
func Reply(s Status) Message {
	return Message{"status": string(s)}
}

// ReplyMsg builds a status response with a diagnostic message.
func ReplyMsg(s Status, msg string) Message {
	return Message{"status": string(s), "msg": msg}
}

// OKReply builds an OK response carrying extra fields.
func OKReply(fields Message) Message {
	out := Message{"status": string(StatusOK)}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
