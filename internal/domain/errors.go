package domain

import "errors"

var (
	ErrMissingFields = errors.New("missing fields")
	ErrRateLimited   = errors.New("rate limited")
	ErrWrongPassword = errors.New("wrong password")
	ErrRoomFull      = errors.New("room full")
	// ErrNotMember is logged only; the sender never learns about it.
	ErrNotMember = errors.New("not a member of room")
	ErrRoomBusy  = errors.New("room busy, retry")
	// ErrRoomNotFound tells a verifier the room vanished; the handshake
	// restarts from the lookup.
	ErrRoomNotFound = errors.New("room not found")
	ErrNoSession    = errors.New("no such connection")
)

// ClientMessage maps an error to the text sent in an auth-error reply.
// Anything that is not a known auth outcome is reported as an internal error.
func ClientMessage(err error) string {
	for _, known := range []error{ErrMissingFields, ErrRateLimited, ErrWrongPassword, ErrRoomFull, ErrRoomBusy} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
