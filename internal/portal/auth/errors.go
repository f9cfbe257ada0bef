package auth

import "errors"

var (
	// ErrGatewayUnavailable is surfaced when the credential gateway cannot be
	// reached. The machine stays anonymous: an unreachable gateway is never
	// treated as a successful login.
	ErrGatewayUnavailable = errors.New("credential gateway unavailable")

	// ErrSuperseded marks a response that arrived after a logout invalidated
	// the operation that produced it. The response is discarded, never
	// applied.
	ErrSuperseded = errors.New("operation superseded by logout")
)

// RejectionError carries the gateway's message for an operation it refused
// (bad credentials, unverified account, duplicate email). Forms show the
// message inline.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}
