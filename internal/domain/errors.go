package domain

import "errors"

// Failure taxonomy shared by the engine and the transport. Handlers map
// these to HTTP statuses in one place; nothing else inspects error text.
var (
	// ErrInvalidRequest marks malformed input. Local to the request,
	// never persisted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBadJoinCode deliberately collapses "room absent", "room not
	// open" and "wrong code" so callers cannot probe for live rooms.
	ErrBadJoinCode = errors.New("bad join code")

	// ErrRoomNotFound is returned only by the unauthenticated public
	// lookup, where room existence is the whole point of the call.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized covers a missing, unknown or wrong-role token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState means the operation is not legal in the room's
	// current lifecycle state, e.g. an answer before any guest joined.
	ErrInvalidState = errors.New("operation not allowed in current room state")

	// ErrRoomClosed is terminal: once observed, no field of the room
	// may change and every token bound to it is dead.
	ErrRoomClosed = errors.New("room closed")

	ErrRateLimited = errors.New("rate limited")

	// ErrStorageUnavailable surfaces backend failures unretried; the
	// client retries the whole operation, which is safe because every
	// mutation is idempotent or role-guarded.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
