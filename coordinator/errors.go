package coordinator

import "github.com/pkg/errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRoomName = errors.New("room name is required")
	// ErrStopped is returned once the event loop has exited.
	ErrStopped = errors.New("coordinator stopped")
)

// Reasons an inbound event is dropped without a reply. The message doubles
// as the reason label on chat_dropped_events_total.
var (
	ErrUnknownActor     = errors.New("unknown_actor")
	errMissingUser      = errors.New("missing_user")
	errMissingRoom      = errors.New("missing_room")
	errNotInRoom        = errors.New("not_in_room")
	errUnknownRoom      = errors.New("unknown_room")
	errUnknownRecipient = errors.New("unknown_recipient")
	errEmptyText        = errors.New("empty_text")
	errNoLogin          = errors.New("no_login")
	errStaleSession     = errors.New("stale_session")
)
