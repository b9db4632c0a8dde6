package challenge

import "errors"

// Base domain errors. Every user-triggered operation maps one of these to a
// user-facing response at the router boundary; none of them escape to the
// transport layer as raw errors.
var (
	// ErrBadFormat - the input does not match the expected command grammar.
	ErrBadFormat = errors.New("invalid command format")

	// ErrContentLength - check-in content is out of bounds.
	ErrContentLength = errors.New("content length out of bounds")

	// ErrConflict - a lifecycle invariant would be violated, e.g. opening a
	// period while another is still open or active.
	ErrConflict = errors.New("conflicting period in progress")

	// ErrNotFound - a referenced period or participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCheckin - a check-in already exists for the participant
	// on the current calendar date.
	ErrDuplicateCheckin = errors.New("already checked in today")

	// ErrNoActivePeriod - an operation requires an active period and none
	// exists.
	ErrNoActivePeriod = errors.New("no active period")

	// ErrMissingSignupLink - the period has no roster-source link, so the
	// roster cannot be imported.
	ErrMissingSignupLink = errors.New("period has no signup link")

	// ErrEmptyRoster - roster import produced zero valid participants.
	ErrEmptyRoster = errors.New("roster import produced no participants")

	// ErrDependency - an essential external collaborator call failed.
	ErrDependency = errors.New("external dependency failed")

	// ErrStorage - a transactional storage failure. Always rolled back;
	// surfaced to users only as a generic "please retry".
	ErrStorage = errors.New("storage failure")
)

// IsUserError reports whether err is caused by user input or visible state
// rather than by infrastructure, i.e. it carries a corrective message worth
// showing verbatim.
func IsUserError(err error) bool {
	return errors.Is(err, ErrBadFormat) ||
		errors.Is(err, ErrContentLength) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateCheckin) ||
		errors.Is(err, ErrNoActivePeriod) ||
		errors.Is(err, ErrMissingSignupLink) ||
		errors.Is(err, ErrEmptyRoster)
}
