package challenge

import "fmt"

// PeriodStatus is the closed lifecycle enumeration for a period. The implicit
// "no period active" state is represented by the absence of a period in a
// non-ended status, not by a status value.
type PeriodStatus string

const (
	// StatusSignup - the period is announced and collecting sign-ups.
	StatusSignup PeriodStatus = "open_for_signup"

	// StatusActive - sign-up is closed, the roster is imported and
	// check-ins are accepted.
	StatusActive PeriodStatus = "active"

	// StatusEnded - terminal. Certificates are generated; a new period may
	// subsequently be opened.
	StatusEnded PeriodStatus = "ended"
)

// Valid reports whether s is one of the defined statuses.
func (s PeriodStatus) Valid() bool {
	switch s {
	case StatusSignup, StatusActive, StatusEnded:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s PeriodStatus) Terminal() bool {
	return s == StatusEnded
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	switch s {
	case StatusSignup:
		return next == StatusActive
	case StatusActive:
		return next == StatusEnded
	case StatusEnded:
		return false
	}
	return false
}

// ParsePeriodStatus converts a stored string into a PeriodStatus.
func ParsePeriodStatus(raw string) (PeriodStatus, error) {
	s := PeriodStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown period status %q", ErrStorage, raw)
	}
	return s, nil
}
