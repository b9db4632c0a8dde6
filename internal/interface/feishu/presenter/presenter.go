// Package presenter formats command and query results into chat messages.
// All formatting lives here so handlers and the router stay free of
// user-facing text.
package presenter

import (
	"errors"
	"fmt"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// Presenter renders results for the community chat.
type Presenter struct{}

// New creates a Presenter.
func New() *Presenter {
	return &Presenter{}
}

// UserError maps a rejected command to a short explanatory chat line.
// Storage and dependency failures get a generic retry line with no internal
// detail; only unclassified errors return "".
func (p *Presenter) UserError(err error) string {
	switch {
	case errors.Is(err, challenge.ErrBadFormat):
		return "🤔 I couldn't read that. Check-in format: #checkin <nickname> <what you did today>"
	case errors.Is(err, challenge.ErrContentLength):
		return fmt.Sprintf("📏 Check-in content must be %d to %d characters.", challenge.MinCheckinContentLen, challenge.MaxCheckinContentLen)
	case errors.Is(err, challenge.ErrDuplicateCheckin):
		return "✅ You already checked in today. See you tomorrow!"
	case errors.Is(err, challenge.ErrNoActivePeriod):
		return "😴 No challenge is running right now. Wait for the next sign-up card!"
	case errors.Is(err, challenge.ErrMissingSignupLink):
		return "🔗 This period has no sign-up link on record, so the roster can't be imported."
	case errors.Is(err, challenge.ErrEmptyRoster):
		return "📭 The sign-up sheet has no qualifying developer rows yet."
	case errors.Is(err, challenge.ErrConflict):
		return "⚠️ " + err.Error()
	case errors.Is(err, challenge.ErrNotFound):
		return "🔍 " + err.Error()
	case errors.Is(err, challenge.ErrStorage), errors.Is(err, challenge.ErrDependency):
		return "😵 Something went wrong on our side. Please try again in a moment."
	default:
		return ""
	}
}
