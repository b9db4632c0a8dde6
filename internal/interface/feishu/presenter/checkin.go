package presenter

import (
	"fmt"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// CheckinRecorded renders the acknowledgement for a stored check-in. When
// feedback generation failed the canned fallback still confirms the record.
func (p *Presenter) CheckinRecorded(result *command.RecordCheckinResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "✨ @%s check-in %d/%d recorded!\n",
		result.Checkin.Nickname, result.Checkin.Index, challenge.ChallengeDays)

	if result.Feedback != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Feedback)
	} else {
		sb.WriteString("\nNice momentum, keep shipping! 🚀")
	}

	return sb.String()
}
