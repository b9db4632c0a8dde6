package presenter

import (
	"fmt"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// kickoffMembersPerGroup caps how many members are listed per focus area so
// a large roster does not flood the chat.
const kickoffMembersPerGroup = 3

// Kickoff renders the roster overview grouped by focus area, posted when
// daily check-ins begin.
func (p *Presenter) Kickoff(result *query.GetKickoffResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📋 %s — %d participants, grouped by focus:\n\n",
		result.PeriodName, result.Participants)

	for _, g := range result.Groups {
		fmt.Fprintf(&sb, "【%s】\n", g.FocusArea)
		for i, m := range g.Members {
			if i == kickoffMembersPerGroup {
				fmt.Fprintf(&sb, "  … and %d more\n", len(g.Members)-kickoffMembersPerGroup)
				break
			}
			goals := m.Goals
			if goals == "" {
				goals = "(no goal recorded)"
			}
			fmt.Fprintf(&sb, "  · %s: %s\n", m.Nickname, goals)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Check in every day with #checkin <nickname> <content> — %d days, let's go! 🔥",
		challenge.ChallengeDays)

	return sb.String()
}
