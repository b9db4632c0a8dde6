package presenter

import (
	"fmt"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application/query"
)

var rankMedals = []string{"🥇", "🥈", "🥉"}

// Leaderboard renders the day-N ranking. Only participants with at least
// one check-in are listed; the rest get a collective nudge.
func (p *Presenter) Leaderboard(result *query.GetLeaderboardResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 %s — day %d check-in ranking\n\n", result.PeriodName, result.Day)

	if len(result.Entries) == 0 {
		sb.WriteString("No check-ins yet. Today is a great day to start! 💪")
		return sb.String()
	}

	for _, e := range result.Entries {
		medal := fmt.Sprintf("%2d.", e.Rank)
		if e.Rank <= len(rankMedals) {
			medal = rankMedals[e.Rank-1]
		}

		fmt.Fprintf(&sb, "%s %s — %d check-ins", medal, e.Nickname, e.Checkins)
		if e.Progress != "" {
			fmt.Fprintf(&sb, "\n    %s", e.Progress)
		}
		sb.WriteString("\n")
	}

	if result.ZeroCount > 0 {
		fmt.Fprintf(&sb, "\n👋 %d of %d participants haven't checked in yet — it's never too late to start!",
			result.ZeroCount, result.Participants)
	}

	return sb.String()
}
