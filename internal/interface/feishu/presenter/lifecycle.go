package presenter

import (
	"fmt"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// ─────────────────────────────────────────────────────────────────────────────
// Period opened
// ─────────────────────────────────────────────────────────────────────────────

// PeriodOpened announces a freshly opened sign-up window.
func (p *Presenter) PeriodOpened(result *command.OpenPeriodResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🌟 Challenge period %s is open for sign-up!\n\n", result.Period.Name)
	sb.WriteString("Fill in the sign-up sheet with your nickname, introduction and goal for the next 21 days.\n")
	sb.WriteString("When sign-up closes, daily check-ins begin. 🚀")

	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Signup closed / kickoff
// ─────────────────────────────────────────────────────────────────────────────

// SignupClosed announces the imported roster right after activation.
func (p *Presenter) SignupClosed(result *command.CloseSignupResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🎉 Sign-up for %s is closed — %d developers are in!\n\n",
		result.Period.Name, len(result.Participants))
	fmt.Fprintf(&sb, "The %d-day challenge starts now. Check in daily with:\n", challenge.ChallengeDays)
	sb.WriteString("#checkin <nickname> <what you did today>\n\n")
	fmt.Fprintf(&sb, "Complete %d or more check-ins to earn your certificate. 🏅", challenge.QualifyingCheckins)

	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Period ended
// ─────────────────────────────────────────────────────────────────────────────

// PeriodEnded renders the closing report: qualified finishers grouped by
// focus area, then everyone else with their counts.
func (p *Presenter) PeriodEnded(result *command.EndPeriodResult) string {
	var qualified, others []command.ParticipantSummary
	for _, s := range result.Summaries {
		if s.Qualified {
			qualified = append(qualified, s)
		} else {
			others = append(others, s)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 Challenge period %s has ended!\n\n", result.Period.Name)

	if len(qualified) > 0 {
		fmt.Fprintf(&sb, "🏆 Certified finishers (%d+ check-ins):\n", challenge.QualifyingCheckins)
		for _, area := range focusAreas(qualified) {
			fmt.Fprintf(&sb, "【%s】\n", area)
			for _, s := range qualified {
				if summaryArea(s) == area {
					fmt.Fprintf(&sb, "  🎖 %s — %d check-ins\n", s.Nickname, s.Checkins)
				}
			}
		}
		sb.WriteString("\n")
	}

	if len(others) > 0 {
		sb.WriteString("💪 Keep going next time:\n")
		for _, s := range others {
			fmt.Fprintf(&sb, "  · %s — %d check-ins\n", s.Nickname, s.Checkins)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Certificates are ready for everyone who took part. Thanks for building together! ✨")

	return sb.String()
}

// focusAreas lists the distinct focus areas in first-seen order.
func focusAreas(summaries []command.ParticipantSummary) []string {
	var areas []string
	seen := make(map[string]bool)
	for _, s := range summaries {
		area := summaryArea(s)
		if !seen[area] {
			seen[area] = true
			areas = append(areas, area)
		}
	}
	return areas
}

func summaryArea(s command.ParticipantSummary) string {
	if s.FocusArea == "" {
		return "General"
	}
	return s.FocusArea
}
