package presenter

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

func TestUserError(t *testing.T) {
	p := New()

	assert.Contains(t, p.UserError(challenge.ErrDuplicateCheckin), "already checked in")
	assert.Contains(t, p.UserError(challenge.ErrNoActivePeriod), "No challenge is running")
	assert.Contains(t, p.UserError(fmt.Errorf("close signup: %w", challenge.ErrEmptyRoster)), "sign-up sheet")

	// Infrastructure failures get a generic retry line, never internal detail.
	assert.Contains(t, p.UserError(challenge.ErrStorage), "try again")
	assert.Contains(t, p.UserError(fmt.Errorf("%w: fetch roster: status 502", challenge.ErrDependency)), "try again")
	assert.NotContains(t, p.UserError(fmt.Errorf("%w: insert checkin: dial tcp", challenge.ErrStorage)), "dial tcp")

	// Unclassified errors produce no chat line.
	assert.Empty(t, p.UserError(errors.New("dial tcp: timeout")))
}

func TestKickoff_CapsMembersPerGroup(t *testing.T) {
	group := query.KickoffGroup{FocusArea: "web"}
	for i := 0; i < 5; i++ {
		group.Members = append(group.Members, query.KickoffMember{
			Nickname: fmt.Sprintf("dev%d", i),
			Goals:    "ship something",
		})
	}

	out := New().Kickoff(&query.GetKickoffResult{
		PeriodName:   "2025-09",
		Participants: 5,
		Groups:       []query.KickoffGroup{group},
	})

	assert.Contains(t, out, "dev0")
	assert.Contains(t, out, "dev2")
	assert.NotContains(t, out, "dev3")
	assert.Contains(t, out, "and 2 more")
}

func TestPeriodEnded_GroupsQualifiedByFocusArea(t *testing.T) {
	out := New().PeriodEnded(&command.EndPeriodResult{
		Period: challenge.NewPeriod("2025-09", "", "oc_chat", time.Now()),
		Summaries: []command.ParticipantSummary{
			{Nickname: "alice", FocusArea: "web", Checkins: 9, Qualified: true},
			{Nickname: "bob", FocusArea: "", Checkins: 8, Qualified: true},
			{Nickname: "carol", FocusArea: "web", Checkins: 7, Qualified: true},
			{Nickname: "dave", FocusArea: "ai", Checkins: 2},
		},
	})

	// Focus areas appear in first-seen order, empty areas under General.
	assert.Contains(t, out, "【web】")
	assert.Contains(t, out, "【General】")
	assert.True(t, strings.Index(out, "【web】") < strings.Index(out, "【General】"))
	assert.True(t, strings.Index(out, "alice") < strings.Index(out, "carol"))

	// Participants who didn't qualify are listed flat with their counts.
	assert.NotContains(t, out, "【ai】")
	assert.Contains(t, out, "dave — 2 check-ins")
}

func TestLeaderboard_MedalsAndNudge(t *testing.T) {
	out := New().Leaderboard(&query.GetLeaderboardResult{
		PeriodName:   "2025-09",
		Day:          7,
		Participants: 5,
		ZeroCount:    2,
		Entries: []query.LeaderboardEntry{
			{Rank: 1, Nickname: "alice", Checkins: 7, Progress: "80% there"},
			{Rank: 2, Nickname: "bob", Checkins: 5},
			{Rank: 3, Nickname: "carol", Checkins: 4},
			{Rank: 4, Nickname: "dave", Checkins: 1},
		},
	})

	assert.True(t, strings.Index(out, "alice") < strings.Index(out, "bob"))
	assert.Contains(t, out, "🥇")
	assert.Contains(t, out, "80% there")
}
