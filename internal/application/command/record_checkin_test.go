package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge/challengetest"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

func TestRecordCheckin(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")

	feedback := &fakeFeedback{Text: "solid progress on the core module 🚀"}
	now := time.Date(2025, 9, 5, 21, 0, 0, 0, timeutil.CommunityTZ)
	h := NewRecordCheckinHandler(repo, feedback, testLogger).WithClock(fixedClock(now))

	result, err := h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  "finished the login flow and wrote tests",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Checkin.Index)
	assert.Equal(t, "solid progress on the core module 🚀", result.Feedback)
	assert.True(t, timeutil.SameDay(now, result.Checkin.Date))
}

func TestRecordCheckin_IndexGrowsAcrossDays(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")

	h := NewRecordCheckinHandler(repo, &fakeFeedback{Text: "ok"}, testLogger)
	base := time.Date(2025, 9, 5, 21, 0, 0, 0, timeutil.CommunityTZ)

	for day := 0; day < 3; day++ {
		h.WithClock(fixedClock(base.AddDate(0, 0, day)))
		result, err := h.Handle(context.Background(), RecordCheckinCommand{
			Nickname: "alice",
			Content:  "daily progress entry",
		})
		require.NoError(t, err)
		assert.Equal(t, day+1, result.Checkin.Index)
	}
}

func TestRecordCheckin_SecondSameDayRejected(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")

	now := time.Date(2025, 9, 5, 21, 0, 0, 0, timeutil.CommunityTZ)
	h := NewRecordCheckinHandler(repo, &fakeFeedback{Text: "ok"}, testLogger).WithClock(fixedClock(now))

	_, err := h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  "morning session done",
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  "evening session done",
	})
	assert.ErrorIs(t, err, challenge.ErrDuplicateCheckin)

	count, err := repo.CheckinCount(context.Background(), participantID(t, repo, "alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordCheckin_Validation(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")
	h := NewRecordCheckinHandler(repo, &fakeFeedback{Text: "ok"}, testLogger)

	_, err := h.Handle(context.Background(), RecordCheckinCommand{Nickname: "alice", Content: "x"})
	assert.ErrorIs(t, err, challenge.ErrContentLength)

	_, err = h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  strings.Repeat("字", 501),
	})
	assert.ErrorIs(t, err, challenge.ErrContentLength)

	_, err = h.Handle(context.Background(), RecordCheckinCommand{Content: "no nickname given"})
	assert.ErrorIs(t, err, challenge.ErrBadFormat)
}

func TestRecordCheckin_UnknownParticipant(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")
	h := NewRecordCheckinHandler(repo, &fakeFeedback{Text: "ok"}, testLogger)

	_, err := h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "mallory",
		Content:  "trying to sneak in a check-in",
	})
	assert.ErrorIs(t, err, challenge.ErrNotFound)
}

func TestRecordCheckin_NoActivePeriod(t *testing.T) {
	repo := challengetest.NewRepo()
	h := NewRecordCheckinHandler(repo, &fakeFeedback{Text: "ok"}, testLogger)

	_, err := h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  "working hard on my project",
	})
	assert.ErrorIs(t, err, challenge.ErrNoActivePeriod)
}

func TestRecordCheckin_SurvivesFeedbackFailure(t *testing.T) {
	repo := challengetest.NewRepo()
	activatePeriodWithRoster(t, repo, "alice")
	h := NewRecordCheckinHandler(repo, &fakeFeedback{Fail: true}, testLogger)

	result, err := h.Handle(context.Background(), RecordCheckinCommand{
		Nickname: "alice",
		Content:  "shipped the feature despite the odds",
	})
	require.NoError(t, err)

	// Check-in is durable, feedback degrades to empty.
	assert.Empty(t, result.Feedback)
	count, err := repo.CheckinCount(context.Background(), participantID(t, repo, "alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func participantID(t *testing.T, repo *challengetest.Repo, nickname string) string {
	t.Helper()

	period, err := repo.PeriodByStatus(context.Background(), challenge.StatusActive, challenge.StatusEnded)
	require.NoError(t, err)
	p, err := repo.ParticipantByNickname(context.Background(), period.ID, nickname)
	require.NoError(t, err)
	return p.ID
}
