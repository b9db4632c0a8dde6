package challenge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

func TestNewPeriod(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, timeutil.CommunityTZ)
	p := NewPeriod("2025-09", "https://example.feishu.cn/base/xyz", "oc_chat", now)

	require.NotEmpty(t, p.ID)
	assert.Equal(t, StatusSignup, p.Status)
	assert.Equal(t, now.Add(PeriodDuration), p.EndAt)
	assert.Equal(t, 0, p.LastPublishedDay)
}

func TestPeriodDay(t *testing.T) {
	start := time.Date(2025, 9, 1, 21, 30, 0, 0, timeutil.CommunityTZ)
	p := NewPeriod("2025-09", "", "oc_chat", start)

	assert.Equal(t, 1, p.Day(start))
	assert.Equal(t, 7, p.Day(start.AddDate(0, 0, 6)))
}

func TestValidateCheckinContent(t *testing.T) {
	assert.ErrorIs(t, ValidateCheckinContent("x"), ErrContentLength)
	assert.ErrorIs(t, ValidateCheckinContent(strings.Repeat("字", 501)), ErrContentLength)

	// Rune count, not byte count: 500 CJK chars are 1500 bytes but valid.
	assert.NoError(t, ValidateCheckinContent(strings.Repeat("字", 500)))
	assert.NoError(t, ValidateCheckinContent("完成了登录功能"))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusSignup.CanTransitionTo(StatusActive))
	assert.True(t, StatusActive.CanTransitionTo(StatusEnded))

	assert.False(t, StatusSignup.CanTransitionTo(StatusEnded))
	assert.False(t, StatusActive.CanTransitionTo(StatusSignup))
	assert.False(t, StatusEnded.CanTransitionTo(StatusSignup))
	assert.True(t, StatusEnded.Terminal())
}

func TestParsePeriodStatus(t *testing.T) {
	s, err := ParsePeriodStatus("active")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s)

	_, err = ParsePeriodStatus("paused")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestNewCertificate_Qualification(t *testing.T) {
	now := time.Now()

	qualified := NewCertificate("p1", "alice", "well done", 7, now)
	assert.True(t, qualified.Qualified)

	almost := NewCertificate("p1", "bob", "keep going", 6, now)
	assert.False(t, almost.Qualified)
}

func TestParticipantGoalBundle(t *testing.T) {
	p := NewParticipant("p1", " alice ", "chatbot", "a small bot", "ship v1", time.Now())

	assert.Equal(t, "alice", p.Nickname)
	bundle := p.GoalBundle()
	assert.Contains(t, bundle, "chatbot")
	assert.Contains(t, bundle, "a small bot")
	assert.Contains(t, bundle, "ship v1")
}
