package feishu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeSender struct {
	Messages []string
	ChatIDs  []string
	Err      error
}

func (f *fakeSender) Send(_ context.Context, chatID, text string) error {
	f.ChatIDs = append(f.ChatIDs, chatID)
	f.Messages = append(f.Messages, text)
	return f.Err
}

type fakeFeedback struct {
	Text string
	Fail bool
}

func (f *fakeFeedback) Generate(_ context.Context, _ application.FeedbackContext) (string, error) {
	if f.Fail {
		return "", errors.New("generation down")
	}
	return f.Text, nil
}

func (f *fakeFeedback) Reply(_ context.Context, _ string) (string, error) {
	if f.Fail {
		return "", errors.New("generation down")
	}
	return f.Text, nil
}

// fakeHandlers records which operation was dispatched and with what input.
type fakeHandlers struct {
	OpenCalls     []command.OpenPeriodCommand
	CloseCalls    []command.CloseSignupCommand
	EndCalls      int
	CheckinCalls  []command.RecordCheckinCommand
	RankCalls     []query.GetLeaderboardQuery
	KickoffCalls  int
	Err           error
	CheckinResult *command.RecordCheckinResult
}

func (f *fakeHandlers) bundle() Handlers {
	return Handlers{
		OpenPeriod:    openPeriodFunc(f.openPeriod),
		CloseSignup:   closeSignupFunc(f.closeSignup),
		EndPeriod:     endPeriodFunc(f.endPeriod),
		RecordCheckin: recordCheckinFunc(f.recordCheckin),
		Leaderboard:   leaderboardFunc(f.leaderboard),
		Kickoff:       kickoffFunc(f.kickoff),
	}
}

func (f *fakeHandlers) openPeriod(_ context.Context, cmd command.OpenPeriodCommand) (*command.OpenPeriodResult, error) {
	f.OpenCalls = append(f.OpenCalls, cmd)
	if f.Err != nil {
		return nil, f.Err
	}
	return &command.OpenPeriodResult{
		Period: challenge.NewPeriod("2025-09", cmd.SignupLink, cmd.ChatID, time.Now()),
	}, nil
}

func (f *fakeHandlers) closeSignup(_ context.Context, cmd command.CloseSignupCommand) (*command.CloseSignupResult, error) {
	f.CloseCalls = append(f.CloseCalls, cmd)
	if f.Err != nil {
		return nil, f.Err
	}
	period := challenge.NewPeriod("2025-09", "", "oc_chat", time.Now())
	return &command.CloseSignupResult{
		Period: period,
		Participants: []*challenge.Participant{
			challenge.NewParticipant(period.ID, "alice", "bot", "intro", "goal", time.Now()),
		},
	}, nil
}

func (f *fakeHandlers) endPeriod(_ context.Context, _ command.EndPeriodCommand) (*command.EndPeriodResult, error) {
	f.EndCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &command.EndPeriodResult{
		Period: challenge.NewPeriod("2025-09", "", "oc_chat", time.Now()),
		Summaries: []command.ParticipantSummary{
			{Nickname: "alice", Checkins: 9, Qualified: true},
		},
	}, nil
}

func (f *fakeHandlers) recordCheckin(_ context.Context, cmd command.RecordCheckinCommand) (*command.RecordCheckinResult, error) {
	f.CheckinCalls = append(f.CheckinCalls, cmd)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CheckinResult != nil {
		return f.CheckinResult, nil
	}
	p := &challenge.Participant{ID: "p-1", Nickname: cmd.Nickname}
	return &command.RecordCheckinResult{
		Checkin:  challenge.NewCheckin(p, cmd.Content, 1, time.Now().In(timeutil.CommunityTZ)),
		Feedback: "keep it up",
	}, nil
}

func (f *fakeHandlers) leaderboard(_ context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error) {
	f.RankCalls = append(f.RankCalls, q)
	if f.Err != nil {
		return nil, f.Err
	}
	return &query.GetLeaderboardResult{
		PeriodName:   "2025-09",
		Day:          q.Day,
		Participants: 1,
		Entries:      []query.LeaderboardEntry{{Rank: 1, Nickname: "alice", Checkins: 5}},
	}, nil
}

func (f *fakeHandlers) kickoff(_ context.Context, _ query.GetKickoffQuery) (*query.GetKickoffResult, error) {
	f.KickoffCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &query.GetKickoffResult{
		PeriodName:   "2025-09",
		Participants: 1,
		Groups: []query.KickoffGroup{
			{FocusArea: "bot", Members: []query.KickoffMember{{Nickname: "alice", Goals: "goal"}}},
		},
	}, nil
}

// Function adapters for the inline handler interfaces.
type openPeriodFunc func(context.Context, command.OpenPeriodCommand) (*command.OpenPeriodResult, error)

func (f openPeriodFunc) Handle(ctx context.Context, cmd command.OpenPeriodCommand) (*command.OpenPeriodResult, error) {
	return f(ctx, cmd)
}

type closeSignupFunc func(context.Context, command.CloseSignupCommand) (*command.CloseSignupResult, error)

func (f closeSignupFunc) Handle(ctx context.Context, cmd command.CloseSignupCommand) (*command.CloseSignupResult, error) {
	return f(ctx, cmd)
}

type endPeriodFunc func(context.Context, command.EndPeriodCommand) (*command.EndPeriodResult, error)

func (f endPeriodFunc) Handle(ctx context.Context, cmd command.EndPeriodCommand) (*command.EndPeriodResult, error) {
	return f(ctx, cmd)
}

type recordCheckinFunc func(context.Context, command.RecordCheckinCommand) (*command.RecordCheckinResult, error)

func (f recordCheckinFunc) Handle(ctx context.Context, cmd command.RecordCheckinCommand) (*command.RecordCheckinResult, error) {
	return f(ctx, cmd)
}

type leaderboardFunc func(context.Context, query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)

func (f leaderboardFunc) Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error) {
	return f(ctx, q)
}

type kickoffFunc func(context.Context, query.GetKickoffQuery) (*query.GetKickoffResult, error)

func (f kickoffFunc) Handle(ctx context.Context, q query.GetKickoffQuery) (*query.GetKickoffResult, error) {
	return f(ctx, q)
}

// ─────────────────────────────────────────────────────────────────────────────
// Setup
// ─────────────────────────────────────────────────────────────────────────────

func newTestRouter(h *fakeHandlers, sender *fakeSender, feedback *fakeFeedback) *Router {
	return NewRouter(
		Config{CardTitle: cardTitle, RoleTag: "开发者"},
		h.bundle(),
		NewBoundedDeduper(16),
		sender,
		feedback,
		testLogger,
	)
}

func textEvent(id, text string) Event {
	return Event{
		EventID:     id,
		MessageID:   "om_" + id,
		ChatID:      "oc_chat",
		MessageType: MsgTypeText,
		Content:     []byte(`{"text":` + jsonString(text) + `}`),
	}
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRouter_DropsDuplicateEvents(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	ev := textEvent("ev-1", "#signup-end")
	r.HandleEvent(context.Background(), ev)
	r.HandleEvent(context.Background(), ev)

	assert.Len(t, h.CloseCalls, 1)
	assert.Len(t, sender.Messages, 1)
}

func TestRouter_SignupCardOpensPeriod(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), Event{
		EventID:     "ev-card",
		ChatID:      "oc_chat",
		MessageType: MsgTypePost,
		Content:     []byte(signupCardJSON),
	})

	require.Len(t, h.OpenCalls, 1)
	assert.Equal(t, "https://example.feishu.cn/base/bascnAbCdEfGhIjKlMnOpQ", h.OpenCalls[0].SignupLink)
	assert.Equal(t, "oc_chat", h.OpenCalls[0].ChatID)
	require.Len(t, sender.Messages, 1)
	assert.Contains(t, sender.Messages[0], "2025-09")
}

func TestRouter_RosterUpdateCardIgnored(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), Event{
		EventID:     "ev-card-update",
		ChatID:      "oc_chat",
		MessageType: MsgTypePost,
		Content:     []byte(rosterUpdateJSON),
	})

	assert.Empty(t, h.OpenCalls)
	assert.Empty(t, sender.Messages)
}

func TestRouter_CommandLiterals(t *testing.T) {
	tests := []struct {
		text   string
		assert func(t *testing.T, h *fakeHandlers)
	}{
		{"#signup-end", func(t *testing.T, h *fakeHandlers) { assert.Len(t, h.CloseCalls, 1) }},
		{"#接龙结束", func(t *testing.T, h *fakeHandlers) { assert.Len(t, h.CloseCalls, 1) }},
		{"#activity-end", func(t *testing.T, h *fakeHandlers) { assert.Equal(t, 1, h.EndCalls) }},
		{"#活动结束", func(t *testing.T, h *fakeHandlers) { assert.Equal(t, 1, h.EndCalls) }},
		{"#checkin-start", func(t *testing.T, h *fakeHandlers) { assert.Equal(t, 1, h.KickoffCalls) }},
		{"#打卡开始", func(t *testing.T, h *fakeHandlers) { assert.Equal(t, 1, h.KickoffCalls) }},
		{"#latest-ranking", func(t *testing.T, h *fakeHandlers) {
			require.Len(t, h.RankCalls, 1)
			assert.Equal(t, 0, h.RankCalls[0].Day)
		}},
		{"#最新打卡排名公布", func(t *testing.T, h *fakeHandlers) {
			require.Len(t, h.RankCalls, 1)
			assert.Equal(t, 0, h.RankCalls[0].Day)
		}},
		{"#7-day-ranking", func(t *testing.T, h *fakeHandlers) {
			require.Len(t, h.RankCalls, 1)
			assert.Equal(t, 7, h.RankCalls[0].Day)
		}},
		{"#21天打卡排名公布", func(t *testing.T, h *fakeHandlers) {
			require.Len(t, h.RankCalls, 1)
			assert.Equal(t, 21, h.RankCalls[0].Day)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			h := &fakeHandlers{}
			sender := &fakeSender{}
			r := newTestRouter(h, sender, &fakeFeedback{})

			r.HandleEvent(context.Background(), textEvent("ev-"+tt.text, tt.text))
			tt.assert(t, h)
			assert.Len(t, sender.Messages, 1)
		})
	}
}

func TestRouter_CheckinCommand(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-c1", "#打卡 小明 今天完成了登录页面的开发"))

	require.Len(t, h.CheckinCalls, 1)
	assert.Equal(t, "小明", h.CheckinCalls[0].Nickname)
	assert.Equal(t, "今天完成了登录页面的开发", h.CheckinCalls[0].Content)
	require.Len(t, sender.Messages, 1)
	assert.Contains(t, sender.Messages[0], "keep it up")
}

func TestRouter_CheckinEnglishForm(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-c2", "#checkin alice-dev shipped the parser and wrote tests"))

	require.Len(t, h.CheckinCalls, 1)
	assert.Equal(t, "alice-dev", h.CheckinCalls[0].Nickname)
	assert.Equal(t, "shipped the parser and wrote tests", h.CheckinCalls[0].Content)
}

func TestRouter_NonMilestoneRankingStaysSilent(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-r5", "#5-day-ranking"))

	assert.Empty(t, h.RankCalls)
	assert.Empty(t, sender.Messages)
}

func TestRouter_UnrecognizedTextStaysSilent(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-x", "good morning everyone"))

	assert.Empty(t, sender.Messages)
	assert.Empty(t, h.CheckinCalls)
}

func TestRouter_UserErrorGetsExplanation(t *testing.T) {
	h := &fakeHandlers{Err: challenge.ErrNoActivePeriod}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-e1", "#checkin alice did some work today"))

	require.Len(t, sender.Messages, 1)
	assert.Contains(t, sender.Messages[0], "No challenge is running")
}

func TestRouter_StorageErrorGetsRetryLine(t *testing.T) {
	h := &fakeHandlers{Err: challenge.ErrStorage}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-e2", "#checkin alice did some work today"))

	require.Len(t, sender.Messages, 1)
	assert.Contains(t, sender.Messages[0], "try again")
}

func TestRouter_DependencyErrorGetsRetryLine(t *testing.T) {
	h := &fakeHandlers{Err: challenge.ErrDependency}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), textEvent("ev-e3", "#signup-end"))

	require.Len(t, sender.Messages, 1)
	assert.Contains(t, sender.Messages[0], "try again")
}

func TestRouter_MalformedPayloadsIgnored(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{})

	r.HandleEvent(context.Background(), Event{
		EventID:     "ev-bad-text",
		ChatID:      "oc_chat",
		MessageType: MsgTypeText,
		Content:     []byte(`not json`),
	})
	r.HandleEvent(context.Background(), Event{
		EventID:     "ev-bad-card",
		ChatID:      "oc_chat",
		MessageType: MsgTypePost,
		Content:     []byte(`{"title": 42`),
	})

	assert.Empty(t, sender.Messages)
}

func TestRouter_MentionRoutedToReply(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{Text: "加油，你的项目进展很棒！"})

	ev := textEvent("ev-m1", "@_user_1 今天有点累，不想打卡了")
	ev.BotMentioned = true
	r.HandleEvent(context.Background(), ev)

	require.Len(t, sender.Messages, 1)
	assert.Equal(t, "加油，你的项目进展很棒！", sender.Messages[0])
	// A mention must not be parsed as a command.
	assert.Empty(t, h.CheckinCalls)
}

func TestRouter_MentionReplyFailureSendsFallback(t *testing.T) {
	h := &fakeHandlers{}
	sender := &fakeSender{}
	r := newTestRouter(h, sender, &fakeFeedback{Fail: true})

	ev := textEvent("ev-m2", "@_user_1 在吗")
	ev.BotMentioned = true
	r.HandleEvent(context.Background(), ev)

	require.Len(t, sender.Messages, 1)
	assert.Contains(t, mentionFallbacks, sender.Messages[0])
}
