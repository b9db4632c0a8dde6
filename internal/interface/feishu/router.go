// Package feishu routes inbound chat events to lifecycle, ledger and
// ranking operations. The router owns event de-duplication and message
// classification; formatting lives in the presenter subpackage.
package feishu

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/internal/interface/feishu/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT MODEL
// ══════════════════════════════════════════════════════════════════════════════

// Message types the router understands. Everything else is ignored.
const (
	MsgTypeText        = "text"
	MsgTypePost        = "post"
	MsgTypeInteractive = "interactive"
)

// Event is one normalized inbound chat event, decoded from the webhook
// envelope by the transport layer.
type Event struct {
	// EventID is the platform's delivery id; empty means no dedup possible.
	EventID string

	MessageID   string
	ChatID      string
	MessageType string

	// Content is the raw message content JSON, shape depending on type.
	Content []byte

	// BotMentioned is true when the message @-mentions the bot.
	BotMentioned bool
}

// textContent is the content payload of a plain text message.
type textContent struct {
	Text string `json:"text"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND GRAMMAR
// Case-sensitive literals, canonical English plus the Chinese forms the
// community actually types.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// #checkin <nickname> <content until end of line>. \w is ASCII-only in
	// Go regexps, so nicknames match letters of any script explicitly.
	checkinPattern = regexp.MustCompile(`^#(?:checkin|打卡)\s+([\p{L}\p{N}_-]+)\s+([^\n]+)`)

	// #<N>-day-ranking and its Chinese form.
	rankingPattern = regexp.MustCompile(`^#(?:(\d+)-day-ranking|(\d+)天打卡排名公布)$`)
)

var (
	signupEndCommands    = []string{"#signup-end", "#接龙结束"}
	activityEndCommands  = []string{"#activity-end", "#活动结束"}
	checkinStartCommands = []string{"#checkin-start", "#打卡开始"}
	latestRankCommands   = []string{"#latest-ranking", "#最新打卡排名公布"}
)

// Ranking day offsets that may be requested explicitly.
var rankingDays = map[int]bool{3: true, 7: true, 14: true, 21: true}

// mentionToken matches the placeholder Feishu substitutes for @-mentions
// inside the text body.
var mentionToken = regexp.MustCompile(`@_user_\d+\s*`)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Handlers bundles the application operations the router dispatches to.
type Handlers struct {
	OpenPeriod interface {
		Handle(ctx context.Context, cmd command.OpenPeriodCommand) (*command.OpenPeriodResult, error)
	}
	CloseSignup interface {
		Handle(ctx context.Context, cmd command.CloseSignupCommand) (*command.CloseSignupResult, error)
	}
	EndPeriod interface {
		Handle(ctx context.Context, cmd command.EndPeriodCommand) (*command.EndPeriodResult, error)
	}
	RecordCheckin interface {
		Handle(ctx context.Context, cmd command.RecordCheckinCommand) (*command.RecordCheckinResult, error)
	}
	Leaderboard interface {
		Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)
	}
	Kickoff interface {
		Handle(ctx context.Context, q query.GetKickoffQuery) (*query.GetKickoffResult, error)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains router settings.
type Config struct {
	// CardTitle is the title of the goal-setting card that opens a period.
	CardTitle string

	// RoleTag filters roster rows on sign-up close.
	RoleTag string
}

// Router classifies inbound events and dispatches them.
type Router struct {
	config    Config
	handlers  Handlers
	deduper   Deduper
	sender    application.MessageSender
	feedback  application.FeedbackGenerator
	presenter *presenter.Presenter
	logger    *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(
	config Config,
	handlers Handlers,
	deduper Deduper,
	sender application.MessageSender,
	feedback application.FeedbackGenerator,
	logger *slog.Logger,
) *Router {
	return &Router{
		config:    config,
		handlers:  handlers,
		deduper:   deduper,
		sender:    sender,
		feedback:  feedback,
		presenter: presenter.New(),
		logger:    logger,
	}
}

// HandleEvent processes one inbound event. It never returns an error for
// malformed or unrecognized payloads; the transport boundary always sees a
// clean acknowledgement.
func (r *Router) HandleEvent(ctx context.Context, ev Event) {
	if ev.EventID != "" {
		seen, err := r.deduper.Seen(ctx, ev.EventID)
		if err != nil {
			// A broken dedup store must not drop live traffic.
			r.logger.WarnContext(ctx, "dedup check failed, processing anyway",
				slog.String("event_id", ev.EventID),
				slog.String("error", err.Error()),
			)
		} else if seen {
			r.logger.DebugContext(ctx, "duplicate event dropped",
				slog.String("event_id", ev.EventID),
			)
			return
		}
	}

	switch ev.MessageType {
	case MsgTypePost, MsgTypeInteractive:
		r.handleCard(ctx, ev)
	case MsgTypeText:
		r.handleText(ctx, ev)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Card events
// ──────────────────────────────────────────────────────────────────────────────

func (r *Router) handleCard(ctx context.Context, ev Event) {
	card, ok := ParseSignupCard(ev.Content)
	if !ok {
		r.logger.WarnContext(ctx, "malformed card payload ignored",
			slog.String("message_id", ev.MessageID),
		)
		return
	}

	if !card.IsOpenTrigger(r.config.CardTitle) {
		return
	}

	result, err := r.handlers.OpenPeriod.Handle(ctx, command.OpenPeriodCommand{
		SignupLink: card.Link,
		ChatID:     ev.ChatID,
	})
	if err != nil {
		r.reject(ctx, ev.ChatID, "open period", err)
		return
	}

	r.reply(ctx, ev.ChatID, r.presenter.PeriodOpened(result))
}

// ──────────────────────────────────────────────────────────────────────────────
// Text events
// ──────────────────────────────────────────────────────────────────────────────

func (r *Router) handleText(ctx context.Context, ev Event) {
	var content textContent
	if err := json.Unmarshal(ev.Content, &content); err != nil {
		r.logger.WarnContext(ctx, "malformed text payload ignored",
			slog.String("message_id", ev.MessageID),
		)
		return
	}

	text := strings.TrimSpace(mentionToken.ReplaceAllString(content.Text, ""))

	if ev.BotMentioned {
		r.handleMention(ctx, ev.ChatID, text)
		return
	}

	switch {
	case matchesAny(text, signupEndCommands):
		r.handleSignupEnd(ctx, ev.ChatID)
	case matchesAny(text, activityEndCommands):
		r.handleActivityEnd(ctx, ev.ChatID)
	case matchesAny(text, checkinStartCommands):
		r.handleCheckinStart(ctx, ev.ChatID)
	case matchesAny(text, latestRankCommands):
		r.handleRanking(ctx, ev.ChatID, 0)
	default:
		if m := rankingPattern.FindStringSubmatch(text); m != nil {
			r.handleDayRanking(ctx, ev.ChatID, m)
			return
		}
		if m := checkinPattern.FindStringSubmatch(text); m != nil {
			r.handleCheckin(ctx, ev.ChatID, m[1], m[2])
			return
		}
		// Unrecognized text produces no response.
	}
}

func matchesAny(text string, literals []string) bool {
	for _, l := range literals {
		if text == l {
			return true
		}
	}
	return false
}

func (r *Router) handleSignupEnd(ctx context.Context, chatID string) {
	result, err := r.handlers.CloseSignup.Handle(ctx, command.CloseSignupCommand{
		RoleTag: r.config.RoleTag,
	})
	if err != nil {
		r.reject(ctx, chatID, "close signup", err)
		return
	}

	r.reply(ctx, chatID, r.presenter.SignupClosed(result))
}

func (r *Router) handleActivityEnd(ctx context.Context, chatID string) {
	result, err := r.handlers.EndPeriod.Handle(ctx, command.EndPeriodCommand{})
	if err != nil {
		r.reject(ctx, chatID, "end period", err)
		return
	}

	r.reply(ctx, chatID, r.presenter.PeriodEnded(result))
}

func (r *Router) handleCheckinStart(ctx context.Context, chatID string) {
	result, err := r.handlers.Kickoff.Handle(ctx, query.GetKickoffQuery{})
	if err != nil {
		r.reject(ctx, chatID, "kickoff", err)
		return
	}

	r.reply(ctx, chatID, r.presenter.Kickoff(result))
}

func (r *Router) handleDayRanking(ctx context.Context, chatID string, match []string) {
	raw := match[1]
	if raw == "" {
		raw = match[2]
	}

	day, err := strconv.Atoi(raw)
	if err != nil || !rankingDays[day] {
		// Not a milestone day; stay silent like any unrecognized text.
		return
	}

	r.handleRanking(ctx, chatID, day)
}

func (r *Router) handleRanking(ctx context.Context, chatID string, day int) {
	result, err := r.handlers.Leaderboard.Handle(ctx, query.GetLeaderboardQuery{Day: day})
	if err != nil {
		r.reject(ctx, chatID, "leaderboard", err)
		return
	}

	r.reply(ctx, chatID, r.presenter.Leaderboard(result))
}

func (r *Router) handleCheckin(ctx context.Context, chatID, nickname, content string) {
	result, err := r.handlers.RecordCheckin.Handle(ctx, command.RecordCheckinCommand{
		Nickname: nickname,
		Content:  strings.TrimSpace(content),
	})
	if err != nil {
		r.reject(ctx, chatID, "record checkin", err)
		return
	}

	r.reply(ctx, chatID, r.presenter.CheckinRecorded(result))
}

// mentionFallbacks are the canned replies used when generation fails; a
// mention always gets an answer.
var mentionFallbacks = []string{
	"收到！我在认真思考你的问题，稍后再来问问我吧～ 🤖",
	"这个问题有点意思！容我缓一缓再给你一个好答案 ✨",
	"我在呢！不过现在脑子有点转不动，待会儿再聊？💭",
}

func (r *Router) handleMention(ctx context.Context, chatID, text string) {
	if text == "" {
		return
	}

	answer, err := r.feedback.Reply(ctx, text)
	if err != nil {
		r.logger.WarnContext(ctx, "mention reply generation failed",
			slog.String("error", err.Error()),
		)
		answer = mentionFallbacks[len(text)%len(mentionFallbacks)]
	}

	r.reply(ctx, chatID, answer)
}

// ──────────────────────────────────────────────────────────────────────────────
// Responses
// ──────────────────────────────────────────────────────────────────────────────

// reject answers a failed operation: user errors get an explanatory line,
// storage and dependency failures get a generic retry line plus a log entry.
func (r *Router) reject(ctx context.Context, chatID, op string, err error) {
	if !challenge.IsUserError(err) {
		r.logger.ErrorContext(ctx, "operation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}

	if text := r.presenter.UserError(err); text != "" {
		r.reply(ctx, chatID, text)
	}
}

func (r *Router) reply(ctx context.Context, chatID, text string) {
	if text == "" || chatID == "" {
		return
	}

	if err := r.sender.Send(ctx, chatID, text); err != nil {
		r.logger.ErrorContext(ctx, "failed to send reply",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}
