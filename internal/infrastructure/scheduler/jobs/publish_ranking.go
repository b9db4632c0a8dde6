// Package jobs contains the scheduled background jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/scheduler"
	"github.com/hackathonweekly/checkin-hub/internal/interface/feishu/presenter"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH RANKING JOB
// Publishes the leaderboard to the challenge chat on milestone days, inside
// a short daily window. The publication claim is persisted, so restarts and
// concurrent triggers within the window publish at most once per milestone.
// ══════════════════════════════════════════════════════════════════════════════

// Challenge days on which the ranking is published automatically.
var milestoneDays = map[int]bool{3: true, 7: true, 14: true, 21: true}

// LeaderboardQuery is the read side the job depends on.
type LeaderboardQuery interface {
	Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)
}

// PublishRankingConfig contains the publication window settings.
type PublishRankingConfig struct {
	// Window start in community local time.
	Hour   int
	Minute int

	// Minutes after the start during which a trigger still fires.
	WindowMinutes int

	// DefaultChatID receives the ranking when the period has no chat of
	// its own on record.
	DefaultChatID string
}

// PublishRankingJob checks milestone conditions and publishes the ranking.
type PublishRankingJob struct {
	repo        challenge.Repository
	leaderboard LeaderboardQuery
	sender      application.MessageSender
	presenter   *presenter.Presenter
	config      PublishRankingConfig
	clock       scheduler.Clock
	logger      *slog.Logger
}

// NewPublishRankingJob creates the job. A nil clock means the system clock.
func NewPublishRankingJob(
	repo challenge.Repository,
	leaderboard LeaderboardQuery,
	sender application.MessageSender,
	config PublishRankingConfig,
	clock scheduler.Clock,
	logger *slog.Logger,
) *PublishRankingJob {
	if clock == nil {
		clock = scheduler.SystemClock{}
	}

	return &PublishRankingJob{
		repo:        repo,
		leaderboard: leaderboard,
		sender:      sender,
		presenter:   presenter.New(),
		config:      config,
		clock:       clock,
		logger:      logger,
	}
}

var _ scheduler.Job = (*PublishRankingJob)(nil)

// Name implements scheduler.Job.
func (j *PublishRankingJob) Name() string { return "publish_ranking" }

// Run implements scheduler.Job. The active period is re-queried on every
// run; no state is cached across sleeps.
func (j *PublishRankingJob) Run(ctx context.Context) error {
	now := timeutil.ToCommunity(j.clock.Now())

	if !timeutil.InDailyWindow(now, j.config.Hour, j.config.Minute, j.config.WindowMinutes) {
		return nil
	}

	period, err := j.repo.PeriodByStatus(ctx, challenge.StatusActive)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("query active period: %w", err)
	}

	day := period.Day(now)
	if !milestoneDays[day] {
		return nil
	}

	claimed, err := j.repo.ClaimPublication(ctx, period.ID, day)
	if err != nil {
		return fmt.Errorf("claim publication: %w", err)
	}
	if !claimed {
		return nil
	}

	j.logger.InfoContext(ctx, "publishing milestone ranking",
		slog.String("period", period.Name),
		slog.Int("day", day),
		slog.Time("at", now),
	)

	result, err := j.leaderboard.Handle(ctx, query.GetLeaderboardQuery{Day: day})
	if err != nil {
		return fmt.Errorf("build leaderboard: %w", err)
	}

	chatID := period.ChatID
	if chatID == "" {
		chatID = j.config.DefaultChatID
	}
	if chatID == "" {
		j.logger.WarnContext(ctx, "no chat to publish ranking to",
			slog.String("period", period.Name),
		)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := j.sender.Send(sendCtx, chatID, j.presenter.Leaderboard(result)); err != nil {
		return fmt.Errorf("send ranking: %w", err)
	}

	return nil
}
