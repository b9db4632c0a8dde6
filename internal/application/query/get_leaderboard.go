// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Computes the check-in ranking of the active period. Used both by the
// on-demand chat commands and by the milestone scheduler.
// ══════════════════════════════════════════════════════════════════════════════

// How many ranked lines the leaderboard shows, and for how many of those a
// short progress note is generated.
const (
	LeaderboardSize  = 10
	ProgressNoteSize = 5
)

// GetLeaderboardQuery requests the ranking as of a challenge day.
type GetLeaderboardQuery struct {
	// Day is the 1-based challenge day the ranking is labeled with.
	// Zero means "today", computed from the period start.
	Day int
}

// LeaderboardEntry is one ranked line.
type LeaderboardEntry struct {
	Rank     int
	Nickname string
	Checkins int

	// Progress is a short goal-progress note, set for the top entries only.
	Progress string
}

// GetLeaderboardResult contains the computed ranking.
type GetLeaderboardResult struct {
	PeriodName string
	Day        int
	Entries    []LeaderboardEntry

	// Total roster size and how many of them have not checked in yet.
	Participants int
	ZeroCount    int
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo     challenge.Repository
	feedback application.FeedbackGenerator
	logger   *slog.Logger
	now      func() time.Time
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	repo challenge.Repository,
	feedback application.FeedbackGenerator,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:     repo,
		feedback: feedback,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// WithClock overrides the handler's time source.
func (h *GetLeaderboardHandler) WithClock(now func() time.Time) *GetLeaderboardHandler {
	h.now = now
	return h
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	period, err := h.repo.PeriodByStatus(ctx, challenge.StatusActive)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, challenge.ErrNoActivePeriod
		}
		return nil, err
	}

	participants, err := h.repo.Participants(ctx, period.ID)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		participant *challenge.Participant
		count       int
	}

	rankedAll := make([]ranked, 0, len(participants))
	zero := 0
	for _, p := range participants {
		count, err := h.repo.CheckinCount(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			zero++
		}
		rankedAll = append(rankedAll, ranked{participant: p, count: count})
	}

	// Participants arrive in registration order; a stable sort keeps the
	// earlier registrant first among equal counts.
	sort.SliceStable(rankedAll, func(i, j int) bool {
		return rankedAll[i].count > rankedAll[j].count
	})

	day := q.Day
	if day == 0 {
		day = period.Day(h.now())
	}

	result := &GetLeaderboardResult{
		PeriodName:   period.Name,
		Day:          day,
		Participants: len(participants),
		ZeroCount:    zero,
	}

	for _, r := range rankedAll {
		if len(result.Entries) >= LeaderboardSize || r.count == 0 {
			break
		}

		entry := LeaderboardEntry{
			Rank:     len(result.Entries) + 1,
			Nickname: r.participant.Nickname,
			Checkins: r.count,
		}
		if entry.Rank <= ProgressNoteSize {
			entry.Progress = h.progressNote(ctx, r.participant, r.count)
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// progressNote produces a one-line goal-progress summary for a top entry.
// A single attempt only; the leaderboard must not wait on retries.
func (h *GetLeaderboardHandler) progressNote(ctx context.Context, p *challenge.Participant, count int) string {
	const fallback = "Goal in progress"

	latest, err := h.repo.LatestCheckin(ctx, p.ID)
	if err != nil {
		return fallback
	}

	note, err := h.feedback.Generate(ctx, application.FeedbackContext{
		Nickname: p.Nickname,
		Goals:    p.GoalBundle(),
		Content:  latest.Content,
		Index:    count,
		Mode:     application.ModeRanking,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "progress note generation failed",
			slog.String("nickname", p.Nickname),
			slog.String("error", err.Error()),
		)
		return fallback
	}

	return note
}
