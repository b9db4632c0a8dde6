package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/pkg/retry"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// END PERIOD COMMAND
// Ends the active period and writes a completion certificate for every
// participant, qualified or not. Triggered by the end-period chat command.
// ══════════════════════════════════════════════════════════════════════════════

// EndPeriodCommand ends the active period. It carries no data; the single
// active period is the implicit target.
type EndPeriodCommand struct{}

// ParticipantSummary is one roster line of the closing report.
type ParticipantSummary struct {
	Nickname  string
	FocusArea string
	Checkins  int
	Qualified bool
}

// EndPeriodResult contains the ended period and the closing report.
type EndPeriodResult struct {
	Period    *challenge.Period
	Summaries []ParticipantSummary
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// EndPeriodHandler handles the EndPeriodCommand.
type EndPeriodHandler struct {
	repo     challenge.Repository
	feedback application.FeedbackGenerator
	retrier  *retry.Retrier
	logger   *slog.Logger
	now      func() time.Time
}

// NewEndPeriodHandler creates a new EndPeriodHandler.
func NewEndPeriodHandler(
	repo challenge.Repository,
	feedback application.FeedbackGenerator,
	logger *slog.Logger,
) *EndPeriodHandler {
	return &EndPeriodHandler{
		repo:     repo,
		feedback: feedback,
		retrier:  retry.FeedbackRetrier(),
		logger:   logger,
		now:      timeutil.Now,
	}
}

// WithClock overrides the handler's time source.
func (h *EndPeriodHandler) WithClock(now func() time.Time) *EndPeriodHandler {
	h.now = now
	return h
}

// Handle executes the end period command. Narrative generation failures are
// absorbed per participant; the period always ends.
func (h *EndPeriodHandler) Handle(ctx context.Context, _ EndPeriodCommand) (*EndPeriodResult, error) {
	period, err := h.repo.PeriodByStatus(ctx, challenge.StatusActive)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active period to end", challenge.ErrNotFound)
		}
		return nil, err
	}

	participants, err := h.repo.Participants(ctx, period.ID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	certs := make([]*challenge.Certificate, 0, len(participants))
	summaries := make([]ParticipantSummary, 0, len(participants))

	for _, p := range participants {
		checkins, err := h.repo.CheckinsByParticipant(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		content := h.certificateContent(ctx, p, checkins)
		cert := challenge.NewCertificate(period.ID, p.Nickname, content, len(checkins), now)
		certs = append(certs, cert)

		summaries = append(summaries, ParticipantSummary{
			Nickname:  p.Nickname,
			FocusArea: p.FocusArea,
			Checkins:  len(checkins),
			Qualified: cert.Qualified,
		})
	}

	if err := h.repo.EndPeriod(ctx, period.ID, certs); err != nil {
		return nil, err
	}
	period.Status = challenge.StatusEnded

	h.logger.InfoContext(ctx, "period ended",
		slog.String("period", period.Name),
		slog.Int("participants", len(participants)),
		slog.Int("certificates", len(certs)),
	)

	return &EndPeriodResult{Period: period, Summaries: summaries}, nil
}

// certificateContent produces the narrative stored on the certificate.
// Participants who never checked in get encouragement instead of a summary.
func (h *EndPeriodHandler) certificateContent(ctx context.Context, p *challenge.Participant, checkins []*challenge.Checkin) string {
	if len(checkins) == 0 {
		return fmt.Sprintf("%s signed up with a goal but didn't get started this time. Every period is a fresh start, see you in the next one!", p.Nickname)
	}

	history := make([]string, 0, len(checkins))
	for _, c := range checkins[:len(checkins)-1] {
		history = append(history, c.Content)
	}
	last := checkins[len(checkins)-1]

	fc := application.FeedbackContext{
		Nickname: p.Nickname,
		Goals:    p.GoalBundle(),
		History:  history,
		Content:  last.Content,
		Index:    last.Index,
		Mode:     application.ModeFinal,
	}

	var content string
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		var genErr error
		content, genErr = h.feedback.Generate(ctx, fc)
		return genErr
	})
	if err != nil {
		h.logger.WarnContext(ctx, "certificate narrative generation failed, using fallback",
			slog.String("nickname", p.Nickname),
			slog.String("error", err.Error()),
		)
		return fallbackNarrative(p.Nickname, len(checkins))
	}

	return content
}

// fallbackNarrative is the canned certificate text used when generation
// fails, worded by how far the participant got.
func fallbackNarrative(nickname string, count int) string {
	switch {
	case count >= 2*challenge.QualifyingCheckins:
		return fmt.Sprintf("%s completed %d check-ins over 21 days. An outstanding streak of consistent building!", nickname, count)
	case count >= challenge.QualifyingCheckins:
		return fmt.Sprintf("%s completed %d check-ins over 21 days and earned the completion certificate. Great persistence, keep building!", nickname, count)
	default:
		return fmt.Sprintf("%s completed %d check-ins over 21 days. A solid start, the next period is the one to push through!", nickname, count)
	}
}
