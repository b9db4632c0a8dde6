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
// RECORD CHECKIN COMMAND
// Appends one daily check-in to the ledger and returns narrative feedback.
// The (participant, date) uniqueness is enforced by the store, so concurrent
// submissions of the same day yield exactly one record.
// ══════════════════════════════════════════════════════════════════════════════

// RecordCheckinCommand contains one parsed check-in submission.
type RecordCheckinCommand struct {
	Nickname string
	Content  string
}

// Validate validates the command.
func (c RecordCheckinCommand) Validate() error {
	if c.Nickname == "" {
		return fmt.Errorf("%w: nickname is required", challenge.ErrBadFormat)
	}
	return challenge.ValidateCheckinContent(c.Content)
}

// RecordCheckinResult contains the stored check-in and its feedback text.
// Feedback is empty when generation failed; the presenter falls back to a
// canned acknowledgement.
type RecordCheckinResult struct {
	Checkin  *challenge.Checkin
	Feedback string
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// RecordCheckinHandler handles the RecordCheckinCommand.
type RecordCheckinHandler struct {
	repo     challenge.Repository
	feedback application.FeedbackGenerator
	retrier  *retry.Retrier
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecordCheckinHandler creates a new RecordCheckinHandler.
func NewRecordCheckinHandler(
	repo challenge.Repository,
	feedback application.FeedbackGenerator,
	logger *slog.Logger,
) *RecordCheckinHandler {
	return &RecordCheckinHandler{
		repo:     repo,
		feedback: feedback,
		retrier:  retry.FeedbackRetrier(),
		logger:   logger,
		now:      timeutil.Now,
	}
}

// WithClock overrides the handler's time source.
func (h *RecordCheckinHandler) WithClock(now func() time.Time) *RecordCheckinHandler {
	h.now = now
	return h
}

// Handle executes the record checkin command. The check-in is durable before
// feedback generation starts; a feedback failure never loses the record.
func (h *RecordCheckinHandler) Handle(ctx context.Context, cmd RecordCheckinCommand) (*RecordCheckinResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	period, err := h.repo.PeriodByStatus(ctx, challenge.StatusActive)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, challenge.ErrNoActivePeriod
		}
		return nil, err
	}

	participant, err := h.repo.ParticipantByNickname(ctx, period.ID, cmd.Nickname)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q is not on the roster of period %s", challenge.ErrNotFound, cmd.Nickname, period.Name)
		}
		return nil, err
	}

	history, err := h.repo.CheckinsByParticipant(ctx, participant.ID)
	if err != nil {
		return nil, err
	}

	checkin := challenge.NewCheckin(participant, cmd.Content, len(history)+1, h.now())
	if err := h.repo.InsertCheckin(ctx, checkin); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "checkin recorded",
		slog.String("period", period.Name),
		slog.String("nickname", participant.Nickname),
		slog.Int("index", checkin.Index),
	)

	return &RecordCheckinResult{
		Checkin:  checkin,
		Feedback: h.generateFeedback(ctx, participant, history, checkin),
	}, nil
}

// generateFeedback asks the generator for a narrative comment on the fresh
// check-in. Returns "" when all attempts fail.
func (h *RecordCheckinHandler) generateFeedback(ctx context.Context, p *challenge.Participant, history []*challenge.Checkin, checkin *challenge.Checkin) string {
	prior := make([]string, 0, len(history))
	for _, c := range history {
		prior = append(prior, c.Content)
	}

	fc := application.FeedbackContext{
		Nickname: p.Nickname,
		Goals:    p.GoalBundle(),
		History:  prior,
		Content:  checkin.Content,
		Index:    checkin.Index,
		Mode:     application.ModeNormal,
	}

	var text string
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		var genErr error
		text, genErr = h.feedback.Generate(ctx, fc)
		return genErr
	})
	if err != nil {
		h.logger.WarnContext(ctx, "checkin feedback generation failed",
			slog.String("nickname", p.Nickname),
			slog.String("error", err.Error()),
		)
		return ""
	}

	return text
}
