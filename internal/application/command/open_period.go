// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPEN PERIOD COMMAND
// Opens a new challenge period in the open-for-signup status. Triggered by
// the group sign-up card the community admin posts to the chat.
// ══════════════════════════════════════════════════════════════════════════════

// OpenPeriodCommand contains the data to open a period.
type OpenPeriodCommand struct {
	// SignupLink is the roster spreadsheet link extracted from the sign-up
	// card. May be empty; sign-up can then not be closed until one exists.
	SignupLink string

	// ChatID is the chat the card was posted in.
	ChatID string
}

// Validate validates the command.
func (c OpenPeriodCommand) Validate() error {
	if c.ChatID == "" {
		return errors.New("open_period: chat_id is required")
	}
	return nil
}

// OpenPeriodResult contains the result of opening a period.
type OpenPeriodResult struct {
	Period *challenge.Period
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// OpenPeriodHandler handles the OpenPeriodCommand.
type OpenPeriodHandler struct {
	repo   challenge.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewOpenPeriodHandler creates a new OpenPeriodHandler.
func NewOpenPeriodHandler(repo challenge.Repository, logger *slog.Logger) *OpenPeriodHandler {
	return &OpenPeriodHandler{
		repo:   repo,
		logger: logger,
		now:    timeutil.Now,
	}
}

// WithClock overrides the handler's time source.
func (h *OpenPeriodHandler) WithClock(now func() time.Time) *OpenPeriodHandler {
	h.now = now
	return h
}

// Handle executes the open period command.
func (h *OpenPeriodHandler) Handle(ctx context.Context, cmd OpenPeriodCommand) (*OpenPeriodResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Only one period may be open or active at a time.
	if live, err := h.repo.PeriodByStatus(ctx, challenge.StatusSignup, challenge.StatusActive); err == nil {
		return nil, fmt.Errorf("%w: period %s is %s", challenge.ErrConflict, live.Name, live.Status)
	} else if !errors.Is(err, challenge.ErrNotFound) {
		return nil, err
	}

	lastName := ""
	if latest, err := h.repo.LatestPeriod(ctx); err == nil {
		lastName = latest.Name
	} else if !errors.Is(err, challenge.ErrNotFound) {
		return nil, err
	}

	now := h.now()
	period := challenge.NewPeriod(
		challenge.NextPeriodName(lastName, now),
		cmd.SignupLink,
		cmd.ChatID,
		now,
	)

	if err := h.repo.CreatePeriod(ctx, period); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "period opened",
		slog.String("period", period.Name),
		slog.String("chat_id", period.ChatID),
	)

	return &OpenPeriodResult{Period: period}, nil
}
