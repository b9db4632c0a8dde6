package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOSE SIGNUP COMMAND
// Imports the roster from the period's sign-up link and activates the period.
// Triggered by the end-signup chat command.
// ══════════════════════════════════════════════════════════════════════════════

// CloseSignupCommand contains the data to close sign-up.
type CloseSignupCommand struct {
	// RoleTag filters roster rows; only entries whose role answer contains
	// it are imported.
	RoleTag string
}

// Validate validates the command.
func (c CloseSignupCommand) Validate() error {
	if c.RoleTag == "" {
		return errors.New("close_signup: role_tag is required")
	}
	return nil
}

// CloseSignupResult contains the activated period and its roster.
type CloseSignupResult struct {
	Period       *challenge.Period
	Participants []*challenge.Participant
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// CloseSignupHandler handles the CloseSignupCommand.
type CloseSignupHandler struct {
	repo   challenge.Repository
	roster application.RosterClient
	logger *slog.Logger
}

// NewCloseSignupHandler creates a new CloseSignupHandler.
func NewCloseSignupHandler(
	repo challenge.Repository,
	roster application.RosterClient,
	logger *slog.Logger,
) *CloseSignupHandler {
	return &CloseSignupHandler{
		repo:   repo,
		roster: roster,
		logger: logger,
	}
}

// Handle executes the close signup command. Nothing is mutated unless the
// roster import yields at least one participant.
func (h *CloseSignupHandler) Handle(ctx context.Context, cmd CloseSignupCommand) (*CloseSignupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	period, err := h.repo.PeriodByStatus(ctx, challenge.StatusSignup)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, fmt.Errorf("%w: no period is open for signup", challenge.ErrNotFound)
		}
		return nil, err
	}

	if period.SignupLink == "" {
		return nil, challenge.ErrMissingSignupLink
	}

	entries, err := h.roster.FetchParticipants(ctx, period.SignupLink)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch roster: %v", challenge.ErrDependency, err)
	}

	roster := make([]*challenge.Participant, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		nickname := strings.TrimSpace(e.Nickname)
		if nickname == "" || !strings.Contains(e.Role, cmd.RoleTag) {
			continue
		}
		if seen[nickname] {
			h.logger.WarnContext(ctx, "duplicate nickname in roster, keeping first",
				slog.String("nickname", nickname),
			)
			continue
		}
		seen[nickname] = true

		roster = append(roster, challenge.NewParticipant(
			period.ID,
			nickname,
			e.FocusArea,
			e.Introduction,
			e.Goals,
			e.SubmittedAt,
		))
	}

	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: no qualifying roster rows for role %q", challenge.ErrEmptyRoster, cmd.RoleTag)
	}

	if err := h.repo.ActivatePeriod(ctx, period.ID, roster); err != nil {
		return nil, err
	}
	period.Status = challenge.StatusActive

	h.logger.InfoContext(ctx, "signup closed",
		slog.String("period", period.Name),
		slog.Int("participants", len(roster)),
	)

	return &CloseSignupResult{Period: period, Participants: roster}, nil
}
