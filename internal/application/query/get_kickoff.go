package query

import (
	"context"
	"errors"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET KICKOFF QUERY
// Builds the kickoff roster overview posted right after sign-up closes:
// participants grouped by focus area, in registration order.
// ══════════════════════════════════════════════════════════════════════════════

// GetKickoffQuery requests the kickoff overview of the current period. The
// period may be active already or still open (dry-run preview).
type GetKickoffQuery struct{}

// KickoffMember is one participant line of the overview.
type KickoffMember struct {
	Nickname string
	Goals    string
}

// KickoffGroup collects the members of one focus area.
type KickoffGroup struct {
	FocusArea string
	Members   []KickoffMember
}

// GetKickoffResult contains the grouped roster.
type GetKickoffResult struct {
	PeriodName   string
	Participants int
	Groups       []KickoffGroup
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// GetKickoffHandler handles the GetKickoffQuery.
type GetKickoffHandler struct {
	repo challenge.Repository
}

// NewGetKickoffHandler creates a new GetKickoffHandler.
func NewGetKickoffHandler(repo challenge.Repository) *GetKickoffHandler {
	return &GetKickoffHandler{repo: repo}
}

// Handle executes the kickoff query.
func (h *GetKickoffHandler) Handle(ctx context.Context, _ GetKickoffQuery) (*GetKickoffResult, error) {
	period, err := h.repo.PeriodByStatus(ctx, challenge.StatusActive, challenge.StatusSignup)
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

	result := &GetKickoffResult{
		PeriodName:   period.Name,
		Participants: len(participants),
	}

	// Group by focus area, preserving first-seen group order and
	// registration order within a group.
	index := make(map[string]int)
	for _, p := range participants {
		area := p.FocusArea
		if area == "" {
			area = "General"
		}

		i, ok := index[area]
		if !ok {
			i = len(result.Groups)
			index[area] = i
			result.Groups = append(result.Groups, KickoffGroup{FocusArea: area})
		}

		result.Groups[i].Members = append(result.Groups[i].Members, KickoffMember{
			Nickname: p.Nickname,
			Goals:    p.Goals,
		})
	}

	return result, nil
}
