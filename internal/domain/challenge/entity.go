// Package challenge contains the core domain model for the recurring 21-day
// community challenge: periods, participants, check-ins and certificates.
// This package has no dependencies on persistence or transport.
package challenge

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// PeriodDuration is the fixed length of a challenge period.
const PeriodDuration = 30 * 24 * time.Hour

// ChallengeDays is the nominal length of the challenge used in messaging
// and qualification ("N/21 check-ins").
const ChallengeDays = 21

// QualifyingCheckins is the number of check-ins required to qualify.
const QualifyingCheckins = 7

// Content length bounds for a single check-in, counted in runes because
// production content is predominantly CJK.
const (
	MinCheckinContentLen = 2
	MaxCheckinContentLen = 500
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD
// ══════════════════════════════════════════════════════════════════════════════

// Period is one run of the recurring challenge. At most one period may be in
// a non-ended status at any time; the repository enforces this on create.
type Period struct {
	// ID is the internal identity (UUID).
	ID string

	// Name is the human-readable name, derived from year-month with a letter
	// suffix for same-month reruns: "2025-09", "2025-09a", "2025-09b", ...
	Name string

	// Status is the lifecycle status.
	Status PeriodStatus

	// SignupLink is the external roster source (Bitable link) captured from
	// the announcement card. Required for activation.
	SignupLink string

	// ChatID is the chat channel the period was announced in. Scheduled
	// leaderboards are published there.
	ChatID string

	// StartAt is when the period was opened.
	StartAt time.Time

	// EndAt is StartAt plus the fixed period duration.
	EndAt time.Time

	// LastPublishedDay is the day offset of the most recent scheduled
	// leaderboard publication, 0 if none yet. Guards against double-publish
	// within a milestone window.
	LastPublishedDay int
}

// NewPeriod creates a period in the open-for-signup status.
func NewPeriod(name, signupLink, chatID string, now time.Time) *Period {
	return &Period{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     StatusSignup,
		SignupLink: signupLink,
		ChatID:     chatID,
		StartAt:    now,
		EndAt:      now.Add(PeriodDuration),
	}
}

// Day returns the 1-based challenge day at the given time.
func (p *Period) Day(now time.Time) int {
	return timeutil.DayNumber(p.StartAt, now)
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT
// ══════════════════════════════════════════════════════════════════════════════

// Participant is one sign-up row imported for a period. Nickname is unique
// within the period; check-ins reference participants by nickname.
type Participant struct {
	ID           string
	PeriodID     string
	Nickname     string
	FocusArea    string // project name declared at sign-up
	Introduction string // free-text project description
	Goals        string // free-text goal statement for the period
	RegisteredAt time.Time
}

// NewParticipant creates a participant for the given period.
func NewParticipant(periodID, nickname, focusArea, introduction, goals string, registeredAt time.Time) *Participant {
	return &Participant{
		ID:           uuid.NewString(),
		PeriodID:     periodID,
		Nickname:     strings.TrimSpace(nickname),
		FocusArea:    strings.TrimSpace(focusArea),
		Introduction: strings.TrimSpace(introduction),
		Goals:        strings.TrimSpace(goals),
		RegisteredAt: registeredAt,
	}
}

// GoalBundle combines the project name, introduction and goal statement into
// the composite goal description fed to the feedback generator.
func (p *Participant) GoalBundle() string {
	return fmt.Sprintf("Project: %s\nIntroduction: %s\nGoal: %s", p.FocusArea, p.Introduction, p.Goals)
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN
// ══════════════════════════════════════════════════════════════════════════════

// Checkin is one dated proof-of-work entry. At most one exists per
// (participant, calendar date); Index is the 1-based position in the
// participant's gap-free check-in sequence.
type Checkin struct {
	ID            string
	ParticipantID string
	Nickname      string
	Date          time.Time // date-grained, midnight in the community timezone
	Content       string
	Index         int
	CreatedAt     time.Time
}

// NewCheckin creates a check-in for today. Index must be the participant's
// prior check-in count plus one; the ledger computes it.
func NewCheckin(participant *Participant, content string, index int, now time.Time) *Checkin {
	return &Checkin{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		Nickname:      participant.Nickname,
		Date:          timeutil.DateOf(now),
		Content:       content,
		Index:         index,
		CreatedAt:     now,
	}
}

// ValidateCheckinContent checks the content length bounds.
func ValidateCheckinContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < MinCheckinContentLen {
		return fmt.Errorf("%w: content too short (%d chars, min %d)", ErrContentLength, n, MinCheckinContentLen)
	}
	if n > MaxCheckinContentLen {
		return fmt.Errorf("%w: content too long (%d chars, max %d)", ErrContentLength, n, MaxCheckinContentLen)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE
// ══════════════════════════════════════════════════════════════════════════════

// Certificate is a derived, regenerable projection over a participant's
// check-ins at end of period. At most one exists per (period, nickname);
// regeneration replaces the content.
type Certificate struct {
	ID        string
	PeriodID  string
	Nickname  string
	Content   string
	Checkins  int
	Qualified bool
	UpdatedAt time.Time
}

// NewCertificate creates a certificate record for the given participant.
func NewCertificate(periodID, nickname, content string, checkins int, now time.Time) *Certificate {
	return &Certificate{
		ID:        uuid.NewString(),
		PeriodID:  periodID,
		Nickname:  nickname,
		Content:   content,
		Checkins:  checkins,
		Qualified: checkins >= QualifyingCheckins,
		UpdatedAt: now,
	}
}
