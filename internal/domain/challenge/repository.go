package challenge

import (
	"context"
)

// Repository is the ledger store for periods, participants, check-ins and
// certificates. Implementations must enforce the uniqueness invariants as
// storage-level constraints (nickname per period, one check-in per
// participant per date) and run lifecycle transitions transactionally.
type Repository interface {
	// CreatePeriod persists a new period. Returns ErrConflict if a period
	// in a non-ended status already exists.
	CreatePeriod(ctx context.Context, p *Period) error

	// PeriodByStatus returns the single period in one of the given
	// statuses, or ErrNotFound.
	PeriodByStatus(ctx context.Context, statuses ...PeriodStatus) (*Period, error)

	// PeriodByName returns the period with the given name, or ErrNotFound.
	PeriodByName(ctx context.Context, name string) (*Period, error)

	// LatestPeriod returns the most recently created period, or
	// ErrNotFound if none exists yet.
	LatestPeriod(ctx context.Context) (*Period, error)

	// ActivatePeriod transitions the period from open-for-signup to active
	// and replaces its roster with the given participants, in a single
	// transaction. Any previously imported participants are discarded.
	ActivatePeriod(ctx context.Context, periodID string, roster []*Participant) error

	// EndPeriod transitions the period from active to ended and upserts
	// the given certificates, in a single transaction.
	EndPeriod(ctx context.Context, periodID string, certs []*Certificate) error

	// Participants returns the period's roster ordered by registration
	// time (the leaderboard tie-break order).
	Participants(ctx context.Context, periodID string) ([]*Participant, error)

	// ParticipantByNickname returns the participant with the given
	// nickname in the period, or ErrNotFound.
	ParticipantByNickname(ctx context.Context, periodID, nickname string) (*Participant, error)

	// InsertCheckin persists a check-in. Returns ErrDuplicateCheckin if a
	// record for (participant, date) already exists.
	InsertCheckin(ctx context.Context, c *Checkin) error

	// CheckinCount returns the participant's total check-in count.
	CheckinCount(ctx context.Context, participantID string) (int, error)

	// CheckinsByParticipant returns all check-ins ordered by date ascending.
	CheckinsByParticipant(ctx context.Context, participantID string) ([]*Checkin, error)

	// LatestCheckin returns the chronologically latest check-in, or
	// ErrNotFound if the participant has none.
	LatestCheckin(ctx context.Context, participantID string) (*Checkin, error)

	// CertificateByNickname returns the certificate for (period, nickname),
	// or ErrNotFound.
	CertificateByNickname(ctx context.Context, periodID, nickname string) (*Certificate, error)

	// ClaimPublication atomically records that the scheduled leaderboard
	// for the given day offset is being published. It returns false if the
	// offset was already claimed for this period, so concurrent or
	// repeated triggers within the window publish at most once.
	ClaimPublication(ctx context.Context, periodID string, day int) (bool, error)
}
