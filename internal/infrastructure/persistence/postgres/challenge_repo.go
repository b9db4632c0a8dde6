// Package postgres implements the PostgreSQL persistence layer for the
// 21-day challenge ledger.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeRepository implements challenge.Repository for PostgreSQL.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

var _ challenge.Repository = (*ChallengeRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Periods
// ─────────────────────────────────────────────────────────────────────────────

const periodColumns = `id, name, status, signup_link, chat_id, start_at, end_at, last_published_day`

// CreatePeriod persists a new period. The partial unique index on non-ended
// statuses rejects a second live period.
func (r *ChallengeRepository) CreatePeriod(ctx context.Context, p *challenge.Period) error {
	query := `
		INSERT INTO periods (id, name, status, signup_link, chat_id, start_at, end_at, last_published_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.Name,
		string(p.Status),
		p.SignupLink,
		p.ChatID,
		p.StartAt,
		p.EndAt,
		p.LastPublishedDay,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: a period is already open or active", challenge.ErrConflict)
		}
		return fmt.Errorf("%w: create period: %v", challenge.ErrStorage, err)
	}

	return nil
}

// PeriodByStatus returns the single period in one of the given statuses.
func (r *ChallengeRepository) PeriodByStatus(ctx context.Context, statuses ...challenge.PeriodStatus) (*challenge.Period, error) {
	if len(statuses) == 0 {
		return nil, challenge.ErrNotFound
	}

	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM periods
		WHERE status = ANY($1)
		ORDER BY created_at DESC
		LIMIT 1
	`, periodColumns)

	row := r.conn.QueryRow(ctx, query, raw)
	return r.scanPeriod(row)
}

// PeriodByName returns the period with the given name.
func (r *ChallengeRepository) PeriodByName(ctx context.Context, name string) (*challenge.Period, error) {
	query := fmt.Sprintf(`SELECT %s FROM periods WHERE name = $1`, periodColumns)

	row := r.conn.QueryRow(ctx, query, name)
	return r.scanPeriod(row)
}

// LatestPeriod returns the most recently created period.
func (r *ChallengeRepository) LatestPeriod(ctx context.Context) (*challenge.Period, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM periods
		ORDER BY created_at DESC
		LIMIT 1
	`, periodColumns)

	row := r.conn.QueryRow(ctx, query)
	return r.scanPeriod(row)
}

// ActivatePeriod transitions open_for_signup -> active and replaces the
// roster, in a single transaction. The conditional UPDATE guards against a
// concurrent transition of the same period.
func (r *ChallengeRepository) ActivatePeriod(ctx context.Context, periodID string, roster []*challenge.Participant) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE periods SET status = $1
			WHERE id = $2 AND status = $3
		`, string(challenge.StatusActive), periodID, string(challenge.StatusSignup))
		if err != nil {
			return fmt.Errorf("%w: activate period: %v", challenge.ErrStorage, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: period %s is not open for signup", challenge.ErrConflict, periodID)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE period_id = $1`, periodID); err != nil {
			return fmt.Errorf("%w: clear roster: %v", challenge.ErrStorage, err)
		}

		for _, p := range roster {
			_, err := tx.Exec(ctx, `
				INSERT INTO participants (id, period_id, nickname, focus_area, introduction, goals, registered_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, p.ID, p.PeriodID, p.Nickname, p.FocusArea, p.Introduction, p.Goals, p.RegisteredAt)
			if err != nil {
				if IsUniqueViolation(err) {
					return fmt.Errorf("%w: duplicate nickname %q in roster", challenge.ErrConflict, p.Nickname)
				}
				return fmt.Errorf("%w: insert participant: %v", challenge.ErrStorage, err)
			}
		}

		return nil
	})
}

// EndPeriod transitions active -> ended and upserts certificates, in a
// single transaction.
func (r *ChallengeRepository) EndPeriod(ctx context.Context, periodID string, certs []*challenge.Certificate) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE periods SET status = $1
			WHERE id = $2 AND status = $3
		`, string(challenge.StatusEnded), periodID, string(challenge.StatusActive))
		if err != nil {
			return fmt.Errorf("%w: end period: %v", challenge.ErrStorage, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: period %s is not active", challenge.ErrConflict, periodID)
		}

		for _, c := range certs {
			_, err := tx.Exec(ctx, `
				INSERT INTO certificates (id, period_id, nickname, content, checkins, qualified, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (period_id, nickname) DO UPDATE SET
					content = EXCLUDED.content,
					checkins = EXCLUDED.checkins,
					qualified = EXCLUDED.qualified,
					updated_at = EXCLUDED.updated_at
			`, c.ID, c.PeriodID, c.Nickname, c.Content, c.Checkins, c.Qualified, c.UpdatedAt)
			if err != nil {
				return fmt.Errorf("%w: upsert certificate: %v", challenge.ErrStorage, err)
			}
		}

		return nil
	})
}

// ClaimPublication marks the day offset as published if no equal or later
// offset has been published yet. Returns false when the claim was lost.
func (r *ChallengeRepository) ClaimPublication(ctx context.Context, periodID string, day int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE periods SET last_published_day = $1
		WHERE id = $2 AND last_published_day < $1
	`, day, periodID)
	if err != nil {
		return false, fmt.Errorf("%w: claim publication: %v", challenge.ErrStorage, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ChallengeRepository) scanPeriod(row pgx.Row) (*challenge.Period, error) {
	var p challenge.Period
	var status string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&status,
		&p.SignupLink,
		&p.ChatID,
		&p.StartAt,
		&p.EndAt,
		&p.LastPublishedDay,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan period: %v", challenge.ErrStorage, err)
	}

	p.Status, err = challenge.ParsePeriodStatus(status)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Participants
// ─────────────────────────────────────────────────────────────────────────────

const participantColumns = `id, period_id, nickname, focus_area, introduction, goals, registered_at`

// Participants returns the roster ordered by registration time.
func (r *ChallengeRepository) Participants(ctx context.Context, periodID string) ([]*challenge.Participant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM participants
		WHERE period_id = $1
		ORDER BY registered_at ASC, nickname ASC
	`, participantColumns)

	rows, err := r.conn.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("%w: query participants: %v", challenge.ErrStorage, err)
	}
	defer rows.Close()

	var out []*challenge.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate participants: %v", challenge.ErrStorage, err)
	}
	return out, nil
}

// ParticipantByNickname returns the participant with the given nickname.
func (r *ChallengeRepository) ParticipantByNickname(ctx context.Context, periodID, nickname string) (*challenge.Participant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM participants
		WHERE period_id = $1 AND nickname = $2
	`, participantColumns)

	row := r.conn.QueryRow(ctx, query, periodID, nickname)

	p, err := scanParticipant(row)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanParticipant(row pgx.Row) (*challenge.Participant, error) {
	var p challenge.Participant

	err := row.Scan(
		&p.ID,
		&p.PeriodID,
		&p.Nickname,
		&p.FocusArea,
		&p.Introduction,
		&p.Goals,
		&p.RegisteredAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan participant: %v", challenge.ErrStorage, err)
	}

	return &p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Check-ins
// ─────────────────────────────────────────────────────────────────────────────

const checkinColumns = `id, participant_id, nickname, checkin_date, content, idx, created_at`

// InsertCheckin persists a check-in. The (participant, date) and
// (participant, idx) unique constraints are the authority on daily
// duplicates and racing inserts.
func (r *ChallengeRepository) InsertCheckin(ctx context.Context, c *challenge.Checkin) error {
	query := `
		INSERT INTO checkins (id, participant_id, nickname, checkin_date, content, idx, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID,
		c.ParticipantID,
		c.Nickname,
		c.Date,
		c.Content,
		c.Index,
		c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return challenge.ErrDuplicateCheckin
		}
		return fmt.Errorf("%w: insert checkin: %v", challenge.ErrStorage, err)
	}

	return nil
}

// CheckinCount returns the participant's total check-in count.
func (r *ChallengeRepository) CheckinCount(ctx context.Context, participantID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM checkins WHERE participant_id = $1`,
		participantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count checkins: %v", challenge.ErrStorage, err)
	}

	return count, nil
}

// CheckinsByParticipant returns all check-ins ordered by date ascending.
func (r *ChallengeRepository) CheckinsByParticipant(ctx context.Context, participantID string) ([]*challenge.Checkin, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM checkins
		WHERE participant_id = $1
		ORDER BY checkin_date ASC
	`, checkinColumns)

	rows, err := r.conn.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("%w: query checkins: %v", challenge.ErrStorage, err)
	}
	defer rows.Close()

	var out []*challenge.Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate checkins: %v", challenge.ErrStorage, err)
	}
	return out, nil
}

// LatestCheckin returns the chronologically latest check-in.
func (r *ChallengeRepository) LatestCheckin(ctx context.Context, participantID string) (*challenge.Checkin, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM checkins
		WHERE participant_id = $1
		ORDER BY checkin_date DESC
		LIMIT 1
	`, checkinColumns)

	row := r.conn.QueryRow(ctx, query, participantID)
	return scanCheckin(row)
}

func scanCheckin(row pgx.Row) (*challenge.Checkin, error) {
	var c challenge.Checkin

	err := row.Scan(
		&c.ID,
		&c.ParticipantID,
		&c.Nickname,
		&c.Date,
		&c.Content,
		&c.Index,
		&c.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan checkin: %v", challenge.ErrStorage, err)
	}

	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Certificates
// ─────────────────────────────────────────────────────────────────────────────

// CertificateByNickname returns the certificate for (period, nickname).
func (r *ChallengeRepository) CertificateByNickname(ctx context.Context, periodID, nickname string) (*challenge.Certificate, error) {
	query := `
		SELECT id, period_id, nickname, content, checkins, qualified, updated_at
		FROM certificates
		WHERE period_id = $1 AND nickname = $2
	`

	var c challenge.Certificate
	err := r.conn.QueryRow(ctx, query, periodID, nickname).Scan(
		&c.ID,
		&c.PeriodID,
		&c.Nickname,
		&c.Content,
		&c.Checkins,
		&c.Qualified,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan certificate: %v", challenge.ErrStorage, err)
	}

	return &c, nil
}
