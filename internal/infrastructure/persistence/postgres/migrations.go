// Package postgres implements the PostgreSQL persistence layer for the
// 21-day challenge ledger.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PERIODS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create periods table
-- Version: 001

CREATE TABLE IF NOT EXISTS periods (
    id UUID PRIMARY KEY,
    name VARCHAR(20) NOT NULL UNIQUE,
    status VARCHAR(20) NOT NULL DEFAULT 'open_for_signup',
    signup_link TEXT NOT NULL DEFAULT '',
    chat_id VARCHAR(100) NOT NULL DEFAULT '',
    start_at TIMESTAMP WITH TIME ZONE NOT NULL,
    end_at TIMESTAMP WITH TIME ZONE NOT NULL,
    last_published_day INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_period_status CHECK (status IN ('open_for_signup', 'active', 'ended')),
    CONSTRAINT valid_published_day CHECK (last_published_day >= 0)
);

CREATE INDEX IF NOT EXISTS idx_periods_status ON periods(status) WHERE status != 'ended';
CREATE INDEX IF NOT EXISTS idx_periods_created_at ON periods(created_at DESC);

-- At most one period may be outside the terminal status at a time.
CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_single_live
    ON periods((status != 'ended')) WHERE status != 'ended';
`

const migration001Down = `
DROP TABLE IF EXISTS periods;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PARTICIPANTS AND CHECKINS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create participants and checkins tables
-- Version: 002

CREATE TABLE IF NOT EXISTS participants (
    id UUID PRIMARY KEY,
    period_id UUID NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
    nickname VARCHAR(100) NOT NULL,
    focus_area TEXT NOT NULL DEFAULT '',
    introduction TEXT NOT NULL DEFAULT '',
    goals TEXT NOT NULL DEFAULT '',
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_participants_period_nickname UNIQUE (period_id, nickname)
);

CREATE INDEX IF NOT EXISTS idx_participants_period ON participants(period_id, registered_at);

CREATE TABLE IF NOT EXISTS checkins (
    id UUID PRIMARY KEY,
    participant_id UUID NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
    nickname VARCHAR(100) NOT NULL,
    checkin_date DATE NOT NULL,
    content TEXT NOT NULL,
    idx INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_checkins_participant_date UNIQUE (participant_id, checkin_date),
    CONSTRAINT uq_checkins_participant_idx UNIQUE (participant_id, idx),
    CONSTRAINT valid_checkin_idx CHECK (idx >= 1)
);

CREATE INDEX IF NOT EXISTS idx_checkins_participant ON checkins(participant_id, checkin_date);
`

const migration002Down = `
DROP TABLE IF EXISTS checkins;
DROP TABLE IF EXISTS participants;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CERTIFICATES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create certificates table
-- Version: 003

CREATE TABLE IF NOT EXISTS certificates (
    id UUID PRIMARY KEY,
    period_id UUID NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
    nickname VARCHAR(100) NOT NULL,
    content TEXT NOT NULL,
    checkins INTEGER NOT NULL DEFAULT 0,
    qualified BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_certificates_period_nickname UNIQUE (period_id, nickname),
    CONSTRAINT valid_certificate_checkins CHECK (checkins >= 0)
);

CREATE INDEX IF NOT EXISTS idx_certificates_period ON certificates(period_id);
`

const migration003Down = `
DROP TABLE IF EXISTS certificates;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_periods",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_participants_checkins",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_certificates",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
