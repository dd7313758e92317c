package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors the tables gormstore migrates, so both backends read the
// same layout.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	starts_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	men_spots          INTEGER NOT NULL DEFAULT 0 CHECK (men_spots >= 0),
	women_spots        INTEGER NOT NULL DEFAULT 0 CHECK (women_spots >= 0),
	men_signup_count   INTEGER NOT NULL DEFAULT 0 CHECK (men_signup_count >= 0),
	women_signup_count INTEGER NOT NULL DEFAULT 0 CHECK (women_signup_count >= 0),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS roster_entries (
	id           BIGSERIAL PRIMARY KEY,
	event_id     TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	gender       TEXT NOT NULL DEFAULT '',
	signed_up_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT idx_roster_event_user UNIQUE (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS waitlist_entries (
	id           BIGSERIAL PRIMARY KEY,
	event_id     TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	gender       TEXT NOT NULL DEFAULT '',
	signed_up_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT idx_waitlist_event_user UNIQUE (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_waitlist_queue
	ON waitlist_entries (event_id, gender, signed_up_at, id);

CREATE TABLE IF NOT EXISTS user_profiles (
	id              TEXT PRIMARY KEY,
	display_name    TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	gender          TEXT NOT NULL DEFAULT '',
	preference      TEXT NOT NULL DEFAULT '',
	dates_remaining INTEGER NOT NULL DEFAULT 0,
	latest_event_id TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS latest_events (
	user_id   TEXT PRIMARY KEY,
	event_id  TEXT NOT NULL,
	title     TEXT NOT NULL DEFAULT '',
	starts_at TIMESTAMPTZ NOT NULL,
	joined_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS questionnaire_answers (
	user_id      TEXT PRIMARY KEY,
	answers      JSONB NOT NULL DEFAULT '{}',
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates every table the store uses. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
