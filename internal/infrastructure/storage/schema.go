package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id            BIGSERIAL PRIMARY KEY,
		external_id   TEXT NOT NULL UNIQUE,
		source        TEXT NOT NULL,
		title         TEXT NOT NULL,
		price         INTEGER NOT NULL CHECK (price > 0),
		rooms         NUMERIC(4,1),
		area          INTEGER,
		address       TEXT NOT NULL,
		postal_code   TEXT,
		city          TEXT,
		listing_url   TEXT NOT NULL,
		latitude      DOUBLE PRECISION,
		longitude     DOUBLE PRECISION,
		is_new        BOOLEAN NOT NULL DEFAULT false,
		is_renovated  BOOLEAN NOT NULL DEFAULT false,
		is_hlm        BOOLEAN,
		near_bus      BOOLEAN NOT NULL DEFAULT false,
		near_train    BOOLEAN NOT NULL DEFAULT false,
		is_active     BOOLEAN NOT NULL DEFAULT true,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS listings_is_active_idx ON listings (is_active)`,
	`CREATE INDEX IF NOT EXISTS listings_last_seen_at_idx ON listings (last_seen_at)`,
	`CREATE INDEX IF NOT EXISTS listings_price_idx ON listings (price)`,
	`CREATE TABLE IF NOT EXISTS saved_searches (
		id               BIGSERIAL PRIMARY KEY,
		user_id          TEXT NOT NULL,
		name             TEXT NOT NULL,
		location         TEXT NOT NULL DEFAULT '',
		location_lat     DOUBLE PRECISION,
		location_lng     DOUBLE PRECISION,
		radius_km        DOUBLE PRECISION,
		max_price        INTEGER,
		charges_included BOOLEAN NOT NULL DEFAULT false,
		min_rooms        NUMERIC(4,1),
		min_area         INTEGER,
		near_bus         BOOLEAN NOT NULL DEFAULT false,
		near_train       BOOLEAN NOT NULL DEFAULT false,
		condition        TEXT NOT NULL DEFAULT 'any',
		priority_hlm     BOOLEAN NOT NULL DEFAULT false,
		is_active        BOOLEAN NOT NULL DEFAULT true,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS saved_searches_user_idx ON saved_searches (user_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS alert_settings (
		id           BIGSERIAL PRIMARY KEY,
		user_id      TEXT NOT NULL UNIQUE,
		email        TEXT NOT NULL,
		frequency    TEXT NOT NULL CHECK (frequency IN ('daily', 'weekly')),
		is_active    BOOLEAN NOT NULL DEFAULT true,
		last_sent_at TIMESTAMPTZ
	)`,
}

// Migrate creates the tables the service reads and writes when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", classify(err))
		}
	}
	return nil
}
