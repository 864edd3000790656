package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the escalation schema when missing. The partial
// unique index on escalations is the dedup guarantee: at most one unresolved
// row per (feedback_id, tier), enforced by the database so concurrent sweep
// workers cannot race a check-then-create into duplicates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sla_rules (
		id             TEXT PRIMARY KEY,
		tenant_id      TEXT NOT NULL,
		category       TEXT NOT NULL,
		priority       INT NOT NULL DEFAULT 0,
		sort_order     INT NOT NULL DEFAULT 0,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		first_response INTERVAL NOT NULL DEFAULT '0',
		resolution     INTERVAL NOT NULL DEFAULT '0',
		tier1_after    INTERVAL NOT NULL,
		tier2_after    INTERVAL NOT NULL,
		tier3_after    INTERVAL NOT NULL,
		tier1_roles    TEXT[] NOT NULL DEFAULT '{}',
		tier2_roles    TEXT[] NOT NULL DEFAULT '{}',
		tier3_roles    TEXT[] NOT NULL DEFAULT '{}',
		channels       TEXT[] NOT NULL DEFAULT '{}',
		min_severity   INT NOT NULL DEFAULT 0,
		sentiments     TEXT[] NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (tenant_id, category, priority)
	)`,
	`CREATE TABLE IF NOT EXISTS escalations (
		id                TEXT PRIMARY KEY,
		feedback_id       TEXT NOT NULL,
		tenant_id         TEXT NOT NULL,
		tier              INT NOT NULL CHECK (tier BETWEEN 1 AND 3),
		reason            TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		notified_at       TIMESTAMPTZ,
		notified_channels TEXT[] NOT NULL DEFAULT '{}',
		notified_user_ids TEXT[] NOT NULL DEFAULT '{}',
		resolved_at       TIMESTAMPTZ,
		resolution_notes  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS escalations_open_feedback_tier
		ON escalations (feedback_id, tier) WHERE resolved_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS escalations_tenant_created
		ON escalations (tenant_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS in_app_notifications (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		tenant_id     TEXT NOT NULL,
		escalation_id TEXT NOT NULL,
		title         TEXT NOT NULL,
		body          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		read_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS in_app_notifications_user
		ON in_app_notifications (user_id, created_at DESC)`,
}

// EnsureSchema applies the escalation DDL. Idempotent; safe on every start.
func (d *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
