package rulecatalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// ErrRuleNotFound indicates the requested rule id does not exist.
var ErrRuleNotFound = errors.New("sla rule not found")

// PgStore is the PostgreSQL-backed Store. Duration columns are Postgres
// INTERVALs round-tripped through pgtype.Interval; role, channel and
// sentiment lists are TEXT[].
type PgStore struct {
	DB *database.Database
}

func NewPgStore(db *database.Database) *PgStore { return &PgStore{DB: db} }

const ruleColumns = `id, tenant_id, category, priority, sort_order, active,
	first_response, resolution, tier1_after, tier2_after, tier3_after,
	tier1_roles, tier2_roles, tier3_roles, channels, min_severity, sentiments`

func (s *PgStore) UpsertRule(ctx context.Context, r *SlaRule) error {
	const q = `
	INSERT INTO sla_rules(` + ruleColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (tenant_id, category, priority) DO UPDATE SET
		sort_order     = EXCLUDED.sort_order,
		active         = EXCLUDED.active,
		first_response = EXCLUDED.first_response,
		resolution     = EXCLUDED.resolution,
		tier1_after    = EXCLUDED.tier1_after,
		tier2_after    = EXCLUDED.tier2_after,
		tier3_after    = EXCLUDED.tier3_after,
		tier1_roles    = EXCLUDED.tier1_roles,
		tier2_roles    = EXCLUDED.tier2_roles,
		tier3_roles    = EXCLUDED.tier3_roles,
		channels       = EXCLUDED.channels,
		min_severity   = EXCLUDED.min_severity,
		sentiments     = EXCLUDED.sentiments,
		updated_at     = now()
	`
	_, err := s.DB.ExecContext(ctx, q,
		r.ID, r.TenantID, r.Category, r.Priority, r.SortOrder, r.Active,
		durationToPgInterval(r.FirstResponse), durationToPgInterval(r.Resolution),
		durationToPgInterval(r.TierThresholds[0]),
		durationToPgInterval(r.TierThresholds[1]),
		durationToPgInterval(r.TierThresholds[2]),
		pq.Array(roleNamesOf(r.TierRecipients[0])),
		pq.Array(roleNamesOf(r.TierRecipients[1])),
		pq.Array(roleNamesOf(r.TierRecipients[2])),
		pq.Array(channelNamesOf(r.Channels)),
		r.MinSeverity, pq.Array(sentimentNamesOf(r.Sentiments)),
	)
	if err != nil {
		return fmt.Errorf("upsert sla rule: %w", err)
	}
	return nil
}

func (s *PgStore) GetRule(ctx context.Context, id string) (*SlaRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM sla_rules WHERE id = $1`
	rows, err := s.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get sla rule: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return scanRule(rows)
	}
	return nil, ErrRuleNotFound
}

func (s *PgStore) ListRules(ctx context.Context, tenantID string) ([]*SlaRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM sla_rules
	WHERE tenant_id = $1
	ORDER BY category ASC, priority DESC, sort_order ASC`
	return s.queryRules(ctx, q, tenantID)
}

func (s *PgStore) LoadActive(ctx context.Context) ([]*SlaRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM sla_rules
	WHERE active
	ORDER BY tenant_id ASC, category ASC, priority DESC, sort_order ASC`
	return s.queryRules(ctx, q)
}

func (s *PgStore) DeactivateRule(ctx context.Context, id string) error {
	const q = `UPDATE sla_rules SET active = FALSE, updated_at = now() WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deactivate sla rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (s *PgStore) queryRules(ctx context.Context, q string, args ...any) ([]*SlaRule, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sla rules: %w", err)
	}
	defer rows.Close()
	var res []*SlaRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func scanRule(rows *sql.Rows) (*SlaRule, error) {
	var r SlaRule
	var firstResp, resolution, t1, t2, t3 pgtype.Interval
	var roles1, roles2, roles3, channels, sentiments []string
	if err := rows.Scan(
		&r.ID, &r.TenantID, &r.Category, &r.Priority, &r.SortOrder, &r.Active,
		&firstResp, &resolution, &t1, &t2, &t3,
		pq.Array(&roles1), pq.Array(&roles2), pq.Array(&roles3),
		pq.Array(&channels), &r.MinSeverity, pq.Array(&sentiments),
	); err != nil {
		return nil, fmt.Errorf("scan sla rule: %w", err)
	}
	r.FirstResponse = pgIntervalToDuration(firstResp)
	r.Resolution = pgIntervalToDuration(resolution)
	r.TierThresholds = [3]time.Duration{
		pgIntervalToDuration(t1), pgIntervalToDuration(t2), pgIntervalToDuration(t3),
	}
	r.TierRecipients = [3][]model.RecipientRole{
		parseRoles(r.ID, roles1), parseRoles(r.ID, roles2), parseRoles(r.ID, roles3),
	}
	r.Channels = parseChannels(r.ID, channels)
	for _, s := range sentiments {
		r.Sentiments = append(r.Sentiments, model.Sentiment(s))
	}
	return &r, nil
}

func parseRoles(ruleID string, names []string) []model.RecipientRole {
	out := make([]model.RecipientRole, 0, len(names))
	for _, n := range names {
		role, ok := model.ParseRole(n)
		if !ok {
			log.Warn().Str("rule", ruleID).Str("role", n).Msg("unknown recipient role in stored rule, skipping")
			continue
		}
		out = append(out, role)
	}
	return out
}

func parseChannels(ruleID string, names []string) []model.Channel {
	out := make([]model.Channel, 0, len(names))
	for _, n := range names {
		ch, ok := model.ParseChannel(n)
		if !ok {
			log.Warn().Str("rule", ruleID).Str("channel", n).Msg("unknown channel in stored rule, skipping")
			continue
		}
		out = append(out, ch)
	}
	return out
}

func roleNamesOf(roles []model.RecipientRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.String())
	}
	return out
}

func channelNamesOf(channels []model.Channel) []string {
	out := make([]string, 0, len(channels))
	for _, c := range channels {
		out = append(out, string(c))
	}
	return out
}

func sentimentNamesOf(sentiments []model.Sentiment) []string {
	out := make([]string, 0, len(sentiments))
	for _, s := range sentiments {
		out = append(out, string(s))
	}
	return out
}

// durationToPgInterval converts a Go duration to a Postgres interval, storing
// whole days separately from the sub-day microsecond remainder.
func durationToPgInterval(d time.Duration) pgtype.Interval {
	days := d / (24 * time.Hour)
	rem := d - days*24*time.Hour
	return pgtype.Interval{
		Microseconds: rem.Microseconds(),
		Days:         int32(days),
		Valid:        true,
	}
}

func pgIntervalToDuration(iv pgtype.Interval) time.Duration {
	d := time.Duration(iv.Microseconds) * time.Microsecond
	d += time.Duration(iv.Days) * 24 * time.Hour
	d += time.Duration(iv.Months) * 30 * 24 * time.Hour
	return d
}
