package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adcounsel/adcounsel/internal/ads"
)

// Store wraps the sqlite database behind the engine's read/write surface.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	// Best-effort migrations for existing dbs (no-op when columns exist).
	_, _ = db.Exec(`ALTER TABLE proposals ADD COLUMN data_snapshot TEXT DEFAULT '{}'`)
	_, _ = db.Exec(`ALTER TABLE session_audits ADD COLUMN narrative TEXT`)
	_, _ = db.Exec(`ALTER TABLE campaign_snapshots ADD COLUMN status TEXT NOT NULL DEFAULT 'ENABLED'`)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Campaign and ad snapshots
// ---------------------------------------------------------------------------

// UpsertCampaignSnapshot inserts or replaces a campaign's current-window row.
func (s *Store) UpsertCampaignSnapshot(c ads.CampaignSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO campaign_snapshots
			(campaign_id, account_id, name, status, brand, daily_budget, budget_utilization,
			 cost, clicks, impressions, conversions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			status = excluded.status,
			brand = excluded.brand,
			daily_budget = excluded.daily_budget,
			budget_utilization = excluded.budget_utilization,
			cost = excluded.cost,
			clicks = excluded.clicks,
			impressions = excluded.impressions,
			conversions = excluded.conversions,
			updated_at = excluded.updated_at`,
		c.ID, c.AccountID, c.Name, c.Status, c.Brand, c.DailyBudget, c.BudgetUtilization,
		c.Cost, c.Clicks, c.Impressions, c.Conversions, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert campaign snapshot: %w", err)
	}
	return nil
}

// GetCampaign returns one campaign snapshot, or nil when unknown.
func (s *Store) GetCampaign(campaignID string) (*ads.CampaignSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT campaign_id, account_id, name, status, brand, daily_budget,
		       budget_utilization, cost, clicks, impressions, conversions
		FROM campaign_snapshots WHERE campaign_id = ?`, campaignID)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", campaignID, err)
	}
	return c, nil
}

// GetCampaignSnapshots returns all campaign rows for an account.
func (s *Store) GetCampaignSnapshots(accountID string) ([]ads.CampaignSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT campaign_id, account_id, name, status, brand, daily_budget,
		       budget_utilization, cost, clicks, impressions, conversions
		FROM campaign_snapshots WHERE account_id = ? ORDER BY name`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list campaign snapshots: %w", err)
	}
	defer rows.Close()

	var out []ads.CampaignSnapshot
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(r rowScanner) (*ads.CampaignSnapshot, error) {
	var c ads.CampaignSnapshot
	err := r.Scan(&c.ID, &c.AccountID, &c.Name, &c.Status, &c.Brand, &c.DailyBudget,
		&c.BudgetUtilization, &c.Cost, &c.Clicks, &c.Impressions, &c.Conversions)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertAdSnapshot inserts or replaces an ad's current-window row.
func (s *Store) UpsertAdSnapshot(accountID string, a ads.AdSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO ad_snapshots
			(ad_id, ad_group_id, campaign_id, account_id, status, headline,
			 cost, clicks, impressions, conversions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ad_id) DO UPDATE SET
			ad_group_id = excluded.ad_group_id,
			campaign_id = excluded.campaign_id,
			account_id = excluded.account_id,
			status = excluded.status,
			headline = excluded.headline,
			cost = excluded.cost,
			clicks = excluded.clicks,
			impressions = excluded.impressions,
			conversions = excluded.conversions,
			updated_at = excluded.updated_at`,
		a.ID, a.AdGroupID, a.CampaignID, accountID, a.Status, a.Headline,
		a.Cost, a.Clicks, a.Impressions, a.Conversions, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert ad snapshot: %w", err)
	}
	return nil
}

// GetAdSnapshots returns all ad rows for an account.
func (s *Store) GetAdSnapshots(accountID string) ([]ads.AdSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT ad_id, ad_group_id, campaign_id, status, COALESCE(headline, ''),
		       cost, clicks, impressions, conversions
		FROM ad_snapshots WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list ad snapshots: %w", err)
	}
	defer rows.Close()

	var out []ads.AdSnapshot
	for rows.Next() {
		var a ads.AdSnapshot
		if err := rows.Scan(&a.ID, &a.AdGroupID, &a.CampaignID, &a.Status, &a.Headline,
			&a.Cost, &a.Clicks, &a.Impressions, &a.Conversions); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Daily metric series
// ---------------------------------------------------------------------------

// InsertDailyMetric records one day of performance for a campaign or keyword.
// Re-inserting the same day replaces the row (late-arriving platform data).
func (s *Store) InsertDailyMetric(entityType, entityID string, m ads.DailyMetric) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_metrics (entity_type, entity_id, day, cost, clicks, impressions, conversions)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id, day) DO UPDATE SET
			cost = excluded.cost,
			clicks = excluded.clicks,
			impressions = excluded.impressions,
			conversions = excluded.conversions`,
		entityType, entityID, m.Day.UTC().Format("2006-01-02"),
		m.Cost, m.Clicks, m.Impressions, m.Conversions)
	if err != nil {
		return fmt.Errorf("insert daily metric: %w", err)
	}
	return nil
}

// GetDailyMetrics returns the daily series for an entity over the trailing
// number of days, oldest first.
func (s *Store) GetDailyMetrics(entityType, entityID string, days int) ([]ads.DailyMetric, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := s.db.Query(`
		SELECT day, cost, clicks, impressions, conversions
		FROM daily_metrics
		WHERE entity_type = ? AND entity_id = ? AND day >= ?
		ORDER BY day ASC`, entityType, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("query daily metrics: %w", err)
	}
	defer rows.Close()

	var out []ads.DailyMetric
	for rows.Next() {
		var m ads.DailyMetric
		var day string
		if err := rows.Scan(&day, &m.Cost, &m.Clicks, &m.Impressions, &m.Conversions); err != nil {
			return nil, err
		}
		if t, parseErr := time.Parse("2006-01-02", day); parseErr == nil {
			m.Day = t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetDailyMetricsRange returns the series for an entity between two days
// inclusive, oldest first. Used for before/after action windows.
func (s *Store) GetDailyMetricsRange(entityType, entityID string, from, to time.Time) ([]ads.DailyMetric, error) {
	rows, err := s.db.Query(`
		SELECT day, cost, clicks, impressions, conversions
		FROM daily_metrics
		WHERE entity_type = ? AND entity_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`, entityType, entityID,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query daily metric range: %w", err)
	}
	defer rows.Close()

	var out []ads.DailyMetric
	for rows.Next() {
		var m ads.DailyMetric
		var day string
		if err := rows.Scan(&day, &m.Cost, &m.Clicks, &m.Impressions, &m.Conversions); err != nil {
			return nil, err
		}
		if t, parseErr := time.Parse("2006-01-02", day); parseErr == nil {
			m.Day = t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Executed action history
// ---------------------------------------------------------------------------

// InsertExecutedAction records an approved-and-applied account change.
func (s *Store) InsertExecutedAction(a ads.ExecutedAction) error {
	_, err := s.db.Exec(`
		INSERT INTO executed_actions (action_id, account_id, action_type, campaign_id, keyword_text, amount, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AccountID, string(a.Type), a.CampaignID, a.KeywordText, a.Amount, a.ExecutedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert executed action: %w", err)
	}
	return nil
}

// GetActionsForCampaign returns executed actions on a campaign since a time,
// oldest first.
func (s *Store) GetActionsForCampaign(campaignID string, since time.Time) ([]ads.ExecutedAction, error) {
	return s.queryActions(`campaign_id = ?`, campaignID, since)
}

// GetActionsForKeyword returns executed actions on a keyword since a time,
// oldest first.
func (s *Store) GetActionsForKeyword(keywordText string, since time.Time) ([]ads.ExecutedAction, error) {
	return s.queryActions(`keyword_text = ?`, keywordText, since)
}

func (s *Store) queryActions(where string, id string, since time.Time) ([]ads.ExecutedAction, error) {
	rows, err := s.db.Query(`
		SELECT action_id, account_id, action_type, COALESCE(campaign_id, ''),
		       COALESCE(keyword_text, ''), amount, executed_at
		FROM executed_actions
		WHERE `+where+` AND executed_at >= ?
		ORDER BY executed_at ASC`, id, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query executed actions: %w", err)
	}
	defer rows.Close()

	var out []ads.ExecutedAction
	for rows.Next() {
		var a ads.ExecutedAction
		var typ string
		if err := rows.Scan(&a.ID, &a.AccountID, &typ, &a.CampaignID, &a.KeywordText, &a.Amount, &a.ExecutedAt); err != nil {
			return nil, err
		}
		a.Type = ads.ActionType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CumulativeBudgetRemoved sums budget taken away from a campaign via
// executed budget adjustments since a time. Only negative amounts count;
// the result is the positive total removed.
func (s *Store) CumulativeBudgetRemoved(campaignID string, since time.Time) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT SUM(-amount) FROM executed_actions
		WHERE campaign_id = ? AND action_type = ? AND amount < 0 AND executed_at >= ?`,
		campaignID, string(ads.ActionAdjustBudget), since.UTC()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum removed budget: %w", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Float64, nil
}

// HasCreativeActionSince reports whether new ad creative was executed
// against the campaign since a time.
func (s *Store) HasCreativeActionSince(campaignID string, since time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM executed_actions
		WHERE campaign_id = ? AND action_type IN (?, ?) AND executed_at >= ?`,
		campaignID, string(ads.ActionCreateAd), string(ads.ActionUpdateAdCreative), since.UTC()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count creative actions: %w", err)
	}
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Decision queue
// ---------------------------------------------------------------------------

// InsertProposal queues one proposal for human review.
func (s *Store) InsertProposal(r *ProposalRecord) error {
	if r.Status == "" {
		r.Status = ProposalPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO proposals
			(proposal_id, session_id, account_id, action_type, action_summary,
			 action_detail, reason, risk_level, priority, data_snapshot, status,
			 iterations, tools_used, tool_call_log, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProposalID, r.SessionID, r.AccountID, r.ActionType, r.ActionSummary,
		r.ActionDetail, r.Reason, r.RiskLevel, r.Priority, r.DataSnapshot, r.Status,
		r.Iterations, r.ToolsUsed, r.ToolCallLog, r.ExpiresAt.UTC(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// ListPendingProposals returns unexpired pending proposals for an account,
// highest priority first.
func (s *Store) ListPendingProposals(accountID string) ([]ProposalRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, proposal_id, session_id, account_id, action_type, action_summary,
		       action_detail, reason, risk_level, priority, COALESCE(data_snapshot, '{}'),
		       status, iterations, tools_used, tool_call_log, expires_at, created_at
		FROM proposals
		WHERE account_id = ? AND status = ? AND expires_at > ?
		ORDER BY priority DESC, created_at ASC`,
		accountID, ProposalPending, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list pending proposals: %w", err)
	}
	defer rows.Close()

	var out []ProposalRecord
	for rows.Next() {
		var r ProposalRecord
		if err := rows.Scan(&r.ID, &r.ProposalID, &r.SessionID, &r.AccountID, &r.ActionType,
			&r.ActionSummary, &r.ActionDetail, &r.Reason, &r.RiskLevel, &r.Priority,
			&r.DataSnapshot, &r.Status, &r.Iterations, &r.ToolsUsed, &r.ToolCallLog,
			&r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateProposalStatus moves a proposal through the review lifecycle.
func (s *Store) UpdateProposalStatus(proposalID, status string) error {
	res, err := s.db.Exec(`UPDATE proposals SET status = ? WHERE proposal_id = ?`, status, proposalID)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no proposal with id %s", proposalID)
	}
	return nil
}

// ExpireStaleProposals marks pending proposals past their expiry. Returns the
// number expired.
func (s *Store) ExpireStaleProposals() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE proposals SET status = ? WHERE status = ? AND expires_at <= ?`,
		ProposalExpired, ProposalPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire proposals: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ---------------------------------------------------------------------------
// Session audits
// ---------------------------------------------------------------------------

// InsertSessionAudit records the audit trail for one finished session.
func (s *Store) InsertSessionAudit(a *SessionAudit) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO session_audits
			(session_id, account_id, outcome, reason, narrative, investigation_summary,
			 tool_call_log, iterations, forced, proposal_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.AccountID, a.Outcome, a.Reason, a.Narrative, a.InvestigationSummary,
		a.ToolCallLog, a.Iterations, a.Forced, a.ProposalCount, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session audit: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// GetSessionAudit returns the audit for one session, or nil when unknown.
func (s *Store) GetSessionAudit(sessionID string) (*SessionAudit, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, account_id, outcome, COALESCE(reason, ''),
		       COALESCE(narrative, ''), COALESCE(investigation_summary, ''),
		       tool_call_log, iterations, forced, proposal_count, created_at
		FROM session_audits WHERE session_id = ?`, sessionID)
	var a SessionAudit
	err := row.Scan(&a.ID, &a.SessionID, &a.AccountID, &a.Outcome, &a.Reason,
		&a.Narrative, &a.InvestigationSummary, &a.ToolCallLog, &a.Iterations,
		&a.Forced, &a.ProposalCount, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session audit: %w", err)
	}
	return &a, nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns a settings value, or empty string when unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a settings value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
