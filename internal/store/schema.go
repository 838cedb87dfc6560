// Package store provides sqlite persistence for the advisory engine: the
// account metrics warehouse the investigation tools read from, the executed
// action history, and the decision queue that holds proposals awaiting
// human review.
package store

import (
	"time"
)

// Proposal review states.
const (
	ProposalPending  = "pending"
	ProposalApproved = "approved"
	ProposalRejected = "rejected"
	ProposalExpired  = "expired"
)

// Session outcomes recorded in the audit table.
const (
	OutcomeSubmit = "submit"
	OutcomeSkip   = "skip"
)

// Daily metric entity kinds.
const (
	EntityCampaign = "campaign"
	EntityKeyword  = "keyword"
)

// ProposalRecord is one queued proposal plus its session metadata.
type ProposalRecord struct {
	ID            int64     `json:"id"`
	ProposalID    string    `json:"proposal_id"`
	SessionID     string    `json:"session_id"`
	AccountID     string    `json:"account_id"`
	ActionType    string    `json:"action_type"`
	ActionSummary string    `json:"action_summary"`
	ActionDetail  string    `json:"action_detail"` // JSON
	Reason        string    `json:"reason"`
	RiskLevel     string    `json:"risk_level"`
	Priority      int       `json:"priority"`
	DataSnapshot  string    `json:"data_snapshot,omitempty"` // JSON
	Status        string    `json:"status"`
	Iterations    int       `json:"iterations"`
	ToolsUsed     string    `json:"tools_used"`    // JSON array, deduplicated
	ToolCallLog   string    `json:"tool_call_log"` // JSON array of records
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionAudit is the per-session audit trail. Every session writes exactly
// one, regardless of outcome, so a reviewer can always see why zero or N
// proposals were produced.
type SessionAudit struct {
	ID                   int64     `json:"id"`
	SessionID            string    `json:"session_id"`
	AccountID            string    `json:"account_id"`
	Outcome              string    `json:"outcome"` // submit or skip
	Reason               string    `json:"reason,omitempty"`
	Narrative            string    `json:"narrative,omitempty"`
	InvestigationSummary string    `json:"investigation_summary"`
	ToolCallLog          string    `json:"tool_call_log"` // JSON array of records
	Iterations           int       `json:"iterations"`
	Forced               bool      `json:"forced"`
	ProposalCount        int       `json:"proposal_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// Schema is applied on open. Changes to existing tables go through the
// best-effort migrations in New, not here.
const Schema = `
CREATE TABLE IF NOT EXISTS campaign_snapshots (
	campaign_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'ENABLED',
	brand BOOLEAN NOT NULL DEFAULT 0,
	daily_budget REAL NOT NULL DEFAULT 0,
	budget_utilization REAL NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	conversions REAL NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_campaign_snapshots_account ON campaign_snapshots(account_id);

CREATE TABLE IF NOT EXISTS ad_snapshots (
	ad_id TEXT PRIMARY KEY,
	ad_group_id TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'ENABLED',
	headline TEXT,
	cost REAL NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	conversions REAL NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_ad_snapshots_group ON ad_snapshots(ad_group_id);
CREATE INDEX IF NOT EXISTS idx_ad_snapshots_account ON ad_snapshots(account_id);

CREATE TABLE IF NOT EXISTS daily_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	day DATE NOT NULL,
	cost REAL NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	conversions REAL NOT NULL DEFAULT 0,
	UNIQUE(entity_type, entity_id, day)
);
CREATE INDEX IF NOT EXISTS idx_daily_metrics_entity ON daily_metrics(entity_type, entity_id, day);

CREATE TABLE IF NOT EXISTS executed_actions (
	action_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	campaign_id TEXT,
	keyword_text TEXT,
	amount REAL NOT NULL DEFAULT 0,
	executed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executed_actions_campaign ON executed_actions(campaign_id, executed_at);
CREATE INDEX IF NOT EXISTS idx_executed_actions_keyword ON executed_actions(keyword_text, executed_at);

CREATE TABLE IF NOT EXISTS proposals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id TEXT UNIQUE NOT NULL,
	session_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	action_summary TEXT NOT NULL,
	action_detail TEXT NOT NULL DEFAULT '{}',
	reason TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	priority INTEGER NOT NULL,
	data_snapshot TEXT DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'pending',
	iterations INTEGER NOT NULL DEFAULT 0,
	tools_used TEXT NOT NULL DEFAULT '[]',
	tool_call_log TEXT NOT NULL DEFAULT '[]',
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_proposals_account ON proposals(account_id, status);
CREATE INDEX IF NOT EXISTS idx_proposals_session ON proposals(session_id);

CREATE TABLE IF NOT EXISTS session_audits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT UNIQUE NOT NULL,
	account_id TEXT NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT,
	narrative TEXT,
	investigation_summary TEXT,
	tool_call_log TEXT NOT NULL DEFAULT '[]',
	iterations INTEGER NOT NULL DEFAULT 0,
	forced BOOLEAN NOT NULL DEFAULT 0,
	proposal_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_session_audits_account ON session_audits(account_id, created_at);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
