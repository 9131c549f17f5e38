package storage

import "fmt"

// schema is the full table set. CREATE IF NOT EXISTS keeps startup
// idempotent; the alerts table carries the (rule_id, event_id) uniqueness
// that backs detection-run idempotence, and evidence_files carries the
// (incident_id, filename, sha256) uniqueness that makes report export
// idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	received_at TEXT NOT NULL,
	source TEXT NOT NULL,
	host TEXT NOT NULL DEFAULT '',
	user TEXT NOT NULL DEFAULT '',
	raw TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_received_at ON events(received_at);
CREATE INDEX IF NOT EXISTS idx_events_source ON events(source);

CREATE TABLE IF NOT EXISTS rules (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	name TEXT NOT NULL,
	severity TEXT NOT NULL,
	mitre TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL DEFAULT '',
	enabled INTEGER NOT NULL DEFAULT 1,
	match_source TEXT NOT NULL,
	match_field TEXT NOT NULL,
	match_contains TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rules_created_at ON rules(created_at);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	rule_name TEXT NOT NULL,
	severity TEXT NOT NULL,
	event_id TEXT NOT NULL,
	source TEXT NOT NULL,
	host TEXT NOT NULL DEFAULT '',
	user TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL,
	UNIQUE(rule_id, event_id)
);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_event_id ON alerts(event_id);

CREATE TABLE IF NOT EXISTS incidents (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	title TEXT NOT NULL,
	severity TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS incident_alerts (
	incident_id TEXT NOT NULL,
	alert_id TEXT NOT NULL,
	added_at TEXT NOT NULL,
	PRIMARY KEY (incident_id, alert_id)
);
CREATE INDEX IF NOT EXISTS idx_incident_alerts_alert_id ON incident_alerts(alert_id);

CREATE TABLE IF NOT EXISTS incident_actions (
	id TEXT PRIMARY KEY,
	incident_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	actor TEXT NOT NULL DEFAULT '',
	action_type TEXT NOT NULL DEFAULT 'note',
	summary TEXT NOT NULL,
	details TEXT
);
CREATE INDEX IF NOT EXISTS idx_incident_actions_incident_id ON incident_actions(incident_id);

CREATE TABLE IF NOT EXISTS evidence_files (
	id TEXT PRIMARY KEY,
	incident_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	filename TEXT NOT NULL,
	content_type TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	UNIQUE(incident_id, filename, sha256)
);
CREATE INDEX IF NOT EXISTS idx_evidence_files_incident_id ON evidence_files(incident_id);

CREATE TABLE IF NOT EXISTS import_jobs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	filename TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	source TEXT NOT NULL,
	host TEXT NOT NULL DEFAULT '',
	user TEXT NOT NULL DEFAULT '',
	events_ingested INTEGER NOT NULL DEFAULT 0
);
`

// migrate applies the schema.
func (s *SQLite) migrate() error {
	if _, err := s.WriteDB.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
