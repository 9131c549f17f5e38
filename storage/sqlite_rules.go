package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteRuleStorage handles rule persistence in SQLite.
type SQLiteRuleStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteRuleStorage creates a new rule storage handler.
func NewSQLiteRuleStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteRuleStorage {
	return &SQLiteRuleStorage{sqlite: sqlite, logger: logger}
}

// CreateRule stores a new rule.
func (s *SQLiteRuleStorage) CreateRule(ctx context.Context, rule *core.Rule) error {
	mitreJSON, err := json.Marshal(rule.Mitre)
	if err != nil {
		return fmt.Errorf("failed to serialize mitre tags: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO rules (id, created_at, name, severity, mitre, description, enabled,
		                   match_source, match_field, match_contains)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, formatTime(rule.CreatedAt), rule.Name, string(rule.Severity),
		string(mitreJSON), rule.Description, rule.Enabled,
		rule.MatchSource, rule.MatchField, rule.MatchContains)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// GetRules retrieves all rules in creation order.
func (s *SQLiteRuleStorage) GetRules(ctx context.Context) ([]core.Rule, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, created_at, name, severity, mitre, description, enabled,
		       match_source, match_field, match_contains
		FROM rules
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	return s.scanRules(rows)
}

// GetEnabledRules retrieves the enabled rules in creation order, the order
// the detection runner processes them in.
func (s *SQLiteRuleStorage) GetEnabledRules(ctx context.Context) ([]core.Rule, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, created_at, name, severity, mitre, description, enabled,
		       match_source, match_field, match_contains
		FROM rules
		WHERE enabled = 1
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled rules: %w", err)
	}
	defer rows.Close()

	return s.scanRules(rows)
}

// GetRule retrieves a single rule by ID.
func (s *SQLiteRuleStorage) GetRule(ctx context.Context, id string) (*core.Rule, error) {
	row := s.sqlite.ReadDB.QueryRowContext(ctx, `
		SELECT id, created_at, name, severity, mitre, description, enabled,
		       match_source, match_field, match_contains
		FROM rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule. Alerts created from the rule keep their
// denormalized rule name and severity.
func (s *SQLiteRuleStorage) DeleteRule(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func scanRule(row rowScanner) (*core.Rule, error) {
	var rule core.Rule
	var createdAt, severity, mitreJSON string

	if err := row.Scan(&rule.ID, &createdAt, &rule.Name, &severity, &mitreJSON,
		&rule.Description, &rule.Enabled, &rule.MatchSource, &rule.MatchField, &rule.MatchContains); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule.Severity = core.Severity(severity)

	var err error
	rule.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	if err := json.Unmarshal([]byte(mitreJSON), &rule.Mitre); err != nil {
		return nil, fmt.Errorf("failed to parse mitre tags for rule %s: %w", rule.ID, err)
	}

	return &rule, nil
}

func (s *SQLiteRuleStorage) scanRules(rows *sql.Rows) ([]core.Rule, error) {
	var rules []core.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}
