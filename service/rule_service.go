// Package service holds the business logic layer between the HTTP handlers
// and storage: input validation, incident lifecycle rules, and packet
// orchestration. Storage dependencies are consumer-defined interfaces so
// tests can swap in fakes.
package service

import (
	"context"
	"fmt"

	"workbench/core"
	"workbench/ingest"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RuleStorage defines the rule storage operations the service needs.
type RuleStorage interface {
	CreateRule(ctx context.Context, rule *core.Rule) error
	GetRules(ctx context.Context) ([]core.Rule, error)
	GetRule(ctx context.Context, id string) (*core.Rule, error)
	DeleteRule(ctx context.Context, id string) error
}

// RuleService validates and persists detection rules. Validation runs
// before any storage call so a malformed rule is never partially applied.
type RuleService struct {
	storage  RuleStorage
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewRuleService creates a rule service.
func NewRuleService(storage RuleStorage, logger *zap.SugaredLogger) *RuleService {
	return &RuleService{
		storage:  storage,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateRuleInput is the inbound shape for rule creation.
type CreateRuleInput struct {
	Name          string        `json:"name" validate:"required,min=1,max=200"`
	Severity      core.Severity `json:"severity" validate:"required"`
	Mitre         []string      `json:"mitre"`
	Description   string        `json:"description" validate:"max=2000"`
	MatchSource   string        `json:"match_source" validate:"required"`
	MatchField    string        `json:"match_field" validate:"required"`
	MatchContains string        `json:"match_contains" validate:"required"`
}

// CreateRule validates the input and stores a new enabled rule. Note that
// match_contains is required: an empty value would make the rule match
// every event carrying the field, which is never what a rule author means.
func (s *RuleService) CreateRule(ctx context.Context, input CreateRuleInput) (*core.Rule, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidf("invalid rule: %v", err)
	}

	rule := core.NewRule(input.Name, input.Severity, input.MatchSource, input.MatchField, input.MatchContains)
	rule.Mitre = input.Mitre
	rule.Description = input.Description

	if err := rule.Validate(); err != nil {
		return nil, invalidf("invalid rule: %v", err)
	}

	if err := s.storage.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Infow("Rule created", "rule_id", rule.ID, "name", rule.Name, "severity", rule.Severity)
	return rule, nil
}

// SeedFromFile loads a YAML rule file and creates the rules that are not
// already present, matched by name. Seeding is idempotent across restarts.
func (s *RuleService) SeedFromFile(ctx context.Context, path string) (int, error) {
	seeds, err := ingest.LoadRuleFile(path)
	if err != nil {
		return 0, err
	}

	existing, err := s.storage.GetRules(ctx)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]struct{}, len(existing))
	for i := range existing {
		byName[existing[i].Name] = struct{}{}
	}

	created := 0
	for _, rule := range seeds {
		if _, ok := byName[rule.Name]; ok {
			continue
		}
		if err := s.storage.CreateRule(ctx, rule); err != nil {
			return created, fmt.Errorf("seeding rule %q: %w", rule.Name, err)
		}
		byName[rule.Name] = struct{}{}
		created++
	}

	if created > 0 {
		s.logger.Infow("Seeded rules from file", "path", path, "created", created)
	}
	return created, nil
}

// ListRules returns all rules in creation order.
func (s *RuleService) ListRules(ctx context.Context) ([]core.Rule, error) {
	return s.storage.GetRules(ctx)
}

// GetRule returns one rule.
func (s *RuleService) GetRule(ctx context.Context, id string) (*core.Rule, error) {
	return s.storage.GetRule(ctx, id)
}

// DeleteRule removes a rule. Existing alerts keep their snapshots.
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	if err := s.storage.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Rule deleted", "rule_id", id)
	return nil
}
