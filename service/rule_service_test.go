package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"workbench/core"
	"workbench/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuleStorage struct {
	rules []*core.Rule
}

func (f *fakeRuleStorage) CreateRule(_ context.Context, rule *core.Rule) error {
	f.rules = append(f.rules, rule)
	return nil
}

func (f *fakeRuleStorage) GetRules(_ context.Context) ([]core.Rule, error) {
	out := make([]core.Rule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRuleStorage) GetRule(_ context.Context, id string) (*core.Rule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrRuleNotFound
}

func (f *fakeRuleStorage) DeleteRule(_ context.Context, id string) error {
	for i, r := range f.rules {
		if r.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return storage.ErrRuleNotFound
}

func validRuleInput() CreateRuleInput {
	return CreateRuleInput{
		Name:          "Failed Login Burst",
		Severity:      core.SeverityHigh,
		Mitre:         []string{"T1110"},
		MatchSource:   "auth",
		MatchField:    "event.action",
		MatchContains: "failed",
	}
}

func TestRuleService_CreateRule(t *testing.T) {
	store := &fakeRuleStorage{}
	svc := NewRuleService(store, zap.NewNop().Sugar())

	rule, err := svc.CreateRule(context.Background(), validRuleInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "Failed Login Burst", rule.Name)
	assert.True(t, rule.Enabled)
	assert.Len(t, store.rules, 1)
}

func TestRuleService_CreateRuleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRuleInput)
	}{
		{"missing name", func(in *CreateRuleInput) { in.Name = "" }},
		{"missing severity", func(in *CreateRuleInput) { in.Severity = "" }},
		{"unknown severity", func(in *CreateRuleInput) { in.Severity = "catastrophic" }},
		{"missing match_source", func(in *CreateRuleInput) { in.MatchSource = "" }},
		{"missing match_field", func(in *CreateRuleInput) { in.MatchField = "" }},
		{"empty match_contains", func(in *CreateRuleInput) { in.MatchContains = "" }},
		{"whitespace match_contains", func(in *CreateRuleInput) { in.MatchContains = "   " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeRuleStorage{}
			svc := NewRuleService(store, zap.NewNop().Sugar())

			input := validRuleInput()
			tt.mutate(&input)

			_, err := svc.CreateRule(context.Background(), input)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, store.rules, "Nothing should reach storage on invalid input")
		})
	}
}

func TestRuleService_SeedFromFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: Seeded Rule
    severity: low
    match_source: "*"
    match_field: message
    match_contains: probe
`), 0o644))

	store := &fakeRuleStorage{}
	svc := NewRuleService(store, zap.NewNop().Sugar())
	ctx := context.Background()

	created, err := svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "Re-seeding should skip rules already present by name")
	assert.Len(t, store.rules, 1)
}

func TestRuleService_SeedFromFileBadFile(t *testing.T) {
	svc := NewRuleService(&fakeRuleStorage{}, zap.NewNop().Sugar())

	_, err := svc.SeedFromFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRuleService_DeleteRule(t *testing.T) {
	store := &fakeRuleStorage{}
	svc := NewRuleService(store, zap.NewNop().Sugar())
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, validRuleInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRule(ctx, rule.ID))
	assert.ErrorIs(t, svc.DeleteRule(ctx, rule.ID), storage.ErrRuleNotFound)
}
