package ingest

import (
	"fmt"
	"os"

	"workbench/core"

	"gopkg.in/yaml.v3"
)

// ruleFileEntry is one rule definition in a YAML seed file.
type ruleFileEntry struct {
	Name          string   `yaml:"name"`
	Severity      string   `yaml:"severity"`
	Mitre         []string `yaml:"mitre"`
	Description   string   `yaml:"description"`
	Enabled       *bool    `yaml:"enabled"`
	MatchSource   string   `yaml:"match_source"`
	MatchField    string   `yaml:"match_field"`
	MatchContains string   `yaml:"match_contains"`
}

// ruleFile is the top-level YAML seed document.
type ruleFile struct {
	Rules []ruleFileEntry `yaml:"rules"`
}

// LoadRuleFile reads a YAML rule seed file and returns validated rules in
// file order. Any invalid entry fails the whole load so a bad seed file is
// noticed at startup instead of silently half-applied.
func LoadRuleFile(path string) ([]*core.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file %s: %w", path, err)
	}

	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}

	rules := make([]*core.Rule, 0, len(doc.Rules))
	for i, entry := range doc.Rules {
		severity := core.Severity(entry.Severity)
		if severity == "" {
			severity = core.SeverityMedium
		}

		rule := core.NewRule(entry.Name, severity, entry.MatchSource, entry.MatchField, entry.MatchContains)
		rule.Mitre = entry.Mitre
		rule.Description = entry.Description
		if entry.Enabled != nil {
			rule.Enabled = *entry.Enabled
		}

		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule file %s entry %d (%q): %w", path, i+1, entry.Name, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}
