package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"workbench/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRuleFile_Valid(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - name: Failed Login Burst
    severity: high
    mitre: [T1110]
    description: Repeated authentication failures
    match_source: auth
    match_field: event.action
    match_contains: failed
  - name: Disabled Probe
    enabled: false
    match_source: "*"
    match_field: message
    match_contains: nmap
`)

	rules, err := LoadRuleFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	first := rules[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Failed Login Burst", first.Name)
	assert.Equal(t, core.SeverityHigh, first.Severity)
	assert.Equal(t, []string{"T1110"}, first.Mitre)
	assert.Equal(t, "Repeated authentication failures", first.Description)
	assert.True(t, first.Enabled, "Enabled defaults to true when omitted")
	assert.Equal(t, "auth", first.MatchSource)
	assert.Equal(t, "event.action", first.MatchField)
	assert.Equal(t, "failed", first.MatchContains)

	second := rules[1]
	assert.Equal(t, core.SeverityMedium, second.Severity, "Severity defaults to medium when omitted")
	assert.False(t, second.Enabled)
}

func TestLoadRuleFile_InvalidEntryFailsWholeLoad(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - name: Good Rule
    match_source: auth
    match_field: message
    match_contains: denied
  - name: Bad Rule
    match_source: auth
    match_field: message
    match_contains: ""
`)

	rules, err := LoadRuleFile(path)
	assert.Nil(t, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entry 2 ("Bad Rule")`)
	assert.Contains(t, err.Error(), "match_contains is required")
}

func TestLoadRuleFile_InvalidSeverity(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - name: Odd Rule
    severity: catastrophic
    match_source: auth
    match_field: message
    match_contains: x
`)

	_, err := LoadRuleFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rule severity")
}

func TestLoadRuleFile_MissingFile(t *testing.T) {
	_, err := LoadRuleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading rule file")
}

func TestLoadRuleFile_NotYAML(t *testing.T) {
	path := writeRuleFile(t, "{{{ not yaml")
	_, err := LoadRuleFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rule file")
}

func TestLoadRuleFile_EmptyDocument(t *testing.T) {
	path := writeRuleFile(t, "rules: []\n")
	rules, err := LoadRuleFile(path)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
