package report

import (
	"testing"
	"time"

	"workbench/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTime() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func alertAt(t time.Time, host, user, source, eventID string) core.Alert {
	rule := core.NewRule("Brute Force", core.SeverityHigh, source, "msg", "failed")
	event := core.NewEvent(source, host, user, map[string]interface{}{"msg": "failed"})
	if eventID != "" {
		event.ID = eventID
	}
	alert := core.NewAlert(rule, event, "msg matched")
	alert.CreatedAt = t
	return *alert
}

func actionAt(t time.Time, actor, summary string) core.IncidentAction {
	action := core.NewIncidentAction("inc-1", actor, core.ActionTypeTriage, summary, nil)
	action.CreatedAt = t
	return *action
}

func TestAssemble_EmptyIncident(t *testing.T) {
	incident := core.NewIncident("Quiet incident", core.SeverityLow, "")
	incident.CreatedAt = baseTime()

	packet := Assemble(incident, nil, nil, nil, nil)

	assert.Equal(t, incident, packet.Incident)
	assert.Equal(t, baseTime(), packet.Scope.TimeWindow.Start)
	assert.Equal(t, baseTime(), packet.Scope.TimeWindow.End)
	assert.Empty(t, packet.Scope.Hosts)
	assert.Empty(t, packet.Scope.Users)
	assert.Empty(t, packet.Scope.Sources)
	assert.Empty(t, packet.Scope.IPs)
	assert.Empty(t, packet.Alerts)
	assert.Empty(t, packet.Timeline)
	assert.Empty(t, packet.Actions)
}

func TestAssemble_TimeWindowSpansAlertsAndActions(t *testing.T) {
	incident := core.NewIncident("Spread", core.SeverityMedium, "")
	early := baseTime()
	late := baseTime().Add(3 * time.Hour)

	alerts := []core.Alert{alertAt(early.Add(time.Hour), "h1", "u1", "auth", "")}
	actions := []core.IncidentAction{
		actionAt(early, "bob", "opened triage"),
		actionAt(late, "bob", "contained host"),
	}

	packet := Assemble(incident, alerts, actions, nil, nil)

	assert.Equal(t, early, packet.Scope.TimeWindow.Start)
	assert.Equal(t, late, packet.Scope.TimeWindow.End)
}

func TestAssemble_ScopeUnionsDedupInFirstAppearanceOrder(t *testing.T) {
	incident := core.NewIncident("Dedup", core.SeverityMedium, "")
	alerts := []core.Alert{
		alertAt(baseTime(), "web-01", "alice", "auth", ""),
		alertAt(baseTime().Add(time.Minute), "db-01", "alice", "auth", ""),
		alertAt(baseTime().Add(2*time.Minute), "web-01", "", "edr", ""),
	}

	packet := Assemble(incident, alerts, nil, nil, nil)

	assert.Equal(t, []string{"web-01", "db-01"}, packet.Scope.Hosts)
	assert.Equal(t, []string{"alice"}, packet.Scope.Users)
	assert.Equal(t, []string{"auth", "edr"}, packet.Scope.Sources)
}

func TestAssemble_IPExtractionFromSourceEvents(t *testing.T) {
	incident := core.NewIncident("IPs", core.SeverityMedium, "")
	alerts := []core.Alert{
		alertAt(baseTime(), "h", "u", "fw", "ev-1"),
		alertAt(baseTime(), "h", "u", "fw", "ev-2"),
	}
	events := map[string]core.Event{
		"ev-1": {ID: "ev-1", Raw: map[string]interface{}{
			"src_ip": "10.0.0.5",
			"dst_ip": "192.168.1.9",
			"port":   float64(443),
		}},
		"ev-2": {ID: "ev-2", Raw: map[string]interface{}{
			"src_ip": "10.0.0.5",
			"ip":     []interface{}{"172.16.0.2", "172.16.0.3"},
		}},
	}

	packet := Assemble(incident, alerts, nil, events, nil)

	assert.Equal(t, []string{"10.0.0.5", "192.168.1.9", "172.16.0.2", "172.16.0.3"}, packet.Scope.IPs)
}

func TestAssemble_CustomIPFields(t *testing.T) {
	incident := core.NewIncident("IPs", core.SeverityMedium, "")
	alerts := []core.Alert{alertAt(baseTime(), "h", "u", "fw", "ev-1")}
	events := map[string]core.Event{
		"ev-1": {ID: "ev-1", Raw: map[string]interface{}{
			"attacker": "203.0.113.7",
			"src_ip":   "10.0.0.5",
		}},
	}

	packet := Assemble(incident, alerts, nil, events, []string{"attacker"})

	assert.Equal(t, []string{"203.0.113.7"}, packet.Scope.IPs)
}

func TestAssemble_TimelineOrderAndTieBreak(t *testing.T) {
	incident := core.NewIncident("Order", core.SeverityMedium, "")
	tie := baseTime().Add(time.Hour)

	alerts := []core.Alert{alertAt(tie, "h", "u", "auth", "")}
	actions := []core.IncidentAction{
		actionAt(baseTime(), "bob", "first note"),
		actionAt(tie, "bob", "note at tie"),
	}

	packet := Assemble(incident, alerts, actions, nil, nil)

	require.Len(t, packet.Timeline, 3)
	assert.Equal(t, core.TimelineEntryAction, packet.Timeline[0].Type)
	assert.Equal(t, "first note", packet.Timeline[0].Summary)
	assert.Equal(t, core.TimelineEntryAlert, packet.Timeline[1].Type, "alert wins the timestamp tie")
	assert.Equal(t, core.TimelineEntryAction, packet.Timeline[2].Type)
}

func TestAssemble_TimelineAlertSummaryFormat(t *testing.T) {
	incident := core.NewIncident("Fmt", core.SeverityMedium, "")
	alert := alertAt(baseTime(), "h", "u", "auth", "")

	packet := Assemble(incident, []core.Alert{alert}, nil, nil, nil)

	require.Len(t, packet.Timeline, 1)
	assert.Equal(t, "[high] Brute Force: msg matched", packet.Timeline[0].Summary)
	assert.Equal(t, "auth", packet.Timeline[0].Source)
	assert.Equal(t, "h", packet.Timeline[0].Host)
	assert.Equal(t, "u", packet.Timeline[0].User)
}

func TestAssemble_AlertsSurfacedAsStoredSnapshots(t *testing.T) {
	incident := core.NewIncident("Snap", core.SeverityMedium, "")
	alert := alertAt(baseTime(), "h", "u", "auth", "")
	alert.RuleName = "Old Rule Name"

	packet := Assemble(incident, []core.Alert{alert}, nil, nil, nil)

	require.Len(t, packet.Alerts, 1)
	assert.Equal(t, "Old Rule Name", packet.Alerts[0].RuleName)
}

func TestExtractIPs_IgnoresNonStringValues(t *testing.T) {
	raw := map[string]interface{}{
		"src_ip": float64(123456),
		"ip":     []interface{}{"10.1.1.1", float64(7)},
	}

	ips := extractIPs(raw, DefaultIPFields)
	assert.Equal(t, []string{"10.1.1.1"}, ips)
}
