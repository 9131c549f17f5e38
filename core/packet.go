package core

import "time"

// TimelineEntryType discriminates the two kinds of timeline entries.
type TimelineEntryType string

const (
	TimelineEntryAlert  TimelineEntryType = "alert"
	TimelineEntryAction TimelineEntryType = "action"
)

// TimeWindow is the inclusive [Start, End] interval covered by an incident.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Scope is the union of everything implicated by an incident's linked
// alerts: the time window, and the deduplicated hosts, users, sources and
// IP addresses, each in order of first appearance.
type Scope struct {
	TimeWindow TimeWindow `json:"time_window"`
	Hosts      []string   `json:"hosts"`
	Users      []string   `json:"users"`
	Sources    []string   `json:"sources"`
	IPs        []string   `json:"ips"`
}

// TimelineEntry is one row of the merged incident timeline. Alert entries
// carry source/host/user from the alert snapshot; action entries carry the
// actor and action type instead.
type TimelineEntry struct {
	Time       time.Time         `json:"time"`
	Type       TimelineEntryType `json:"type"`
	Source     string            `json:"source,omitempty"`
	Host       string            `json:"host,omitempty"`
	User       string            `json:"user,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	ActionType ActionType        `json:"action_type,omitempty"`
	Summary    string            `json:"summary"`
}

// IncidentPacket is the derived, recomputed-on-read view of an incident:
// the incident itself, its computed scope, the linked alert snapshots, the
// merged timeline, and the ordered action log. It is never persisted or
// cached; every read reflects the alerts and actions at assembly time.
type IncidentPacket struct {
	Incident *Incident        `json:"incident"`
	Scope    Scope            `json:"scope"`
	Alerts   []Alert          `json:"alerts"`
	Timeline []TimelineEntry  `json:"timeline"`
	Actions  []IncidentAction `json:"actions"`
}
