// Package report derives the incident packet from an incident's linked
// alerts and recorded actions, and renders it for export. Assembly is pure
// computation over snapshots handed in by the caller; nothing here touches
// storage or caches results.
package report

import (
	"fmt"
	"sort"
	"time"

	"workbench/core"
	"workbench/metrics"
)

// DefaultIPFields are the event payload keys scanned for IP addresses when
// the caller does not configure its own list.
var DefaultIPFields = []string{
	"src_ip", "source_ip", "client_ip", "remote_ip", "ip", "src", "dst_ip", "dest_ip",
}

// Assemble computes the incident packet for an incident and the snapshots
// of its linked alerts, recorded actions, and (optionally) the alerts'
// originating events keyed by event ID. ipFields names the top-level payload
// keys scanned for scope IPs; nil falls back to DefaultIPFields.
//
// Assembly never fails: an incident with no alerts and no actions yields a
// minimal well-formed packet whose time window collapses to the incident's
// creation time.
func Assemble(incident *core.Incident, alerts []core.Alert, actions []core.IncidentAction, events map[string]core.Event, ipFields []string) core.IncidentPacket {
	if ipFields == nil {
		ipFields = DefaultIPFields
	}

	packet := core.IncidentPacket{
		Incident: incident,
		Scope:    computeScope(incident, alerts, actions, events, ipFields),
		Alerts:   make([]core.Alert, 0, len(alerts)),
		Timeline: mergeTimeline(alerts, actions),
		Actions:  make([]core.IncidentAction, 0, len(actions)),
	}

	// Alerts are surfaced exactly as stored: the snapshot taken at alert
	// creation is authoritative, so later rule edits or event changes never
	// alter a packet.
	packet.Alerts = append(packet.Alerts, alerts...)
	packet.Actions = append(packet.Actions, actions...)

	metrics.PacketsAssembled.Inc()
	return packet
}

// computeScope derives the time window and the deduplicated host/user/
// source/IP unions from the linked alerts and actions.
func computeScope(incident *core.Incident, alerts []core.Alert, actions []core.IncidentAction, events map[string]core.Event, ipFields []string) core.Scope {
	scope := core.Scope{
		Hosts:   []string{},
		Users:   []string{},
		Sources: []string{},
		IPs:     []string{},
	}

	var times []time.Time
	hosts := newOrderedSet()
	users := newOrderedSet()
	sources := newOrderedSet()
	ips := newOrderedSet()

	for i := range alerts {
		a := &alerts[i]
		times = append(times, a.CreatedAt)
		hosts.add(a.Host)
		users.add(a.User)
		sources.add(a.Source)

		if events != nil {
			if ev, ok := events[a.EventID]; ok {
				for _, ip := range extractIPs(ev.Raw, ipFields) {
					ips.add(ip)
				}
			}
		}
	}
	for i := range actions {
		times = append(times, actions[i].CreatedAt)
	}

	if len(times) == 0 {
		scope.TimeWindow = core.TimeWindow{Start: incident.CreatedAt, End: incident.CreatedAt}
	} else {
		start, end := times[0], times[0]
		for _, t := range times[1:] {
			if t.Before(start) {
				start = t
			}
			if t.After(end) {
				end = t
			}
		}
		scope.TimeWindow = core.TimeWindow{Start: start, End: end}
	}

	scope.Hosts = hosts.values()
	scope.Users = users.values()
	scope.Sources = sources.values()
	scope.IPs = ips.values()
	return scope
}

// mergeTimeline builds one ordered sequence from the two entry kinds.
// Alert entries are appended before action entries and the sort is stable,
// so at equal timestamps alerts deterministically precede actions.
func mergeTimeline(alerts []core.Alert, actions []core.IncidentAction) []core.TimelineEntry {
	timeline := make([]core.TimelineEntry, 0, len(alerts)+len(actions))

	for i := range alerts {
		a := &alerts[i]
		timeline = append(timeline, core.TimelineEntry{
			Time:    a.CreatedAt,
			Type:    core.TimelineEntryAlert,
			Source:  a.Source,
			Host:    a.Host,
			User:    a.User,
			Summary: fmt.Sprintf("[%s] %s: %s", a.Severity, a.RuleName, a.Summary),
		})
	}
	for i := range actions {
		act := &actions[i]
		timeline = append(timeline, core.TimelineEntry{
			Time:       act.CreatedAt,
			Type:       core.TimelineEntryAction,
			Actor:      act.Actor,
			ActionType: act.ActionType,
			Summary:    act.Summary,
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Time.Before(timeline[j].Time)
	})

	return timeline
}

// extractIPs collects IP-looking values from the configured payload keys.
// String values and sequences of strings are accepted; anything else is
// ignored.
func extractIPs(raw map[string]interface{}, ipFields []string) []string {
	if raw == nil {
		return nil
	}
	var out []string
	for _, key := range ipFields {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// orderedSet is a string set that remembers insertion order. Empty values
// are excluded entirely; absence is a presentation concern of the renderer.
type orderedSet struct {
	seen map[string]struct{}
	keys []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.keys = append(s.keys, v)
}

func (s *orderedSet) values() []string {
	if s.keys == nil {
		return []string{}
	}
	return s.keys
}
