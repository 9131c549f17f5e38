package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"workbench/core"
)

// defaultTimelineLimit caps how many timeline rows a rendered report
// carries; very long investigations still export, just truncated.
const defaultTimelineLimit = 500

// RenderMarkdown renders an incident packet plus its evidence list to a
// Markdown report. timelineLimit <= 0 falls back to the default cap.
func RenderMarkdown(packet *core.IncidentPacket, evidence []core.EvidenceFile, timelineLimit int) string {
	if timelineLimit <= 0 {
		timelineLimit = defaultTimelineLimit
	}

	inc := packet.Incident
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident Report: %s\n\n", inc.Title)
	fmt.Fprintf(&b, "- **Incident ID:** %s\n", inc.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", inc.Status)
	fmt.Fprintf(&b, "- **Severity:** %s\n", inc.Severity)
	fmt.Fprintf(&b, "- **Created:** %s\n", formatTime(inc.CreatedAt))
	fmt.Fprintf(&b, "- **Updated:** %s\n", formatTime(inc.UpdatedAt))
	if inc.Description != "" {
		fmt.Fprintf(&b, "- **Description:** %s\n", inc.Description)
	}
	b.WriteString("\n")

	b.WriteString("## Scope\n")
	fmt.Fprintf(&b, "- **Window:** %s to %s\n",
		formatTime(packet.Scope.TimeWindow.Start), formatTime(packet.Scope.TimeWindow.End))
	fmt.Fprintf(&b, "- **Hosts:** %s\n", joinOrNone(packet.Scope.Hosts))
	fmt.Fprintf(&b, "- **Users:** %s\n", joinOrNone(packet.Scope.Users))
	fmt.Fprintf(&b, "- **Sources:** %s\n", joinOrNone(packet.Scope.Sources))
	fmt.Fprintf(&b, "- **IPs:** %s\n\n", joinOrNone(packet.Scope.IPs))

	b.WriteString("## Actions (Investigation Log)\n")
	if len(packet.Actions) == 0 {
		b.WriteString("_No actions recorded._\n")
	} else {
		for i := range packet.Actions {
			act := &packet.Actions[i]
			actor := act.Actor
			if actor == "" {
				actor = "unknown"
			}
			fmt.Fprintf(&b, "- **%s** [%s] (%s) %s\n",
				formatTime(act.CreatedAt), act.ActionType, actor, act.Summary)
			if len(act.Details) > 0 {
				if detail, err := json.MarshalIndent(act.Details, "", "  "); err == nil {
					fmt.Fprintf(&b, "\n```json\n%s\n```\n\n", detail)
				}
			}
		}
	}
	b.WriteString("\n")

	b.WriteString("## Timeline\n")
	if len(packet.Timeline) == 0 {
		b.WriteString("_No timeline entries._\n")
	} else {
		entries := packet.Timeline
		if len(entries) > timelineLimit {
			entries = entries[:timelineLimit]
		}
		for i := range entries {
			e := &entries[i]
			fmt.Fprintf(&b, "- **%s** %s src=%s host=%s user=%s , %s\n",
				formatTime(e.Time), strings.ToUpper(string(e.Type)),
				orNA(e.Source), orNA(e.Host), orNA(e.User), e.Summary)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Evidence\n")
	if len(evidence) == 0 {
		b.WriteString("_No evidence files recorded._\n")
	} else {
		for i := range evidence {
			e := &evidence[i]
			fmt.Fprintf(&b, "- %s (sha256=%s, size=%d bytes, created=%s)\n",
				e.Filename, e.SHA256, e.SizeBytes, formatTime(e.CreatedAt))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func orNA(v string) string {
	if v == "" {
		return "n/a"
	}
	return v
}
