package detect

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"workbench/core"
)

// maxValueExcerptLen caps the matched-value excerpt carried in alert
// summaries so a rule matching a large blob does not balloon the alert.
const maxValueExcerptLen = 200

// MatchResult is the outcome of evaluating one rule against one event.
// On a match, Field and Value describe the resolved leaf and Summary is the
// human-readable alert text; on a no-match all of them are empty.
type MatchResult struct {
	Matched bool
	Field   string
	Value   string
	Summary string
}

// noMatch is the sentinel returned for every non-matching evaluation.
var noMatch = MatchResult{}

// Evaluate tests a rule against an event. It is a pure function of its two
// inputs: no side effects, no shared state, safe to call concurrently.
//
// A rule matches when the event's source passes the rule's source filter,
// the rule's dot path resolves to a scalar in the event payload, and the
// scalar's text contains the rule's substring case-insensitively. A path
// that cannot be resolved is a no-match, never an error.
func Evaluate(rule *core.Rule, event *core.Event) MatchResult {
	if !SourceEligible(rule, event.Source) {
		return noMatch
	}

	leaf, ok := resolvePath(event.Raw, rule.MatchField)
	if !ok {
		return noMatch
	}

	text, ok := coerceScalar(leaf)
	if !ok {
		return noMatch
	}

	// An empty match_contains matches any resolved scalar. Rule validation
	// rejects empty values up front; the engine keeps the permissive
	// behavior for rules that predate that check.
	if !strings.Contains(strings.ToLower(text), strings.ToLower(rule.MatchContains)) {
		return noMatch
	}

	excerpt := truncateExcerpt(text)

	return MatchResult{
		Matched: true,
		Field:   rule.MatchField,
		Value:   excerpt,
		Summary: fmt.Sprintf("%s: %s matched %q", rule.Name, rule.MatchField, excerpt),
	}
}

// truncateExcerpt caps the excerpt at maxValueExcerptLen runes. Counting
// runes rather than bytes keeps a multi-byte character from being split
// into a mangled sequence at the cut point.
func truncateExcerpt(text string) string {
	if utf8.RuneCountInString(text) <= maxValueExcerptLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxValueExcerptLen])
}

// SourceEligible reports whether an event source passes the rule's source
// filter. The comparison is exact and case-sensitive unless the rule uses
// the "*" wildcard. The runner uses this as a pre-filter to skip field
// resolution for ineligible events.
func SourceEligible(rule *core.Rule, source string) bool {
	return rule.MatchSource == core.MatchSourceAny || rule.MatchSource == source
}

// resolvePath walks a dot-separated path through a decoded JSON payload.
// Only mappings are traversable: a sequence, a scalar mid-path, or a missing
// key all fail resolution. A nil payload (malformed event) never resolves.
func resolvePath(raw map[string]interface{}, path string) (interface{}, bool) {
	if raw == nil {
		return nil, false
	}

	var current interface{} = raw
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// coerceScalar renders a resolved leaf to comparison text. Strings pass
// through, numbers and booleans render to their canonical decimal/boolean
// form. Null and structured leaves (mappings, sequences) never match.
func coerceScalar(v interface{}) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case json.Number:
		return value.String(), true
	case bool:
		return strconv.FormatBool(value), true
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	default:
		return "", false
	}
}
