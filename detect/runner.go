package detect

import (
	"context"
	"fmt"
	"time"

	"workbench/core"
	"workbench/metrics"

	"go.uber.org/zap"
)

// RuleSource provides the enabled rule set for a run, in creation order.
type RuleSource interface {
	GetEnabledRules(ctx context.Context) ([]core.Rule, error)
}

// EventSource provides the candidate event set for a run, in ingestion
// order, bounded by limit.
type EventSource interface {
	GetEvents(ctx context.Context, limit int) ([]core.Event, error)
}

// AlertSink persists alerts. InsertAlertIfNew must enforce the
// one-alert-per-(rule, event) invariant at the write boundary (a unique
// constraint, not a pre-read) and report whether a row was actually
// created, so that concurrent runs over overlapping windows cannot
// double-create alerts.
type AlertSink interface {
	InsertAlertIfNew(ctx context.Context, alert *core.Alert) (bool, error)
}

// RunResult reports the outcome of one detection run. AlertsCreated counts
// only alerts newly created by this invocation; pairs skipped as duplicates
// are not reported.
type RunResult struct {
	AlertsCreated int `json:"alerts_created"`
}

// Runner orchestrates the matching engine over the stored rule and event
// sets. Runs are idempotent: re-running over an unchanged window creates
// nothing, and re-running after new events arrive creates alerts only for
// the new (rule, event) pairs.
type Runner struct {
	rules      RuleSource
	events     EventSource
	alerts     AlertSink
	eventLimit int
	logger     *zap.SugaredLogger
}

// NewRunner creates a detection runner. eventLimit bounds how many events a
// single run scans; values <= 0 fall back to 500.
func NewRunner(rules RuleSource, events EventSource, alerts AlertSink, eventLimit int, logger *zap.SugaredLogger) *Runner {
	if eventLimit <= 0 {
		eventLimit = 500
	}
	return &Runner{
		rules:      rules,
		events:     events,
		alerts:     alerts,
		eventLimit: eventLimit,
		logger:     logger,
	}
}

// Run evaluates every enabled rule against every candidate event and
// persists an alert per new match. Rules and events are processed in stable
// stored order so downstream "first N" displays are reproducible.
//
// A storage failure aborts the run but leaves already-committed alerts in
// place; the returned RunResult carries the count committed before the
// fault alongside the error, and re-running is safe.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	result := RunResult{}

	rules, err := r.rules.GetEnabledRules(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		r.logger.Debug("Detection run skipped: no enabled rules")
		return result, nil
	}

	events, err := r.events.GetEvents(ctx, r.eventLimit)
	if err != nil {
		return result, fmt.Errorf("failed to load events: %w", err)
	}

	for ei := range events {
		event := &events[ei]
		if event.Raw == nil {
			// Malformed payload: non-matching for every rule, run continues.
			r.logger.Debugw("Skipping event with undecodable payload", "event_id", event.ID)
			continue
		}
		for ri := range rules {
			rule := &rules[ri]
			if !SourceEligible(rule, event.Source) {
				continue
			}

			match := Evaluate(rule, event)
			if !match.Matched {
				continue
			}

			alert := core.NewAlert(rule, event, match.Summary)
			created, err := r.alerts.InsertAlertIfNew(ctx, alert)
			if err != nil {
				metrics.DetectionRuns.WithLabelValues("partial_failure").Inc()
				return result, fmt.Errorf("detection run aborted after %d alerts: %w", result.AlertsCreated, err)
			}
			if created {
				result.AlertsCreated++
				metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
			}
		}
	}

	metrics.DetectionRuns.WithLabelValues("ok").Inc()
	metrics.DetectionRunDuration.Observe(time.Since(start).Seconds())

	r.logger.Infow("Detection run complete",
		"rules", len(rules),
		"events", len(events),
		"alerts_created", result.AlertsCreated,
		"duration", time.Since(start))

	return result, nil
}
