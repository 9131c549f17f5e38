package storage

import "errors"

// Storage error constants
var (
	// ErrEventNotFound is returned when an event is not found
	ErrEventNotFound = errors.New("event not found")

	// ErrRuleNotFound is returned when a rule is not found
	ErrRuleNotFound = errors.New("rule not found")

	// ErrAlertNotFound is returned when an alert is not found
	ErrAlertNotFound = errors.New("alert not found")

	// ErrIncidentNotFound is returned when an incident is not found
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrImportJobNotFound is returned when an import job is not found
	ErrImportJobNotFound = errors.New("import job not found")

	// ErrIncidentClosed is returned when modifying a closed incident
	ErrIncidentClosed = errors.New("incident is closed")
)
