package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is one ingested log record. Raw holds the decoded JSON payload
// exactly as it was ingested; nothing in the system mutates it.
type Event struct {
	ID         string                 `json:"id"`
	ReceivedAt time.Time              `json:"received_at"`
	Source     string                 `json:"source"`
	Host       string                 `json:"host,omitempty"`
	User       string                 `json:"user,omitempty"`
	Raw        map[string]interface{} `json:"raw"`
}

// NewEvent creates an Event with a generated ID and UTC ingestion timestamp.
func NewEvent(source, host, user string, raw map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.New().String(),
		ReceivedAt: time.Now().UTC(),
		Source:     source,
		Host:       host,
		User:       user,
		Raw:        raw,
	}
}

// ImportJob records one bulk ingestion (JSONL upload) and the checksum of
// the uploaded artifact.
type ImportJob struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Filename       string    `json:"filename"`
	SHA256         string    `json:"sha256"`
	Source         string    `json:"source"`
	Host           string    `json:"host,omitempty"`
	User           string    `json:"user,omitempty"`
	EventsIngested int       `json:"events_ingested"`
}

// NewImportJob creates an ImportJob with a generated ID.
func NewImportJob(filename, sha256, source, host, user string, ingested int) *ImportJob {
	return &ImportJob{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		Filename:       filename,
		SHA256:         sha256,
		Source:         source,
		Host:           host,
		User:           user,
		EventsIngested: ingested,
	}
}
