package core

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceFile is metadata for an artifact attached to an incident. The
// bytes themselves live on disk under the evidence directory; this record
// carries the checksum that ties the two together.
type EvidenceFile struct {
	ID          string    `json:"id"`
	IncidentID  string    `json:"incident_id"`
	CreatedAt   time.Time `json:"created_at"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SHA256      string    `json:"sha256"`
	SizeBytes   int64     `json:"size_bytes"`
}

// NewEvidenceFile creates an EvidenceFile record with a generated ID.
func NewEvidenceFile(incidentID, filename, contentType, sha256 string, size int64) *EvidenceFile {
	return &EvidenceFile{
		ID:          uuid.New().String(),
		IncidentID:  incidentID,
		CreatedAt:   time.Now().UTC(),
		Filename:    filename,
		ContentType: contentType,
		SHA256:      sha256,
		SizeBytes:   size,
	}
}
