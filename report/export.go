package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"workbench/core"

	"go.uber.org/zap"
)

// EvidenceStore persists evidence metadata for exported packets.
type EvidenceStore interface {
	// InsertEvidenceIfNew records the evidence file unless a record with the
	// same (incident, filename, sha256) already exists, and reports whether
	// a row was created.
	InsertEvidenceIfNew(ctx context.Context, ev *core.EvidenceFile) (bool, error)
	GetEvidenceByIncident(ctx context.Context, incidentID string) ([]core.EvidenceFile, error)
}

// Exporter writes assembled packets to the evidence directory and records
// them as evidence files. Re-exporting an unchanged incident overwrites the
// same file and leaves the evidence list untouched, so repeated exports are
// idempotent.
type Exporter struct {
	evidenceDir string
	evidence    EvidenceStore
	logger      *zap.SugaredLogger
}

// NewExporter creates a packet exporter rooted at evidenceDir.
func NewExporter(evidenceDir string, evidence EvidenceStore, logger *zap.SugaredLogger) *Exporter {
	return &Exporter{
		evidenceDir: evidenceDir,
		evidence:    evidence,
		logger:      logger,
	}
}

// WritePacketEvidence serializes the packet to JSON under
// <evidenceDir>/<incident>/incident-packet.json, records an EvidenceFile
// with the payload's SHA-256, and returns the incident's current evidence
// list.
func (e *Exporter) WritePacketEvidence(ctx context.Context, packet *core.IncidentPacket) ([]core.EvidenceFile, error) {
	incidentID := packet.Incident.ID

	payload, err := json.MarshalIndent(packet, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize packet: %w", err)
	}

	dir := filepath.Join(e.evidenceDir, incidentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create evidence directory: %w", err)
	}

	path := filepath.Join(dir, "incident-packet.json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write packet evidence: %w", err)
	}

	sum := sha256.Sum256(payload)
	record := core.NewEvidenceFile(
		incidentID,
		filepath.Join(incidentID, "incident-packet.json"),
		"application/json",
		hex.EncodeToString(sum[:]),
		int64(len(payload)),
	)

	created, err := e.evidence.InsertEvidenceIfNew(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record packet evidence: %w", err)
	}
	if created {
		e.logger.Infow("Packet evidence recorded",
			"incident_id", incidentID, "sha256", record.SHA256, "size", record.SizeBytes)
	}

	return e.evidence.GetEvidenceByIncident(ctx, incidentID)
}
