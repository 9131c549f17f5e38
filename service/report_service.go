package service

import (
	"context"

	"workbench/core"
	"workbench/report"

	"go.uber.org/zap"
)

// PacketBuilder assembles incident packets.
type PacketBuilder interface {
	BuildPacket(ctx context.Context, incidentID string) (*core.IncidentPacket, error)
}

// PacketExporter persists a packet snapshot as evidence and returns the
// incident's current evidence list.
type PacketExporter interface {
	WritePacketEvidence(ctx context.Context, packet *core.IncidentPacket) ([]core.EvidenceFile, error)
}

// ReportService renders incident packets as Markdown reports. Every render
// first exports the packet JSON as an evidence file so the report's
// evidence section always includes the snapshot it was built from.
type ReportService struct {
	packets       PacketBuilder
	exporter      PacketExporter
	timelineLimit int
	logger        *zap.SugaredLogger
}

// NewReportService creates a report service. timelineLimit caps the number
// of timeline entries rendered; zero or negative uses the report package
// default.
func NewReportService(packets PacketBuilder, exporter PacketExporter, timelineLimit int, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{
		packets:       packets,
		exporter:      exporter,
		timelineLimit: timelineLimit,
		logger:        logger,
	}
}

// RenderMarkdown assembles the incident packet, writes it as JSON evidence,
// and returns the Markdown report.
func (s *ReportService) RenderMarkdown(ctx context.Context, incidentID string) (string, error) {
	packet, err := s.packets.BuildPacket(ctx, incidentID)
	if err != nil {
		return "", err
	}

	evidence, err := s.exporter.WritePacketEvidence(ctx, packet)
	if err != nil {
		return "", err
	}

	s.logger.Infow("Markdown report rendered",
		"incident_id", incidentID,
		"alerts", len(packet.Alerts),
		"timeline_entries", len(packet.Timeline))
	return report.RenderMarkdown(packet, evidence, s.timelineLimit), nil
}
