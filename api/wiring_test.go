package api

import (
	"workbench/detect"
	"workbench/service"
	"workbench/storage"
)

// Compile-time checks that the service layer satisfies the handler-facing
// interfaces, mirroring how the server wires them at startup.
var (
	_ EventIngester   = (*service.EventService)(nil)
	_ RuleManager     = (*service.RuleService)(nil)
	_ AlertReader     = (*service.AlertService)(nil)
	_ DetectionRunner = (*detect.Runner)(nil)
	_ IncidentManager = (*service.IncidentService)(nil)
	_ EvidenceReader  = (*storage.SQLiteEvidenceStorage)(nil)
	_ ReportRenderer  = (*service.ReportService)(nil)
	_ Importer        = (*service.ImportService)(nil)
)
