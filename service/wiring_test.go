package service

import (
	"workbench/report"
	"workbench/storage"
)

// Compile-time checks that the concrete storage types satisfy the consumer
// interfaces this package declares, so an interface drift breaks here
// instead of in the application wiring.
var (
	_ RuleStorage      = (*storage.SQLiteRuleStorage)(nil)
	_ EventStorage     = (*storage.SQLiteEventStorage)(nil)
	_ EventLookup      = (*storage.SQLiteEventStorage)(nil)
	_ EventBatchWriter = (*storage.SQLiteEventStorage)(nil)
	_ AlertStore       = (*storage.SQLiteAlertStorage)(nil)
	_ AlertStorage     = (*storage.SQLiteAlertStorage)(nil)
	_ IncidentStorage  = (*storage.SQLiteIncidentStorage)(nil)
	_ ActionStorage    = (*storage.SQLiteActionStorage)(nil)
	_ ImportJobStorage = (*storage.SQLiteImportStorage)(nil)

	_ PacketBuilder  = (*IncidentService)(nil)
	_ PacketExporter = (*report.Exporter)(nil)
)
