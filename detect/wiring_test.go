package detect

import "workbench/storage"

// Compile-time checks that the SQLite storages satisfy the runner's
// interfaces the way the server and CLI wire them.
var (
	_ RuleSource  = (*storage.SQLiteRuleStorage)(nil)
	_ EventSource = (*storage.SQLiteEventStorage)(nil)
	_ AlertSink   = (*storage.SQLiteAlertStorage)(nil)
)
