// Package audit records backups, restores and record edits.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	$XDG_DATA_HOME/instivault/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Identity, user UUID and hostname
//   - Operation name (backup, restore, records.add, ...)
//   - Operation-specific details (backup id, sink, counts, failed collections)
//
// Entries never contain record contents or key material.
//
// # Usage
//
//	entry := audit.LogWithUser(audit.OpBackup, identity)
//	entry.BackupID = payload.Metadata.BackupID
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
package audit
