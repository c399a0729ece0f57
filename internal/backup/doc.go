// Package backup packages institute records into encrypted, portable backup
// files and restores them.
//
// # File Format
//
// A backup is a JSON envelope:
//
//	{"version":1,"salt":"...","iv":"...","cipherText":"...","info":"Locked to: admin@example.com"}
//
// salt (16 bytes), iv (12 bytes) and cipherText are standard base64. info is
// for humans; restore ignores it. Files use the .enc extension. Envelopes
// without a version field are read as version 1.
//
// Inside cipherText is a Payload: metadata (app, timestamp, lockedTo) plus a
// map of collection name to records.
//
// # Creating Backups
//
// Packager.CreateBackup derives a key from the identity and a fresh salt,
// seals the payload and returns the envelope. Packager.Export does the same
// for everything the identity owns in the record store. Neither writes
// anywhere; the caller hands Envelope.Marshal output to a sink, checking
// CheckSize first when the sink has a limit.
//
// # Restoring
//
// Unarchiver.Restore re-derives the key from the current identity and the
// stored salt. A backup made by someone else fails with ErrAccessDenied
// before anything is written. On success every record is re-stamped with
// the current identity and each collection is upserted on its own.
//
// Restore is not atomic across collections: if one collection fails, the
// others are still written and nothing is rolled back. Check
// RestoreResult.Err.
package backup
