package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/utils"
)

// Operation names recorded in the log.
const (
	OpBackup       = "backup"
	OpRestore      = "restore"
	OpRecordAdd    = "records.add"
	OpRecordUpdate = "records.update"
	OpRecordRemove = "records.remove"
	OpConfigInit   = "config.init"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Identity the operation ran as.
	UserUUID  string `json:"uuid,omitempty"`
	Host      string `json:"host,omitempty"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	BackupID   string         `json:"backup_id,omitempty"`  // For backup/restore.
	Sink       string         `json:"sink,omitempty"`       // For backup.
	Location   string         `json:"location,omitempty"`   // For backup.
	Counts     map[string]int `json:"counts,omitempty"`     // For backup/restore.
	Failed     []string       `json:"failed,omitempty"`     // For partial restores.
	DryRun     bool           `json:"dry_run,omitempty"`    // For restore.
	Collection string         `json:"collection,omitempty"` // For records.*.
	RecordID   string         `json:"record_id,omitempty"`  // For records.*.
	Error      string         `json:"error,omitempty"`
}

// Log appends an entry to the audit log.
// Operations should not fail just because audit logging failed, so errors
// are dropped.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser returns an entry for op with the identity, the user UUID from
// config (if any) and the hostname filled in.
func LogWithUser(op, identity string) Entry {
	entry := Entry{
		Operation: op,
		User:      identity,
		Host:      utils.GetHostname(),
	}

	if userConfig, err := configs.LoadUserConfig(); err == nil {
		entry.UserUUID = userConfig.User.UUID
	}

	return entry
}

// LogPath returns the path to the audit log file.
func LogPath() string {
	return configs.UserInstivaultSettings.AuditLogPath()
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(LogPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are skipped; they are usually a partial write.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// Filter keeps entries matching op (if set) and at or after since (if non-zero).
func Filter(entries []Entry, op string, since time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if op != "" && e.Operation != op {
			continue
		}
		if !since.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
			if err != nil || ts.Before(since) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
