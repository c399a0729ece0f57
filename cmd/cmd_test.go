package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PolarWolf314/instivault/internal/configs"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdmin = "admin@x.com"
	testOther = "other@y.com"
)

func addTestRecords(t *testing.T) {
	t.Helper()
	for _, args := range [][]string{
		{"records", "add", "students", "--data", `{"id":"s1","name":"Asha"}`},
		{"records", "add", "students", "--data", `{"id":"s2","name":"Ravi"}`},
		{"records", "add", "payments", "--data", `{"id":"p1","studentId":"s1","amount":1500}`},
	} {
		output, err := runCLI(t, args...)
		require.NoError(t, err, output)
		require.Contains(t, output, "Added "+args[2]+"/")
	}
}

func TestBackupCreateAndRestore(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	backupPath := filepath.Join(tempDir, "out.enc")
	output, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "Backup created for")
	assert.Contains(t, output, "payments: 1")
	assert.Contains(t, output, "students: 2")

	info, err := os.Stat(backupPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	output, err = runCLI(t, "records", "remove", "students", "s1")
	require.NoError(t, err, output)

	output, err = runCLI(t, "backup", "restore", backupPath, "--yes")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Backup restored for")
	assert.Contains(t, output, "Written:")

	output, err = runCLI(t, "records", "list", "students")
	require.NoError(t, err, output)
	assert.Contains(t, output, "s1")
	assert.Contains(t, output, `"name":"Asha"`)
	assert.Contains(t, output, "2 records")
}

func TestBackupCreateDefaultName(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)

	output, err := runCLI(t, "backup", "create")
	require.NoError(t, err, output)
	assert.Contains(t, output, "the backup is empty")

	_, err = os.Stat(filepath.Join(tempDir, utils.DefaultBackupName(time.Now())))
	assert.NoError(t, err)
}

func TestBackupRestoreWrongIdentity(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	backupPath := filepath.Join(tempDir, "out.enc")
	output, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err, output)

	t.Setenv(configs.EmailEnvVar, testOther)
	output, err = runCLI(t, "backup", "restore", backupPath, "--yes")
	require.Error(t, err, output)
	assert.ErrorIs(t, err, kerrors.ErrAccessDenied)
	assert.Contains(t, output, "Access Denied. Authentication mismatch")

	output, err = runCLI(t, "records", "list", "students")
	require.NoError(t, err, output)
	assert.Contains(t, output, "No students records")
}

func TestBackupRestoreDryRun(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	backupPath := filepath.Join(tempDir, "out.enc")
	_, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err)

	_, err = runCLI(t, "records", "remove", "payments", "p1")
	require.NoError(t, err)

	output, err := runCLI(t, "backup", "restore", "--dry-run", backupPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "Backup decrypted and verified")
	assert.Contains(t, output, "Nothing was written")

	output, err = runCLI(t, "records", "list", "payments")
	require.NoError(t, err, output)
	assert.Contains(t, output, "No payments records")
}

func TestBackupRestoreMalformed(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)

	path := filepath.Join(tempDir, "junk.enc")
	require.NoError(t, os.WriteFile(path, []byte("not a backup"), 0600))

	output, err := runCLI(t, "backup", "restore", path, "--yes")
	require.Error(t, err, output)
	assert.ErrorIs(t, err, kerrors.ErrInvalidFormat)
	assert.Contains(t, output, "Invalid file format")

	output, err = runCLI(t, "backup", "restore", filepath.Join(tempDir, "missing.enc"), "--yes")
	require.Error(t, err, output)
	assert.ErrorIs(t, err, kerrors.ErrFileNotFound)
	assert.Contains(t, output, "file not found")
}

func TestBackupRestoreRequiresConfirmation(t *testing.T) {
	if utils.IsTTYAvailable() {
		t.Skip("a terminal is available; the command would prompt")
	}
	tempDir := setupTestEnvironment(t, testAdmin)

	backupPath := filepath.Join(tempDir, "out.enc")
	_, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err)

	_, err = runCLI(t, "backup", "restore", backupPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestBackupCreateRefusesOverwrite(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)

	backupPath := filepath.Join(tempDir, "out.enc")
	_, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err)

	output, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "file already exists")

	output, err = runCLI(t, "backup", "create", "--output", backupPath, "--force")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Backup created for")
}

func TestBackupCreateUnknownSink(t *testing.T) {
	setupTestEnvironment(t, testAdmin)

	output, err := runCLI(t, "backup", "create", "--sink", "fax")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Supported sinks: file, email, s3")
}

func TestBackupCreateEmailSink(t *testing.T) {
	setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	var hits int32
	received := make(chan map[string]string, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, _ := io.ReadAll(r.Body)
		var msg map[string]string
		_ = json.Unmarshal(body, &msg)
		received <- msg
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	config := configs.DefaultUserConfig()
	config.Sinks.Email.Endpoint = server.URL
	config.Sinks.Email.Recipient = "office@institute.edu"
	require.NoError(t, configs.SaveUserConfig(config))

	output, err := runCLI(t, "backup", "create", "--sink", "email")
	require.NoError(t, err, output)
	assert.Contains(t, output, "office@institute.edu")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	got := <-received
	assert.Equal(t, "office@institute.edu", got["to"])
	assert.Contains(t, got["attachment"], `"cipherText"`)

	config.Sinks.Email.Limit = 100
	require.NoError(t, configs.SaveUserConfig(config))

	output, err = runCLI(t, "backup", "create", "--sink", "email")
	require.NoError(t, err, output)
	assert.Contains(t, output, "too large for the email sink")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "oversized backups never reach the relay")
}

func TestBackupInspect(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)

	backupPath := filepath.Join(tempDir, "out.enc")
	_, err := runCLI(t, "backup", "create", "--output", backupPath)
	require.NoError(t, err)

	output, err := runCLI(t, "backup", "inspect", backupPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "is an instivault backup")
	assert.Contains(t, output, testAdmin)
	assert.Contains(t, output, "16 bytes")
	assert.Contains(t, output, "12 bytes")
	assert.Contains(t, output, "looks like yours")

	t.Setenv(configs.EmailEnvVar, testOther)
	output, err = runCLI(t, "backup", "inspect", backupPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "restoring it will likely fail")
}

func TestBackupStatus(t *testing.T) {
	setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	output, err := runCLI(t, "backup", "status")
	require.NoError(t, err, output)
	assert.Contains(t, output, testAdmin)
	assert.Contains(t, output, "staffAttendance")
	assert.Contains(t, output, "total")

	t.Setenv(configs.EmailEnvVar, "")
	output, err = runCLI(t, "backup", "status")
	require.NoError(t, err, output)
	assert.Contains(t, output, configs.DefaultIdentity)
	assert.Contains(t, output, "No email configured")
}

func TestBackupLog(t *testing.T) {
	tempDir := setupTestEnvironment(t, testAdmin)

	output, err := runCLI(t, "backup", "log")
	require.NoError(t, err, output)
	assert.Contains(t, output, "No audit log found")

	addTestRecords(t)
	_, err = runCLI(t, "backup", "create", "--output", filepath.Join(tempDir, "out.enc"))
	require.NoError(t, err)

	output, err = runCLI(t, "backup", "log", "--oneline")
	require.NoError(t, err, output)
	assert.Equal(t, 3, strings.Count(output, "records.add"))
	assert.Contains(t, output, "backup")

	output, err = runCLI(t, "backup", "log", "--json", "--operation", "backup")
	require.NoError(t, err, output)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "file", entries[0]["sink"])
	assert.Equal(t, testAdmin, entries[0]["user"])

	output, err = runCLI(t, "backup", "log", "--since", "yesterday")
	require.NoError(t, err, output)
	assert.Contains(t, output, "invalid date format")
}

func TestRecords(t *testing.T) {
	setupTestEnvironment(t, testAdmin)
	addTestRecords(t)

	output, err := runCLI(t, "records", "update", "students", "s2", "--data", `{"status":"active"}`)
	require.NoError(t, err, output)
	assert.Contains(t, output, "Updated students/")

	output, err = runCLI(t, "records", "list", "students", "--id", "s2", "--json")
	require.NoError(t, err, output)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "active", recs[0]["status"])
	assert.Equal(t, testAdmin, recs[0]["ownerEmail"])

	output, err = runCLI(t, "records", "add", "students", "--data", `not json`)
	require.NoError(t, err, output)
	assert.Contains(t, output, "invalid record")

	output, err = runCLI(t, "records", "remove", "students", "nobody")
	require.NoError(t, err, output)
	assert.Contains(t, output, "No record")

	_, err = runCLI(t, "records", "list", "alumni")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection")

	t.Setenv(configs.EmailEnvVar, testOther)
	output, err = runCLI(t, "records", "list", "students")
	require.NoError(t, err, output)
	assert.Contains(t, output, "No students records")
}

func TestConfigInitAndShow(t *testing.T) {
	setupTestEnvironment(t, "")

	output, err := runCLI(t, "config", "init", "--email", "not-an-email")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Invalid email format")
	assert.False(t, configs.UserConfigExists())

	output, err = runCLI(t, "config", "init", "--email", "dean@institute.edu", "--output-dir", "backups")
	require.NoError(t, err, output)
	assert.Contains(t, output, "User configuration saved to")
	assert.True(t, configs.UserConfigExists())

	output, err = runCLI(t, "config", "show", "--json")
	require.NoError(t, err, output)
	var shown struct {
		Exists         bool   `json:"exists"`
		Identity       string `json:"identity"`
		IdentitySource string `json:"identity_source"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &shown))
	assert.True(t, shown.Exists)
	assert.Equal(t, "dean@institute.edu", shown.Identity)
	assert.Equal(t, string(configs.IdentityFromConfig), shown.IdentitySource)

	output, err = runCLI(t, "config", "init", "--driver", "mysql")
	require.NoError(t, err, output)
	assert.Contains(t, output, "mysql store needs a dsn")
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		want   string
	}{
		{"sqlite path unchanged", "sqlite", "/var/lib/instivault/records.db", "/var/lib/instivault/records.db"},
		{"mysql password masked", "mysql", "app:secret@tcp(db:3306)/dashboard", "app:****@tcp(db:3306)/dashboard"},
		{"mysql without password", "mysql", "app@tcp(db:3306)/dashboard", "app@tcp(db:3306)/dashboard"},
		{"empty", "mysql", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactDSN(tt.driver, tt.dsn)
			if got != tt.want {
				t.Errorf("redactDSN(%q, %q) = %q, want %q", tt.driver, tt.dsn, got, tt.want)
			}
		})
	}
}
