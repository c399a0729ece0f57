package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/instivault/internal/utils"
)

const appDirName = "instivault"

type UserSettings struct {
	UserConfigsPath string
	UserDataPath    string
	Username        string
}

// UserInstivaultSettings holds the per-user paths resolved at startup.
var UserInstivaultSettings *UserSettings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = "unknown"
	}

	UserInstivaultSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, appDirName),
		UserDataPath:    filepath.Join(dataDir, appDirName),
		Username:        username,
	}
}

// ConfigFilePath returns the location of config.toml.
func (s *UserSettings) ConfigFilePath() string {
	return filepath.Join(s.UserConfigsPath, "config.toml")
}

// AuditLogPath returns the location of the JSON Lines audit trail.
func (s *UserSettings) AuditLogPath() string {
	return filepath.Join(s.UserDataPath, "audit.jsonl")
}

// DefaultDatabasePath returns where the SQLite record store lives unless configured otherwise.
func (s *UserSettings) DefaultDatabasePath() string {
	return filepath.Join(s.UserDataPath, "records.db")
}
