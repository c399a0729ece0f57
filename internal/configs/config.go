package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/sinks"
	"github.com/PolarWolf314/instivault/internal/utils"

	"github.com/google/uuid"
)

// Supported record store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type UserConfig struct {
	User   User         `toml:"user"`
	Store  StoreConfig  `toml:"store"`
	Sinks  SinksConfig  `toml:"sinks"`
	Backup BackupConfig `toml:"backup"`
}

type User struct {
	Email string `toml:"email"`
	UUID  string `toml:"user_uuid"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type SinksConfig struct {
	Email EmailSinkConfig `toml:"email"`
	S3    S3SinkConfig    `toml:"s3"`
}

type EmailSinkConfig struct {
	Endpoint  string `toml:"endpoint"`
	Recipient string `toml:"recipient"`
	Limit     int    `toml:"limit,omitempty"`
}

type S3SinkConfig struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix,omitempty"`
	Region string `toml:"region,omitempty"`
}

type BackupConfig struct {
	OutputDir   string `toml:"output_dir,omitempty"`
	DefaultSink string `toml:"default_sink,omitempty"`
}

// DefaultUserConfig returns the configuration used when no config file exists.
func DefaultUserConfig() *UserConfig {
	config := &UserConfig{}
	fillDefaults(config)
	return config
}

// LoadUserConfig loads the user configuration from the config file and
// applies environment overrides. A missing file is not an error.
func LoadUserConfig() (*UserConfig, error) {
	return loadUserConfig(true)
}

// LoadUserConfigFile loads the config file without environment overrides,
// for callers that save it back.
func LoadUserConfigFile() (*UserConfig, error) {
	return loadUserConfig(false)
}

func loadUserConfig(withEnv bool) (*UserConfig, error) {
	configPath := UserInstivaultSettings.ConfigFilePath()

	config := &UserConfig{}

	if err := LoadTOML(configPath, config); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if errors.Is(err, kerrors.ErrInvalidConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to load user config: %v", kerrors.ErrInvalidConfig, err)
	}

	if withEnv {
		applyEnv(config)
	}
	fillDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	if err := SaveTOML(UserInstivaultSettings.ConfigFilePath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// UserConfigExists reports whether a config file has been written.
func UserConfigExists() bool {
	_, err := os.Stat(UserInstivaultSettings.ConfigFilePath())
	return err == nil
}

// GenerateUserUUID generates a new UUID for the user.
func GenerateUserUUID() string {
	return uuid.New().String()
}

// EnsureUserConfig ensures the user configuration exists and has a UUID.
func EnsureUserConfig() (*UserConfig, error) {
	config, err := LoadUserConfigFile()
	if err != nil {
		return nil, err
	}

	if config.User.UUID == "" {
		config.User.UUID = GenerateUserUUID()
		if err := SaveUserConfig(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks the fields that would otherwise fail late and obscurely.
func (c *UserConfig) Validate() error {
	if c.User.Email != "" && !utils.IsValidEmail(c.User.Email) {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidEmail, c.User.Email)
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("%w: unsupported store driver %q", kerrors.ErrInvalidConfig, c.Store.Driver)
	}

	if c.Store.Driver == DriverMySQL && c.Store.DSN == "" {
		return fmt.Errorf("%w: mysql store needs a dsn", kerrors.ErrInvalidConfig)
	}

	if err := sinks.ValidateName(c.Backup.DefaultSink); err != nil {
		return fmt.Errorf("%w: default_sink: %v", kerrors.ErrInvalidConfig, err)
	}

	if c.Sinks.Email.Limit < 0 {
		return fmt.Errorf("%w: email limit must not be negative", kerrors.ErrInvalidConfig)
	}

	return nil
}

func fillDefaults(c *UserConfig) {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Driver == DriverSQLite && c.Store.DSN == "" {
		c.Store.DSN = UserInstivaultSettings.DefaultDatabasePath()
	}
	if c.Backup.DefaultSink == "" {
		c.Backup.DefaultSink = sinks.FileSinkName
	}
}
