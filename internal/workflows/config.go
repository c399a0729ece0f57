package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/audit"
	"github.com/PolarWolf314/instivault/internal/configs"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/utils"
)

// ConfigInitOptions configures the config init workflow. Empty fields keep
// whatever the existing config has.
type ConfigInitOptions struct {
	Email     string
	Driver    string
	DSN       string
	OutputDir string
}

// ConfigInitResult contains the saved configuration.
type ConfigInitResult struct {
	Config *configs.UserConfig
	Path   string

	// Created is false when an existing config was updated.
	Created bool
}

// ConfigInit creates or updates the user config and assigns a user UUID.
//
// Returns ErrInvalidEmail if the email is malformed.
// Returns ErrInvalidConfig if the resulting config does not validate.
func ConfigInit(ctx context.Context, opts ConfigInitOptions) (*ConfigInitResult, error) {
	if opts.Email != "" && !utils.IsValidEmail(opts.Email) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrInvalidEmail, opts.Email)
	}

	created := !configs.UserConfigExists()

	userConfig, err := configs.LoadUserConfigFile()
	if err != nil {
		return nil, err
	}

	if opts.Email != "" {
		userConfig.User.Email = opts.Email
	}
	if opts.Driver != "" && opts.Driver != userConfig.Store.Driver {
		userConfig.Store.Driver = opts.Driver
		userConfig.Store.DSN = ""
	}
	if opts.DSN != "" {
		userConfig.Store.DSN = opts.DSN
	}
	if userConfig.Store.Driver == configs.DriverSQLite && userConfig.Store.DSN == "" {
		userConfig.Store.DSN = configs.UserInstivaultSettings.DefaultDatabasePath()
	}
	if opts.OutputDir != "" {
		userConfig.Backup.OutputDir = opts.OutputDir
	}
	if userConfig.User.UUID == "" {
		userConfig.User.UUID = configs.GenerateUserUUID()
	}

	if err := userConfig.Validate(); err != nil {
		return nil, err
	}

	if err := configs.SaveUserConfig(userConfig); err != nil {
		return nil, err
	}

	entry := audit.LogWithUser(audit.OpConfigInit, userConfig.User.Email)
	entry.UserUUID = userConfig.User.UUID
	audit.Log(entry)

	return &ConfigInitResult{
		Config:  userConfig,
		Path:    configs.UserInstivaultSettings.ConfigFilePath(),
		Created: created,
	}, nil
}

// ConfigShowResult is the effective configuration.
type ConfigShowResult struct {
	Config         *configs.UserConfig
	Path           string
	Exists         bool
	Identity       string
	IdentitySource configs.IdentitySource
}

// ConfigShow returns the effective configuration, including environment
// overrides and the resolved identity.
func ConfigShow(ctx context.Context) (*ConfigShowResult, error) {
	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return nil, err
	}

	identity, source := configs.ResolveIdentity(userConfig)

	return &ConfigShowResult{
		Config:         userConfig,
		Path:           configs.UserInstivaultSettings.ConfigFilePath(),
		Exists:         configs.UserConfigExists(),
		Identity:       identity,
		IdentitySource: source,
	}, nil
}
