package configs

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml.
const (
	EmailEnvVar       = "INSTIVAULT_EMAIL"
	StoreDriverEnvVar = "INSTIVAULT_STORE_DRIVER"
	StoreDSNEnvVar    = "INSTIVAULT_STORE_DSN"
)

// DefaultIdentity is used when no email is configured anywhere. Backups made
// under it can be restored by anyone who also has no email configured.
const DefaultIdentity = "guest@instivault.local"

// IdentitySource says where ResolveIdentity found the identity.
type IdentitySource string

const (
	IdentityFromEnv      IdentitySource = "environment"
	IdentityFromConfig   IdentitySource = "config"
	IdentityFromFallback IdentitySource = "fallback"
)

// LoadDotEnv loads variables from path into the process environment without
// overriding ones that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ResolveIdentity returns the email that backups are locked to: the
// INSTIVAULT_EMAIL environment variable, then [user].email, then
// DefaultIdentity.
func ResolveIdentity(config *UserConfig) (string, IdentitySource) {
	if email := strings.TrimSpace(os.Getenv(EmailEnvVar)); email != "" {
		return email, IdentityFromEnv
	}
	if config != nil && config.User.Email != "" {
		return config.User.Email, IdentityFromConfig
	}
	return DefaultIdentity, IdentityFromFallback
}

func applyEnv(c *UserConfig) {
	if v := os.Getenv(StoreDriverEnvVar); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(StoreDSNEnvVar); v != "" {
		c.Store.DSN = v
	}
}
