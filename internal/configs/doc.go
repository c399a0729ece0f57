// Package configs manages user configuration and identity for instivault.
//
// Configuration is stored in TOML at $XDG_CONFIG_HOME/instivault/config.toml:
//
//	[user]
//	email = "admin@example.com"
//
//	[store]
//	driver = "sqlite"           # or "mysql"
//	dsn = "/home/me/.local/share/instivault/records.db"
//
//	[sinks.email]
//	endpoint = "https://relay.example.com/send"
//	recipient = "admin@example.com"
//
//	[sinks.s3]
//	bucket = "institute-backups"
//	region = "ap-south-1"
//
//	[backup]
//	output_dir = "/home/me/backups"
//
// A missing file yields DefaultUserConfig. Unknown keys are rejected.
//
// # Identity
//
// Every backup is locked to an email address. ResolveIdentity checks the
// INSTIVAULT_EMAIL environment variable first (a .env file in the working
// directory is loaded by the CLI at startup), then [user].email, then falls
// back to DefaultIdentity.
//
// # Settings
//
// UserInstivaultSettings is initialized at startup with the config and data
// directories. The data directory holds the SQLite database and the audit log.
package configs
