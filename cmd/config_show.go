package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the configuration instivault runs with, including environment
overrides, and which email backups are locked to.

Store passwords are masked.

Examples:
  instivault config show
  instivault config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		result, err := workflows.ConfigShow(context.Background())
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
		}
		ConfigLogger.Debugf("Loaded config from %s (exists: %t)", result.Path, result.Exists)

		shown := *result.Config
		shown.Store.DSN = redactDSN(shown.Store.Driver, shown.Store.DSN)

		if configShowJSON {
			output, err := json.MarshalIndent(struct {
				Path           string              `json:"path"`
				Exists         bool                `json:"exists"`
				Identity       string              `json:"identity"`
				IdentitySource string              `json:"identity_source"`
				Config         *configs.UserConfig `json:"config"`
			}{result.Path, result.Exists, result.Identity, string(result.IdentitySource), &shown}, "", "  ")
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		if !result.Exists {
			fmt.Println(ui.Warning.Sprint("⚠") + " No user configuration found, using defaults")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("instivault config init") + " to set up your identity")
			fmt.Println()
		} else {
			fmt.Println(ui.Info.Sprint("User Configuration") + " " + ui.Muted.Sprint(result.Path))
			fmt.Println()
		}

		printUserConfig(&shown)
		if shown.Sinks.Email.Endpoint != "" {
			fmt.Println("  Email:   " + shown.Sinks.Email.Recipient + " via " + ui.Path.Sprint(shown.Sinks.Email.Endpoint))
		}
		if shown.Sinks.S3.Bucket != "" {
			fmt.Println("  S3:      " + ui.Path.Sprint("s3://"+shown.Sinks.S3.Bucket+"/"+shown.Sinks.S3.Prefix))
		}

		fmt.Println()
		fmt.Println("Backups are locked to " + ui.Highlight.Sprint(result.Identity) + " " +
			ui.Muted.Sprint("from "+string(result.IdentitySource)))
		return nil
	},
}

// redactDSN masks the password in a MySQL DSN. Other drivers are returned unchanged.
func redactDSN(driver, dsn string) string {
	if driver != configs.DriverMySQL || dsn == "" {
		return dsn
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "(unparseable dsn)"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "****"
	}
	return cfg.FormatDSN()
}
