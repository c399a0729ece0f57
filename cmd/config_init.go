package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PolarWolf314/instivault/internal/configs"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	configInitEmail     string
	configInitDriver    string
	configInitDSN       string
	configInitOutputDir string
)

func init() {
	configInitCmd.Flags().StringVarP(&configInitEmail, "email", "e", "", "your email address; backups are locked to it")
	configInitCmd.Flags().StringVar(&configInitDriver, "driver", "", "record store driver: sqlite or mysql")
	configInitCmd.Flags().StringVar(&configInitDSN, "dsn", "", "record store data source name")
	configInitCmd.Flags().StringVar(&configInitOutputDir, "output-dir", "", "directory the file sink writes backups to")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitEmail = ""
	configInitDriver = ""
	configInitDSN = ""
	configInitOutputDir = ""
}

// promptForInput prompts the user for input with an optional default value.
func promptForInput(reader *bufio.Reader, prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" && defaultValue != "" {
		return defaultValue, nil
	}
	return input, nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Set your email and record store",
	Long: `Creates or updates your user configuration at ~/.config/instivault/config.toml.

Without flags the command prompts for your email. Backups you create are
locked to it and can only be restored with the same email, so use the
address you will keep.

Examples:
  # Interactive setup
  instivault config init

  # Non-interactive setup
  instivault config init --email admin@institute.edu

  # Write file backups to a shared drive
  instivault config init --output-dir /mnt/backups`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		email := configInitEmail
		noFlags := configInitEmail == "" && configInitDriver == "" && configInitDSN == "" && configInitOutputDir == ""
		if noFlags {
			if !utils.IsTerminal() {
				fmt.Println(ui.Error.Sprint("✗") + " No terminal to prompt on\n" +
					ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--email") + " to set up without prompts")
				return nil
			}

			existing, err := configs.LoadUserConfigFile()
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
			}

			fmt.Println(ui.Info.Sprint("Welcome to instivault!") + " Let's set up your identity.")
			fmt.Println()

			email, err = promptForInput(bufio.NewReader(os.Stdin), "Email address", existing.User.Email)
			if err != nil {
				return err
			}
			if email == "" {
				fmt.Println(ui.Error.Sprint("✗") + " An email address is required")
				return nil
			}
		}

		result, err := workflows.ConfigInit(context.Background(), workflows.ConfigInitOptions{
			Email:     email,
			Driver:    configInitDriver,
			DSN:       configInitDSN,
			OutputDir: configInitOutputDir,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrInvalidEmail):
				fmt.Println(ui.Error.Sprint("✗") + " Invalid email format: " + ui.Highlight.Sprint(email))
				return nil
			case errors.Is(err, kerrors.ErrInvalidConfig):
				fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
				return nil
			}
			return ConfigLogger.ErrorfAndReturn("Failed to save user config: %v", err)
		}

		verb := "updated"
		if result.Created {
			verb = "saved to"
		}
		fmt.Println(ui.Success.Sprint("✓") + " User configuration " + verb + " " + ui.Path.Sprint(result.Path))
		fmt.Println()
		printUserConfig(result.Config)

		if identity, source := configs.ResolveIdentity(result.Config); source == configs.IdentityFromEnv {
			fmt.Println()
			fmt.Println(ui.Warning.Sprint("⚠") + " " + ui.Code.Sprint(configs.EmailEnvVar) +
				" is set, so this shell still uses " + ui.Highlight.Sprint(identity))
		}
		return nil
	},
}

func printUserConfig(config *configs.UserConfig) {
	fmt.Println("Your settings:")
	fmt.Println("  Email:   " + ui.Highlight.Sprint(valueOrNone(config.User.Email)))
	fmt.Println("  User ID: " + ui.Muted.Sprint(config.User.UUID))
	fmt.Println("  Store:   " + config.Store.Driver + " " + ui.Path.Sprint(redactDSN(config.Store.Driver, config.Store.DSN)))
	if config.Backup.OutputDir != "" {
		fmt.Println("  Output:  " + ui.Path.Sprint(config.Backup.OutputDir))
	}
	fmt.Println("  Sink:    " + config.Backup.DefaultSink)
}
