package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/instivault/cmd"
	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "instivault",
	Short: "instivault - encrypted backups for your institute records.",
	Long: `instivault exports the records you own from the institute dashboard into a
single encrypted file and restores them later.

Backups are locked to your email. Anyone can hold the file, but only the same
email can open it.

Usage:
  instivault <command> [flags]

Available Commands:
  backup     Create, restore and inspect backups
  records    Work with the records you own
  config     Manage your email and record store

Run 'instivault help <command>' for more details on a specific command.
`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if !color.NoColor {
			figure.NewColorFigure("instivault", "small", "cyan", true).Print()
			fmt.Println()
		}
		fmt.Println("Welcome to instivault! Run 'instivault --help' to see available commands.")
	},
}

func init() {
	rootCmd.AddCommand(cmd.BackupCmd)
	rootCmd.AddCommand(cmd.RecordsCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
}

func main() {
	if err := configs.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, ui.Warning.Sprint("⚠")+" Ignoring .env: "+err.Error())
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
