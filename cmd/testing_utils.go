// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up isolated user
// directories, capturing output, and running the CLI in-process.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/instivault/internal/configs"
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/spf13/cobra"
)

// setupTestEnvironment points config, audit and the record store at a fresh
// temp directory, changes into it and sets the identity. It returns the temp
// directory.
func setupTestEnvironment(t *testing.T, identity string) string {
	t.Helper()
	tempDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	originalUserSettings := configs.UserInstivaultSettings

	// Cleanup function to restore original state
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserInstivaultSettings = originalUserSettings
		ResetGlobalState()
		ResetRecordsState()
		ResetConfigState()
	})

	configs.UserInstivaultSettings = &configs.UserSettings{
		UserConfigsPath: filepath.Join(tempDir, "config"),
		UserDataPath:    filepath.Join(tempDir, "data"),
		Username:        "testuser",
	}

	t.Setenv(configs.EmailEnvVar, identity)
	t.Setenv(configs.StoreDriverEnvVar, "")
	t.Setenv(configs.StoreDSNEnvVar, filepath.Join(tempDir, "data", "records.db"))

	return tempDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	outputChan := make(chan string, 2)

	// Start goroutines to read from pipes
	for _, r := range []*os.File{stdoutReader, stderrReader} {
		go func(r *os.File) {
			var buf bytes.Buffer
			_, err := io.Copy(&buf, r)
			if err != nil {
				log.Fatalf("Failed to run copy command: %s", err)
			}
			outputChan <- buf.String()
		}(r)
	}

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	// Collect output
	first := <-outputChan
	second := <-outputChan

	return first + second, err
}

// createTestCLI creates a complete CLI instance for testing with the given arguments.
func createTestCLI(args []string) *cobra.Command {
	ResetGlobalState()
	ResetRecordsState()
	ResetConfigState()

	Logger = logger.Logger{}
	RecordsLogger = logger.Logger{}
	ConfigLogger = logger.Logger{}

	rootCmd := &cobra.Command{
		Use:           "instivault",
		Short:         "instivault - encrypted backups for your institute records.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(BackupCmd)
	rootCmd.AddCommand(RecordsCmd)
	rootCmd.AddCommand(ConfigCmd)

	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs the CLI in-process and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(args).Execute()
	})
}
