// Package utils provides shared helpers for the instivault CLI.
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//   - GetHostname: returns the hostname recorded in audit entries
//
// # String Utilities
//
//   - IsValidEmail: checks the shape of an identity email
//   - DefaultBackupName: institute-backup-YYYY-MM-DD.enc
//   - HumanSize, FormatCounts: output formatting
//
// # I/O Utilities
//
//   - ReadInputFile: reads a backup from a path, or stdin for "-"
//   - ReadStdin: reads all data from standard input
//
// # Terminal Utilities
//
//   - IsTerminal, IsTTYAvailable: terminal detection
//   - ConfirmFromTTY: yes/no prompt that bypasses stdin
package utils
