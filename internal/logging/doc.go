// Package logging provides structured logging for bacli.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the device client, scanner and upgrade workflow.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Request/response details, per-address probe failures, poll attempts
//   - Info: Upgrade phase transitions, scan summaries
//   - Warn: Non-fatal issues (device still rebooting, skipped entries)
//   - Error: Failures surfaced to the user
//
// # Configuration
//
// Logging is silent unless a level is given, either with --log-level or the
// BACLI_LOG_LEVEL environment variable. This keeps command output (tables,
// JSON) clean for scripting:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Log output goes to stderr in console format.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// are expected to run once, before any goroutines start.
package logging
