// Package logging assembles structured slog loggers and formatting helpers used
// across blast.
//
// It owns the console/JSON handlers, writes a JSON copy of every record to the
// log file in the configured log directory, and exposes context-aware helpers
// so engine code can automatically tag log lines with the run identifier, the
// format being produced and the orchestration step. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
