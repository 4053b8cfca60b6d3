// Package services defines shared utilities consumed by the orchestration
// engine and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, format names and step names
//     for logging.
//   - The error taxonomy (configuration, resource, lookup miss, execution)
//     plus the Wrap helper, so collaborator failures are reclassified at the
//     engine boundary instead of leaking engine-specific error types.
//   - ExecutionError and ExitCode, which carry external process failures up to
//     the CLI exit status.
package services
