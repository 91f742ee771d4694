// Package app wires the convention engine into a runnable application:
// it builds the logger, owns a per-instance convention registry, and
// dispatches the CLI commands (summary, check, lookup, dryrun) over the
// document loaders, the name table, and the binding interceptor.
package app
