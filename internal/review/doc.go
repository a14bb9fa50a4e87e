// Package review defines the domain model for an automated security
// review: todos planned for the run, the append-only ledger tracking
// their resolution, findings emitted by worker agents, and the terminal
// report assembled when the run completes.
package review
