// Package client contains the client-side building blocks of the pmcloud CLI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the vault
//     service: ResolveAccount, Register, Pull, Push, Abandon, SessionStatus
//     and Ping.
//  2. A gRPC implementation (see GRPCClient) that bounds every call with a
//     timeout, attaches the session token where one is needed, and turns
//     status errors back into the sentinel errors of internal/common.
//  3. Local state bootstrap (InitDatabase, RunMigrations): an SQLite file
//     with embedded goose migrations.
//
// # Error Handling
//
// Server errors carry an ErrorInfo reason and come back as the matching
// common sentinel (common.ErrorBusy, common.ErrNoActiveSession, ...), so
// callers match them with errors.Is. A server that cannot be reached yields
// ErrUnavailable.
package client
