// Package cli is the pmcloud command-line client.
//
// Each subcommand is one round with the server: register creates an account,
// list and add pull the vault, do their work and abandon the session before
// exiting. If a command dies while holding the vault, the session it saved
// locally is given back with release; status shows what the server thinks.
package cli
