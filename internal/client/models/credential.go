package models

// Credential is one vault entry in the clear, as the CLI shows it. It only
// exists on the client; the server stores each field sealed.
type Credential struct {
	ID       string
	Account  string
	Password string
	Website  string
}
