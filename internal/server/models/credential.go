package models

// CredentialEntry is one stored credential. AccountLabel, Secret and Site are
// client-side ciphertext; the server never looks inside them.
//
// ID is assigned by the store on first insert and stays stable across
// overwrites.
type CredentialEntry struct {
	ID             string
	OwnerAccountID string
	AccountLabel   []byte
	Secret         []byte
	Site           []byte
}
