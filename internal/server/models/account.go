package models

// Account is a vault owner as kept by the account directory.
//
// OpenSessions is the number of clients currently holding the vault. It is
// 0 or 1 while clients behave; anything above 1 is a detectable error state.
type Account struct {
	ID             string
	Name           string
	PasswordDigest []byte
	AuthSalt       []byte
	KDFSalt        []byte
	OpenSessions   int64
}

// AccountParams is the public subset of an Account a client needs before it
// can derive its digest and vault key.
type AccountParams struct {
	AccountID string
	AuthSalt  []byte
	KDFSalt   []byte
}

// Params returns the public parameters of a.
func (a *Account) Params() *AccountParams {
	return &AccountParams{AccountID: a.ID, AuthSalt: a.AuthSalt, KDFSalt: a.KDFSalt}
}
