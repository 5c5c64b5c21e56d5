package api

// Entry is one credential as the client sends and receives it. The three
// payload fields are ciphertext; the server never looks inside them.
type Entry struct {
	ID       string `json:"id,omitempty"`
	Account  []byte `json:"account"`
	Password []byte `json:"password"`
	Website  []byte `json:"website"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ResolveAccountRequest struct {
	AccountName string `json:"account_name"`
}

type ResolveAccountResponse struct {
	AccountID string `json:"account_id"`
	AuthSalt  []byte `json:"auth_salt"`
	KDFSalt   []byte `json:"kdf_salt"`
}

type RegisterRequest struct {
	AccountName    string `json:"account_name"`
	PasswordDigest []byte `json:"password_digest"`
	AuthSalt       []byte `json:"auth_salt"`
	KDFSalt        []byte `json:"kdf_salt"`
}

type RegisterResponse struct {
	AccountID string `json:"account_id"`
	Message   string `json:"message"`
}

type PullRequest struct {
	AccountName    string `json:"account_name"`
	PasswordDigest []byte `json:"password_digest"`
}

type PullResponse struct {
	AccountID    string   `json:"account_id"`
	SessionToken string   `json:"session_token"`
	Entries      []*Entry `json:"entries"`
}

// PushRequest must be sent with the session token from Pull in the
// session_token metadata header.
type PushRequest struct {
	AccountID string   `json:"account_id"`
	Entries   []*Entry `json:"entries"`
}

type PushResponse struct {
	Entries []*Entry `json:"entries"`
	Message string   `json:"message"`
}

type AbandonRequest struct {
	AccountID string `json:"account_id"`
}

type AbandonResponse struct {
	OpenSessions int64 `json:"open_sessions"`
}

type SessionStatusRequest struct {
	AccountID string `json:"account_id"`
}

// Session states reported by SessionStatus.
const (
	StateIdle      = "IDLE"
	StateHeld      = "HELD"
	StateContended = "CONTENDED"
)

type SessionStatusResponse struct {
	OpenSessions int64  `json:"open_sessions"`
	State        string `json:"state"`
}

// ReleaseRequest gives back a session using the account's credentials
// instead of a session token.
type ReleaseRequest struct {
	AccountName    string `json:"account_name"`
	PasswordDigest []byte `json:"password_digest"`
}

type ReleaseResponse struct {
	AccountID    string `json:"account_id"`
	OpenSessions int64  `json:"open_sessions"`
}

// AccountStatusRequest is SessionStatus for a client without a token.
type AccountStatusRequest struct {
	AccountName    string `json:"account_name"`
	PasswordDigest []byte `json:"password_digest"`
}

type AccountStatusResponse struct {
	AccountID    string `json:"account_id"`
	OpenSessions int64  `json:"open_sessions"`
	State        string `json:"state"`
}
