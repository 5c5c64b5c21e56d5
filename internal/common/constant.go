package common

// SessionTokenHeaderName is the gRPC metadata key carrying the session token
// issued by Pull.
const SessionTokenHeaderName = "session_token"

// ErrorDomain is the ErrorInfo domain attached to every RPC error.
const ErrorDomain = "pmcloud"
