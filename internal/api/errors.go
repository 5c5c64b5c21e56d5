package api

import "github.com/dmitrijs2005/pmcloud/internal/common"

// ErrorInfo reasons attached to every failed call.
const (
	ReasonNotFound               = "NOT_FOUND"
	ReasonConflict               = "CONFLICT"
	ReasonUnauthorized           = "UNAUTHORIZED"
	ReasonInvalidToken           = "INVALID_TOKEN"
	ReasonBusy                   = "BUSY"
	ReasonNoActiveSession        = "NO_ACTIVE_SESSION"
	ReasonMultipleActiveSessions = "MULTIPLE_ACTIVE_SESSIONS"
	ReasonValidation             = "VALIDATION"
	ReasonBackendUnavailable     = "BACKEND_UNAVAILABLE"
	ReasonRateLimited            = "RATE_LIMITED"
	ReasonInternal               = "INTERNAL"
)

var reasonErrors = map[string]error{
	ReasonNotFound:               common.ErrorNotFound,
	ReasonConflict:               common.ErrorConflict,
	ReasonUnauthorized:           common.ErrorUnauthorized,
	ReasonInvalidToken:           common.ErrInvalidToken,
	ReasonBusy:                   common.ErrorBusy,
	ReasonNoActiveSession:        common.ErrNoActiveSession,
	ReasonMultipleActiveSessions: common.ErrMultipleActiveSessions,
	ReasonValidation:             common.ErrorValidation,
	ReasonBackendUnavailable:     common.ErrorBackendUnavailable,
	ReasonRateLimited:            common.ErrRateLimited,
}

// ErrorForReason returns the sentinel a reason stands for, or nil.
func ErrorForReason(reason string) error {
	return reasonErrors[reason]
}
