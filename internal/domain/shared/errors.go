package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrAuthUnavailable     = NewDomainError("AUTH_UNAVAILABLE", "Unable to obtain an access token")
	ErrRateLimited         = NewDomainError("RATE_LIMITED", "Request was rate limited by the remote service")
	ErrUnknownFolderState  = NewDomainError("UNKNOWN_FOLDER_STATE", "Folder existence could not be determined")
	ErrMissingMasterFolder = NewDomainError("MISSING_MASTER_FOLDER", "Master project folder does not exist")
	ErrMissingFallbackRule = NewDomainError("MISSING_FALLBACK_RULE", "Template rule table has no fallback entry")
)
