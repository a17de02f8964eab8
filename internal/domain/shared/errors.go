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
	ErrAuth           = NewDomainError("ERR_AUTH", "Upstream login rejected or returned no token")
	ErrNotFound       = NewDomainError("ERR_NOT_FOUND", "Resource not found")
	ErrNoData         = NewDomainError("ERR_NO_DATA", "No usable data from upstream or cache")
	ErrUpstreamStatus = NewDomainError("ERR_UPSTREAM_STATUS", "Upstream reported an unsuccessful execution result")
	ErrUpstreamSchema = NewDomainError("ERR_UPSTREAM_SCHEMA", "Upstream response did not match the expected shape")
	ErrConfig         = NewDomainError("ERR_CONFIG", "Missing or invalid configuration")
	ErrInvalidInput   = NewDomainError("ERR_BAD_REQUEST", "Invalid input provided")
)
