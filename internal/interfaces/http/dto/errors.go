package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>

const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAuth is used when the upstream system rejected the login
	ErrCodeAuth = "ERR_AUTH"
	// ErrCodeNoData is used when neither upstream nor cache had data
	ErrCodeNoData = "ERR_NO_DATA"
	// ErrCodeUpstreamStatus is used when upstream reported a failed run
	ErrCodeUpstreamStatus = "ERR_UPSTREAM_STATUS"
	// ErrCodeUpstreamSchema is used when an upstream payload was malformed
	ErrCodeUpstreamSchema = "ERR_UPSTREAM_SCHEMA"
	// ErrCodeConfig is used when configuration or secrets are missing
	ErrCodeConfig = "ERR_CONFIG"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Consumers
// treat anything but bad input or an unknown route as a server-side
// failure, so upstream trouble maps to 500 rather than leaking the
// upstream topology.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAuth:           http.StatusInternalServerError,
	ErrCodeNoData:         http.StatusInternalServerError,
	ErrCodeUpstreamStatus: http.StatusInternalServerError,
	ErrCodeUpstreamSchema: http.StatusInternalServerError,
	ErrCodeConfig:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code,
// defaulting to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
