package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Throttling errors
	ErrCodeRateLimited = "RATE_LIMITED"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type codeInfo struct {
	status  int
	message string
}

// codes holds the HTTP status and fallback message of every error code.
var codes = map[string]codeInfo{
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "Authentication required"},
	ErrCodeTokenExpired:       {http.StatusUnauthorized, "Token expired"},
	ErrCodeForbidden:          {http.StatusForbidden, "Access denied"},
	ErrCodeInvalidInput:       {http.StatusBadRequest, "Invalid request"},
	ErrCodeNotFound:           {http.StatusNotFound, "Resource not found"},
	ErrCodeConflict:           {http.StatusConflict, "Resource conflict"},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, "Too many requests"},
	ErrCodeInternalError:      {http.StatusInternalServerError, "Internal server error"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Status returns the HTTP status sent for code. Unknown codes are server errors.
func Status(code string) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// New builds the envelope for code, falling back to the code's default
// message when message is empty.
func New(code, message string) *APIError {
	if message == "" {
		message = codes[code].message
	}
	return &APIError{Code: code, Message: message}
}

// Respond writes the error envelope for code with its HTTP status.
func Respond(c *gin.Context, code, message string) {
	c.JSON(Status(code), New(code, message))
}

// Abort responds like Respond and stops the remaining handlers of the chain.
func Abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(Status(code), New(code, message))
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	Respond(c, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	Respond(c, ErrCodeForbidden, message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	Respond(c, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	Respond(c, ErrCodeInvalidInput, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	Respond(c, ErrCodeConflict, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	Respond(c, ErrCodeInternalError, message)
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	Respond(c, ErrCodeServiceUnavailable, message)
}
