package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest       ErrorCode = "bad_request"
	errCodeNotFound         ErrorCode = "not_found"
	errCodeValidationFailed ErrorCode = "validation_failed"
	errCodeUnauthorized     ErrorCode = "unauthorized"
	errCodeForbidden        ErrorCode = "forbidden"
	errCodeConflict         ErrorCode = "conflict"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
	errCodeLedgerError   ErrorCode = "ledger_error"
	errCodeTimeout       ErrorCode = "timeout"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondDomainError maps the ledger error taxonomy onto HTTP statuses
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAbsent):
		respondNotFound(c, "Entity not found")
	case errors.Is(err, domain.ErrNotSignedIn):
		respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "A signer is required for this operation")
	case errors.Is(err, domain.ErrNotAuthorized):
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Not authorized", err.Error())
	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrProfileExists),
		errors.Is(err, domain.ErrInactive),
		errors.Is(err, domain.ErrSoldOut):
		respondWithError(c, http.StatusConflict, errCodeConflict, "Precondition failed", err.Error())
	case errors.Is(err, domain.ErrReverted):
		respondWithError(c, http.StatusConflict, errCodeConflict, "Transaction reverted", err.Error())
	case errors.Is(err, domain.ErrRejected):
		respondBadRequest(c, "Transaction rejected", err.Error())
	case errors.Is(err, domain.ErrTimeout):
		respondWithError(c, http.StatusGatewayTimeout, errCodeTimeout, "Ledger call timed out")
	case errors.Is(err, domain.ErrUnreachable):
		respondWithError(c, http.StatusBadGateway, errCodeLedgerError, "Ledger unreachable")
	default:
		respondInternalError(c, err, "Unexpected error")
	}
}
