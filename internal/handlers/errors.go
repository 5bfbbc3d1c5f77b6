package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorKind int

const (
	errInvalidInput errorKind = iota
	errUnauthenticated
	errUnauthorized
	errNotFound
	errConflict
)

// apiError carries a failure kind alongside the caller-facing message. The
// kind-to-status mapping lives in httpStatus; handlers never pick status
// codes inline.
type apiError struct {
	kind    errorKind
	message string
}

func (e apiError) Error() string { return e.message }

func invalidInput(message string) apiError {
	return apiError{kind: errInvalidInput, message: message}
}

func unauthenticated(message string) apiError {
	return apiError{kind: errUnauthenticated, message: message}
}

func unauthorized(message string) apiError {
	return apiError{kind: errUnauthorized, message: message}
}

func notFound(message string) apiError {
	return apiError{kind: errNotFound, message: message}
}

func conflict(message string) apiError {
	return apiError{kind: errConflict, message: message}
}

// httpStatus is the error-kind to status-code contract. Conflict maps to 400
// and ownership mismatch to 401, matching the wire contract rather than the
// stricter 409/403 convention.
func httpStatus(kind errorKind) int {
	switch kind {
	case errInvalidInput:
		return http.StatusBadRequest
	case errUnauthenticated:
		return http.StatusUnauthorized
	case errUnauthorized:
		return http.StatusUnauthorized
	case errNotFound:
		return http.StatusNotFound
	case errConflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, route string, err error) {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		log.Printf("[%s] returning error %d: %s", route, httpStatus(apiErr.kind), apiErr.message)
		c.AbortWithStatusJSON(httpStatus(apiErr.kind), gin.H{"message": apiErr.message})
		return
	}

	log.Printf("[%s] internal error: %v", route, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}
