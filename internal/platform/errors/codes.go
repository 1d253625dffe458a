// Package errors provides structured error handling for the AAS repository.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeValidation       Code = "VALIDATION"
	CodePackageMalformed Code = "PACKAGE_MALFORMED"
	CodeEntityIDMissing  Code = "ENTITY_ID_MISSING"

	// Conflict errors
	CodeConflict        Code = "CONFLICT"
	CodeImportInFlight  Code = "IMPORT_IN_FLIGHT"
	CodeDeleteImporting Code = "DELETE_WHILE_IMPORTING"

	// Lookup errors
	CodeNotFound Code = "NOT_FOUND"

	// Storage errors
	CodeStorage Code = "STORAGE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodePackageMalformed, CodeEntityIDMissing:
		return http.StatusUnprocessableEntity
	case CodeConflict, CodeImportInFlight, CodeDeleteImporting:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether an error with this code may succeed on retry.
// Validation failures are terminal; conflicts clear once the competing
// operation reaches a terminal state; storage failures may be transient.
func (c Code) Retryable() bool {
	switch c {
	case CodeConflict, CodeImportInFlight, CodeDeleteImporting, CodeStorage:
		return true
	default:
		return false
	}
}
