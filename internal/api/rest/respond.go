package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/industrialdt/aashub/internal/platform/errors"
)

// pagedResponse is the envelope every listing returns.
type pagedResponse struct {
	Result         any            `json:"result"`
	PagingMetadata pagingMetadata `json:"paging_metadata"`
}

type pagingMetadata struct {
	Cursor string `json:"cursor,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("rest encode response: %v", err)
	}
}

// writeError maps a domain error to its HTTP status and wire shape.
// Internal causes stay in the logs; the caller sees code and message.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	body := errorBody{
		Code:    string(code),
		Message: err.Error(),
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		body.Metadata = domainErr.Metadata
	}
	if status >= http.StatusInternalServerError {
		log.Printf("rest internal error code=%s err=%v", code, err)
		body.Message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: body})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, apperrors.New(apperrors.CodeValidation, message))
}
