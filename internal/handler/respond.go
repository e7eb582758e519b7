// internal/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func StatusFor(err error) int {
	switch appErrors.KindOf(err) {
	case appErrors.KindNotFound:
		return http.StatusNotFound
	case appErrors.KindDuplicateKey, appErrors.KindReferentialViolation:
		return http.StatusConflict
	case appErrors.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err with the status of its kind. Unclassified errors are
// logged and hidden from the caller.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{Error: appErrors.KindOf(err).String(), Message: err.Error()}

	var ae *appErrors.Error
	if errors.As(err, &ae) {
		body.Fields = ae.Fields
	}
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		body.Error = "InternalError"
		body.Message = "internal server error"
		body.Fields = nil
	}
	WriteJSON(w, status, body)
}

// DecodeJSON reads the request body into dst, reporting a malformed body as a
// validation failure.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewFieldValidation("body", "invalid JSON: "+err.Error())
	}
	return nil
}
