// Package httputil holds the JSON response helpers shared by handlers and
// middleware so every error leaves the service in the same envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "learnhub/pkg/domain-errors"
)

type errorEnvelope struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status code and error envelope. Internal
// errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	env := errorEnvelope{Error: string(code)}
	if code != dErrors.CodeInternal {
		env.Description = messageOf(err)
	}
	WriteJSON(w, StatusFor(code), env)
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeActivationCodeMismatch, dErrors.CodeTokenInvalid:
		return http.StatusBadRequest
	case dErrors.CodeInvalidCredentials, dErrors.CodeUnauthenticated,
		dErrors.CodeTokenExpired, dErrors.CodeSessionNotFound:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeDuplicateAccount, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
