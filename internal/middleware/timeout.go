package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-resell-backoffice/internal/model"
)

// Timeout bounds a request. The store calls see the deadline through the
// request context, so a slow backend surfaces as a transport error or as
// this envelope, whichever comes first.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: "REQUEST_TIMEOUT", Message: "request timed out"},
		Notification: &model.Notification{
			Title:       "Error",
			Description: "El servidor tardó demasiado en responder. Inténtalo de nuevo.",
			Variant:     model.VariantDestructive,
		},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
