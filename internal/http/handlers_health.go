package httpx

import (
	"io"
	"log/slog"
	"net/http"
)

const (
	healthResponse   = `{"status":"ok"}`
	notReadyResponse = `{"status":"unavailable"}`
)

// readinessHandler returns 200 while ready reports nil, and 503 otherwise.
// A nil ready check is always healthy.
func readinessHandler(ready func(*http.Request) error, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "error", err)
				writeHealth(w, r, http.StatusServiceUnavailable, notReadyResponse)
				return
			}
		}
		writeHealth(w, r, http.StatusOK, healthResponse)
	})
}

func writeHealth(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, body); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}
