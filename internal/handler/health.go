package handler

import (
	"encoding/json"
	"net/http"

	"github.com/phumzea/reports/internal/mailer"
)

// Health returns a health check handler. Transports that can be pinged are
// checked on every call.
func Health(transport mailer.Transport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if p, ok := transport.(mailer.Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
