package handlers

import (
	"context"
	"net/http"
	"time"

	applog "coffeeshop/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database,omitempty"`
	Time     time.Time `json:"time"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a readiness handler suitable for infrastructure probes.
// When db is non-nil its reachability is included and a failed ping turns
// the probe into a 503.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applog.Debug(r.Context(), "health check requested", "method", r.Method)
		resp := healthResponse{
			Status: "ok",
			Time:   time.Now().UTC(),
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				applog.Error(r.Context(), "database ping failed", "error", err)
				resp.Status = "degraded"
				resp.Database = "unreachable"
				status = http.StatusServiceUnavailable
			} else {
				resp.Database = "ok"
			}
		}

		writeJSON(w, status, resp)
		applog.Debug(r.Context(), "health check responded", "status", status)
	}
}
