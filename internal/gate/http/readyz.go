package http

import (
	"net/http"
	"time"

	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/codequesthq/gate/pkg/httpx"
)

// ReadyzHandler returns the readiness probe, checking the database behind
// the service.
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe verifying the database connection, with per-check detail.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	gatesdk.HealthResponse	"degraded with failing checks"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &gatesdk.HealthChecks{
			Database: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, gatesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
