package handler

import (
	"log/slog"
	"net/http"
)

// Health reports liveness. It does not touch the database.
func Health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("health check passed")
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}
