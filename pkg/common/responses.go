package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// RespondJSON writes data as the JSON body with the given status
func RespondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// StatusResponse is the body of the health and readiness probes
type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
