package handlers

import (
	"net/http"
	"time"

	"github.com/portfolio-cms/apiserver/types"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Timestamp: time.Now().UTC()})
}

// RouteNotFound answers requests that match no route. No handler error
// exists here, so the body is built directly instead of going through fail.
func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, types.NewErrorBody(http.StatusNotFound, "Route not found"))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, types.NewErrorBody(http.StatusMethodNotAllowed, "Method not allowed"))
}
