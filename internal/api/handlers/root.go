package handlers

import (
	"net/http"
)

type RootHandler struct {
	bus BusProvider
}

func NewRootHandler(bus BusProvider) *RootHandler {
	return &RootHandler{bus: bus}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":              "busontime",
		"description":       "Next bus arrivals for your favorite stops",
		"version":           Version,
		"arrival_api_ready": h.bus.HasAPIKey(),
		"endpoints": map[string]string{
			"GET /":               "API information",
			"GET /health":         "Health check",
			"GET /api/bus":        "Next arrival (cityCode, nodeId, routeId)",
			"GET /api/bus/gtfsrt": "Next arrival as GTFS-Realtime protobuf",
			"GET /api/favorites":  "Configured favorites",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check the root endpoint (/) for available routes",
	})
}
