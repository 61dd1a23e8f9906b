package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/busontime/busontime/internal/models"
	"github.com/busontime/busontime/internal/transit"
)

const (
	msgMissingParams  = "cityCode, nodeId, and routeId are required"
	msgNoAPIKey       = "API key is not configured on the server."
	msgUpstreamFailed = "Failed to fetch data from the external API."
	msgNoArrivals     = "해당 정류소에 도착 예정인 버스가 없습니다."
	msgRouteNotServed = "해당 정류소에 도착 예정인 %s 노선 버스가 없습니다."
)

type BusHandler struct {
	bus BusProvider
	now func() time.Time
}

func NewBusHandler(bus BusProvider) *BusHandler {
	return &BusHandler{bus: bus, now: time.Now}
}

// GetArrival returns the next arrival for one stop and route
func (h *BusHandler) GetArrival(w http.ResponseWriter, r *http.Request) {
	_, arrival, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, arrival)
}

// GetArrivalFeed returns the next arrival as a GTFS-Realtime feed
func (h *BusHandler) GetArrivalFeed(w http.ResponseWriter, r *http.Request) {
	q, arrival, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := transit.MarshalFeed(q, arrival, h.now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to encode feed",
			"message": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *BusHandler) lookup(w http.ResponseWriter, r *http.Request) (transit.Query, models.BusArrival, bool) {
	params := r.URL.Query()
	q := transit.Query{
		CityCode: params.Get("cityCode"),
		NodeID:   params.Get("nodeId"),
		RouteID:  params.Get("routeId"),
	}

	arrival, err := h.bus.GetArrival(r.Context(), q)
	if err != nil {
		writeLookupError(w, q, err)
		return q, models.BusArrival{}, false
	}
	return q, arrival, true
}

func writeLookupError(w http.ResponseWriter, q transit.Query, err error) {
	var perr *transit.ProviderError

	switch {
	case errors.Is(err, transit.ErrMissingParams):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": msgMissingParams,
		})
	case errors.Is(err, transit.ErrNoAPIKey):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": msgNoAPIKey,
		})
	case errors.Is(err, transit.ErrNoArrivals):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": msgNoArrivals,
		})
	case errors.Is(err, transit.ErrRouteNotServed):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": fmt.Sprintf(msgRouteNotServed, q.RouteID),
		})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   msgUpstreamFailed,
			"message": perr.Error(),
			"code":    perr.Code,
		})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": msgUpstreamFailed,
		})
	}
}
