package transit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/busontime/busontime/internal/models"
)

const (
	routeArrivalsPath = "/getSttnAcctoSpcifyRouteBusArvlPrearngeInfoList"
	stopArrivalsPath  = "/getSttnAcctoArvlPrearngeInfoList"

	routeRows = 10
	stopRows  = 100
)

var (
	ErrMissingParams  = errors.New("cityCode, nodeId, and routeId are required")
	ErrNoAPIKey       = errors.New("arrival API key is not configured")
	ErrNoArrivals     = errors.New("no bus is expected at this stop")
	ErrRouteNotServed = errors.New("no bus on this route is expected at this stop")
)

// ProviderError is returned when upstream answers with a non-success result code.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("API Error: %s (Code: %s)", e.Message, e.Code)
}

// Mode selects which upstream operation answers a lookup.
type Mode string

const (
	// ModeRoute asks upstream for one route at one stop.
	ModeRoute Mode = "route"
	// ModeStop asks for every route at the stop and filters locally.
	ModeStop Mode = "stop"
)

// Query identifies the stop and route to look up.
type Query struct {
	CityCode string
	NodeID   string
	RouteID  string
}

// Validate reports ErrMissingParams unless every field is set.
func (q Query) Validate() error {
	if q.CityCode == "" || q.NodeID == "" || q.RouteID == "" {
		return ErrMissingParams
	}
	return nil
}

// Key matches models.Favorite.Key for the same stop and route.
func (q Query) Key() string {
	return q.CityCode + "-" + q.NodeID + "-" + q.RouteID
}

// BusService fetches real-time bus arrivals from the data.go.kr arrival API.
// Every call goes to upstream; nothing is cached.
type BusService struct {
	apiKey  string
	baseURL string
	mode    Mode
	client  *http.Client
}

// NewBusService creates a new bus service. A zero timeout leaves upstream
// calls bounded only by the transport.
func NewBusService(apiKey, baseURL string, mode Mode, timeout time.Duration) *BusService {
	return &BusService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		mode:    mode,
		client:  &http.Client{Timeout: timeout},
	}
}

// HasAPIKey returns true if the service has an API key configured
func (s *BusService) HasAPIKey() bool {
	return s.apiKey != ""
}

// Mode reports which upstream operation the service uses.
func (s *BusService) Mode() Mode {
	return s.mode
}

// GetArrival returns the next bus for q.
func (s *BusService) GetArrival(ctx context.Context, q Query) (models.BusArrival, error) {
	if err := q.Validate(); err != nil {
		return models.BusArrival{}, err
	}
	if !s.HasAPIKey() {
		slog.Error("arrival API key is not set", "env", "DATA_GO_KR_API_KEY")
		return models.BusArrival{}, ErrNoAPIKey
	}

	arrivals, err := s.fetchArrivals(ctx, q)
	if err != nil {
		if !errors.Is(err, ErrNoArrivals) {
			slog.Error("arrival API call failed",
				"city_code", q.CityCode,
				"node_id", q.NodeID,
				"route_id", q.RouteID,
				"error", err.Error(),
			)
		}
		return models.BusArrival{}, err
	}

	if s.mode == ModeStop {
		arrivals = FilterRoute(arrivals, q.RouteID)
		if len(arrivals) == 0 {
			return models.BusArrival{}, ErrRouteNotServed
		}
	}

	next, _ := Earliest(arrivals)
	return next, nil
}

func (s *BusService) fetchArrivals(ctx context.Context, q Query) ([]models.BusArrival, error) {
	apiURL := s.requestURL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// url.Error carries the request URL, which includes the service key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Wrap(err, "fetching bus data")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("bus API returned status %d", resp.StatusCode)
	}

	return decodeArrivals(resp.Body)
}

// requestURL builds the upstream URL. serviceKey is appended as-is because
// data.go.kr issues keys that are already percent-encoded.
func (s *BusService) requestURL(q Query) string {
	params := url.Values{}
	params.Set("cityCode", q.CityCode)
	params.Set("nodeId", q.NodeID)
	params.Set("_type", "json")

	path := routeArrivalsPath
	rows := routeRows
	if s.mode == ModeStop {
		path = stopArrivalsPath
		rows = stopRows
	} else {
		params.Set("routeId", q.RouteID)
	}
	params.Set("numOfRows", fmt.Sprintf("%d", rows))

	return s.baseURL + path + "?" + params.Encode() + "&serviceKey=" + s.apiKey
}
