package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/busontime/busontime/internal/models"
)

// ProxyClient calls the /api/bus endpoint of a running server.
type ProxyClient struct {
	baseURL string
	client  *http.Client
}

// NewProxyClient creates a client for the server at baseURL.
func NewProxyClient(baseURL string, timeout time.Duration) *ProxyClient {
	return &ProxyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch returns the next arrival for f.
func (c *ProxyClient) Fetch(ctx context.Context, f models.Favorite) (models.BusArrival, error) {
	params := url.Values{}
	params.Set("cityCode", f.CityCode)
	params.Set("nodeId", f.NodeID)
	params.Set("routeId", f.RouteID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/bus?"+params.Encode(), nil)
	if err != nil {
		return models.BusArrival{}, errors.Wrap(err, "building request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.BusArrival{}, errors.Wrap(err, "calling proxy")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		// a body that is not the proxy's JSON falls back to the status code
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			switch {
			case body.Message != "":
				return models.BusArrival{}, errors.New(body.Message)
			case body.Error != "":
				return models.BusArrival{}, errors.New(body.Error)
			}
		}
		return models.BusArrival{}, errors.Errorf("HTTP %d", resp.StatusCode)
	}

	var arrival models.BusArrival
	if err := json.NewDecoder(resp.Body).Decode(&arrival); err != nil {
		return models.BusArrival{}, errors.Wrap(err, "parsing arrival")
	}
	return arrival, nil
}
