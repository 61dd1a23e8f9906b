// Package models defines shared data types
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Favorite is a stop/route pair tracked by the dashboard
type Favorite struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	CityCode string `json:"cityCode" yaml:"cityCode" validate:"required"`
	NodeID   string `json:"nodeId" yaml:"nodeId" validate:"required"`
	RouteID  string `json:"routeId" yaml:"routeId" validate:"required"`
}

// Key identifies a favorite by city, stop and route
func (f Favorite) Key() string {
	return f.CityCode + "-" + f.NodeID + "-" + f.RouteID
}

// BusArrival is one upstream prediction of a vehicle reaching a stop
type BusArrival struct {
	StopsAway   int         `json:"arrprevstationcnt"`
	ArrivalSecs int         `json:"arrtime"`
	NodeID      string      `json:"nodeid"`
	NodeName    string      `json:"nodenm"`
	RouteID     string      `json:"routeid"`
	RouteNo     RouteNumber `json:"routeno"`
	RouteType   string      `json:"routetp"`
	VehicleNo   string      `json:"vehicleno"`
}

// RouteNumber is the rider-facing route number. Upstream sends it as a
// string for routes like "1002-1" and as a bare number otherwise.
type RouteNumber string

func (r *RouteNumber) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("routeno: %w", err)
	}
	*r = RouteNumber(s)
	return nil
}

func (r RouteNumber) String() string {
	return string(r)
}

// scalarString renders a JSON string or number as a plain string
func scalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
