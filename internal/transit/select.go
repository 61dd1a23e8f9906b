package transit

import "github.com/busontime/busontime/internal/models"

// Earliest returns the arrival with the fewest seconds remaining. Ties go to
// the first one in the list.
func Earliest(arrivals []models.BusArrival) (models.BusArrival, bool) {
	if len(arrivals) == 0 {
		return models.BusArrival{}, false
	}

	best := arrivals[0]
	for _, a := range arrivals[1:] {
		if a.ArrivalSecs < best.ArrivalSecs {
			best = a
		}
	}
	return best, true
}

// FilterRoute keeps arrivals for routeID, preserving order.
func FilterRoute(arrivals []models.BusArrival, routeID string) []models.BusArrival {
	var filtered []models.BusArrival
	for _, a := range arrivals {
		if a.RouteID == routeID {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
