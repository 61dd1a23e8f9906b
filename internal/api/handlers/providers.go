package handlers

import (
	"context"

	"github.com/busontime/busontime/internal/models"
	"github.com/busontime/busontime/internal/transit"
)

// BusProvider abstracts the arrival data source for testability.
type BusProvider interface {
	HasAPIKey() bool
	GetArrival(ctx context.Context, q transit.Query) (models.BusArrival, error)
}
