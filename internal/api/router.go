package api

import (
	"net/http"
	"time"

	"github.com/busontime/busontime/internal/api/handlers"
	"github.com/busontime/busontime/internal/config"
	"github.com/busontime/busontime/internal/dashboard"
)

const defaultRequestTimeout = 15 * time.Second

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(
	cfg *config.Config,
	bus handlers.BusProvider,
	favorites dashboard.Favorites,
) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	rootHandler := handlers.NewRootHandler(bus)
	busHandler := handlers.NewBusHandler(bus)
	favoritesHandler := handlers.NewFavoritesHandler(favorites)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	withTimeout := Timeout(timeout)
	// Proxy lookups report upstream timeouts themselves as 502.
	withDeadline := Deadline(timeout)

	// Core routes
	mux.Handle("GET /{$}", withTimeout(http.HandlerFunc(rootHandler.Index)))
	mux.Handle("GET /api", withTimeout(http.HandlerFunc(rootHandler.Index)))
	mux.Handle("GET /health", withTimeout(http.HandlerFunc(healthHandler.Health)))
	mux.Handle("/", withTimeout(http.HandlerFunc(rootHandler.NotFound)))

	// Arrival proxy
	mux.Handle("GET /api/bus", withDeadline(http.HandlerFunc(busHandler.GetArrival)))
	mux.Handle("GET /api/bus/gtfsrt", withDeadline(http.HandlerFunc(busHandler.GetArrivalFeed)))

	// Dashboard configuration
	mux.Handle("GET /api/favorites", withTimeout(http.HandlerFunc(favoritesHandler.List)))

	// Apply middleware stack
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
	)

	return handler
}
