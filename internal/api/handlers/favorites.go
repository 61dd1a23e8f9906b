package handlers

import (
	"net/http"

	"github.com/busontime/busontime/internal/dashboard"
)

type FavoritesHandler struct {
	favorites dashboard.Favorites
}

func NewFavoritesHandler(favorites dashboard.Favorites) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites}
}

// List returns the configured favorites grouped by section
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Key      string `json:"key"`
		Name     string `json:"name"`
		CityCode string `json:"cityCode"`
		NodeID   string `json:"nodeId"`
		RouteID  string `json:"routeId"`
	}
	type section struct {
		Name      string  `json:"name,omitempty"`
		Favorites []entry `json:"favorites"`
	}

	sections := make([]section, 0, len(h.favorites.Sections))
	for _, s := range h.favorites.Sections {
		entries := make([]entry, 0, len(s.Favorites))
		for _, f := range s.Favorites {
			entries = append(entries, entry{
				Key:      f.Key(),
				Name:     f.Name,
				CityCode: f.CityCode,
				NodeID:   f.NodeID,
				RouteID:  f.RouteID,
			})
		}
		sections = append(sections, section{Name: s.Name, Favorites: entries})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    h.favorites.Len(),
		"sections": sections,
	})
}
