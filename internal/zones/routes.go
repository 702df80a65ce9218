package zones

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/convenience-zones", h.ListZones)
	r.Post("/convenience-zones", h.CreateZone)
	r.Delete("/convenience-zones/{czone_id}", h.DeleteZone)

	r.Post("/patterns", h.CreatePatterns)
	r.Get("/patterns/{czone_id}", h.GetPatterns)

	r.Post("/simdata", h.UpsertSimData)
	r.Get("/simdata/{czone_id}", h.GetSimData)
}
