package location

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/lookup-zip", h.LookupZip)
}
