package location

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/EmpoweredVote/czone-backend/internal/geocoding"
	"github.com/EmpoweredVote/czone-backend/internal/utils"
	"github.com/go-playground/validator/v10"
)

type lookupRequest struct {
	Location string `json:"location" validate:"required"`
}

type Handler struct {
	resolver *Resolver
	validate *validator.Validate
}

// NewHandler returns a handler for the lookup routes. A nil resolver means
// geocoding is not configured and lookups answer 503.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver, validate: validator.New()}
}

// LookupZip resolves {location} to {zip_code, city}.
func (h *Handler) LookupZip(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, ErrEmptyLocation.Error())
		return
	}

	if h.resolver == nil {
		utils.WriteMessage(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	var timing utils.ServerTiming
	start := time.Now()
	result, err := h.resolver.Resolve(r.Context(), req.Location)
	timing.Add("geocode", time.Since(start))
	timing.Write(w)

	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, result)
	case errors.Is(err, ErrEmptyLocation), errors.Is(err, ErrNoAddressComponents), errors.Is(err, ErrNoGeometry):
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, geocoding.ErrUpstream):
		reqID, _ := utils.GetRequestIDFromContext(r.Context())
		log.Printf("[location] request=%s lookup failed: %v", reqID, err)
		utils.WriteMessage(w, http.StatusBadGateway, geocoding.ErrUpstream.Error())
	default:
		reqID, _ := utils.GetRequestIDFromContext(r.Context())
		log.Printf("[location] request=%s lookup failed: %v", reqID, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "lookup failed")
	}
}
