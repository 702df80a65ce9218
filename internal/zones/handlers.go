package zones

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/czone-backend/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
)

type createZoneRequest struct {
	Name      string     `json:"name" validate:"required"`
	Label     *string    `json:"label"`
	Latitude  *float64   `json:"latitude" validate:"required"`
	Longitude *float64   `json:"longitude" validate:"required"`
	CBGList   []string   `json:"cbg_list" validate:"required"`
	StartDate *time.Time `json:"start_date" validate:"required"`
	Size      *float64   `json:"size" validate:"required,gte=0"`
}

type createPatternsRequest struct {
	CZoneID  *uint           `json:"czone_id" validate:"required,gt=0"`
	PaPData  json.RawMessage `json:"papdata" validate:"required"`
	Patterns json.RawMessage `json:"patterns" validate:"required"`
}

type upsertSimDataRequest struct {
	CZoneID *uint   `json:"czone_id" validate:"required,gt=0"`
	SimData *string `json:"simdata" validate:"required"`
}

type createdRef struct {
	ID uint `json:"id"`
}

type createdPatterns struct {
	PaPData  createdRef `json:"papdata"`
	Patterns createdRef `json:"patterns"`
}

type patternsPayload struct {
	PaPData  json.RawMessage `json:"papdata"`
	Patterns json.RawMessage `json:"patterns"`
}

type Handler struct {
	store    Store
	validate *validator.Validate
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, validate: validator.New()}
}

// ListZones returns every zone annotated with ready.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.ListZones(r.Context())
	if err != nil {
		log.Printf("[zones] list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to fetch convenience zones")
		return
	}
	utils.WriteData(w, http.StatusOK, zones)
}

// CreateZone validates and persists a new zone.
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil || strings.TrimSpace(req.Name) == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "name, latitude, longitude, cbg_list, start_date and size (>= 0) are required")
		return
	}

	zone := ConvenienceZone{
		Name:      req.Name,
		Label:     req.Label,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		CBGList:   pq.StringArray(req.CBGList),
		Size:      *req.Size,
		StartDate: req.StartDate.UTC(),
	}
	if err := h.store.CreateZone(r.Context(), &zone); err != nil {
		log.Printf("[zones] create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to create convenience zone")
		return
	}

	utils.WriteData(w, http.StatusOK, zone)
}

// DeleteZone removes a zone. Every failure is a 400 carrying the cause.
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "czone_id")
	if err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	zone, err := h.store.DeleteZone(r.Context(), id)
	if err != nil {
		log.Printf("[zones] delete %d failed: %v", id, err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.MessageResponse{
			Message: "Failed to delete convenience zone",
			Error:   err.Error(),
		})
		return
	}

	utils.WriteData(w, http.StatusOK, zone)
}

// CreatePatterns stores the papdata and patterns payloads for a zone.
func (h *Handler) CreatePatterns(w http.ResponseWriter, r *http.Request) {
	var req createPatternsRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "czone_id, papdata and patterns are required")
		return
	}

	papdata, ok := compactObject(req.PaPData)
	if !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "papdata must be a JSON object")
		return
	}
	patterns, ok := compactObject(req.Patterns)
	if !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "patterns must be a JSON object")
		return
	}

	pap, mp, err := h.store.CreatePatterns(r.Context(), *req.CZoneID, papdata, patterns)
	switch {
	case err == nil:
	case errors.Is(err, ErrConflict):
		utils.WriteMessage(w, http.StatusConflict, ErrConflict.Error())
		return
	case errors.Is(err, ErrZoneMissing):
		utils.WriteMessage(w, http.StatusBadRequest, ErrZoneMissing.Error())
		return
	default:
		log.Printf("[zones] create patterns for %d failed: %v", *req.CZoneID, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to store patterns")
		return
	}

	utils.WriteData(w, http.StatusOK, createdPatterns{
		PaPData:  createdRef{ID: pap.ID},
		Patterns: createdRef{ID: mp.ID},
	})
}

// GetPatterns returns both payloads for a zone, or 404 if either is missing.
func (h *Handler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "czone_id")
	if err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	pap, mp, err := h.store.GetPatterns(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		utils.WriteMessage(w, http.StatusNotFound, "Patterns not found")
		return
	}
	if err != nil {
		log.Printf("[zones] get patterns for %d failed: %v", id, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to fetch patterns")
		return
	}

	if !json.Valid([]byte(pap.PaPData)) || !json.Valid([]byte(mp.Patterns)) {
		log.Printf("[zones] stored patterns for %d are not valid JSON", id)
		utils.WriteMessage(w, http.StatusInternalServerError, "Stored patterns are corrupt")
		return
	}

	utils.WriteData(w, http.StatusOK, patternsPayload{
		PaPData:  json.RawMessage(pap.PaPData),
		Patterns: json.RawMessage(mp.Patterns),
	})
}

// UpsertSimData creates or replaces the simulator cache for a zone.
func (h *Handler) UpsertSimData(w http.ResponseWriter, r *http.Request) {
	var req upsertSimDataRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "czone_id and simdata are required")
		return
	}

	err := h.store.UpsertSimData(r.Context(), *req.CZoneID, *req.SimData)
	if errors.Is(err, ErrZoneMissing) {
		utils.WriteMessage(w, http.StatusBadRequest, ErrZoneMissing.Error())
		return
	}
	if err != nil {
		log.Printf("[zones] upsert simdata for %d failed: %v", *req.CZoneID, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to store simdata")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "simdata saved")
}

// GetSimData returns the stored simulator cache string.
func (h *Handler) GetSimData(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "czone_id")
	if err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	sd, err := h.store.GetSimData(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		utils.WriteMessage(w, http.StatusNotFound, "Simdata not found")
		return
	}
	if err != nil {
		log.Printf("[zones] get simdata for %d failed: %v", id, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Failed to fetch simdata")
		return
	}

	utils.WriteData(w, http.StatusOK, sd.SimData)
}

// compactObject returns the compacted text of raw if it is a JSON object.
func compactObject(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", false
	}
	return buf.String(), true
}
