package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// DataResponse is the envelope every successful read/write returns.
type DataResponse struct {
	Data any `json:"data"`
}

// MessageResponse carries a short human-readable message, used for errors
// and confirmations alike.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, DataResponse{Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// DecodeJSON reads a JSON request body (max 10 MiB) into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// URLParamID parses a positive integer route parameter.
func URLParamID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// ServerTiming accumulates Server-Timing entries for a response.
type ServerTiming struct {
	parts []string
}

func (st *ServerTiming) Add(name string, d time.Duration) {
	st.parts = append(st.parts, fmt.Sprintf("%s;dur=%.1f", name, float64(d.Microseconds())/1000))
}

// Write sets the Server-Timing header. Call before the status is written.
func (st *ServerTiming) Write(w http.ResponseWriter) {
	if len(st.parts) == 0 {
		return
	}
	w.Header().Add("Server-Timing", strings.Join(st.parts, ", "))
}
