package zones

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// memStore implements Store in memory, mirroring the Postgres constraints.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	zones    []ConvenienceZone
	papdata  map[uint]PaPData
	patterns map[uint]MovementPattern
	simdata  map[uint]SimData
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		papdata:  map[uint]PaPData{},
		patterns: map[uint]MovementPattern{},
		simdata:  map[uint]SimData{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) hasZone(id uint) bool {
	for _, z := range m.zones {
		if z.ID == id {
			return true
		}
	}
	return false
}

func (m *memStore) ListZones(ctx context.Context) ([]ZoneSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ZoneSummary, 0, len(m.zones))
	for _, z := range m.zones {
		_, ready := m.papdata[z.ID]
		out = append(out, ZoneSummary{ConvenienceZone: z, Ready: ready})
	}
	return out, nil
}

func (m *memStore) CreateZone(ctx context.Context, zone *ConvenienceZone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	zone.ID = m.id()
	m.zones = append(m.zones, *zone)
	return nil
}

func (m *memStore) DeleteZone(ctx context.Context, id uint) (ConvenienceZone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, z := range m.zones {
		if z.ID != id {
			continue
		}
		_, a := m.papdata[id]
		_, b := m.patterns[id]
		_, c := m.simdata[id]
		if a || b || c {
			return ConvenienceZone{}, fmt.Errorf("delete zone %d: foreign key violated", id)
		}
		m.zones = append(m.zones[:i], m.zones[i+1:]...)
		return z, nil
	}
	return ConvenienceZone{}, fmt.Errorf("zone %d: %w", id, ErrNotFound)
}

func (m *memStore) CreatePatterns(ctx context.Context, czoneID uint, papdata, patterns string) (PaPData, MovementPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasZone(czoneID) {
		return PaPData{}, MovementPattern{}, ErrZoneMissing
	}
	_, a := m.papdata[czoneID]
	_, b := m.patterns[czoneID]
	if a || b {
		return PaPData{}, MovementPattern{}, ErrConflict
	}
	pap := PaPData{ID: m.id(), CZoneID: czoneID, PaPData: papdata}
	mp := MovementPattern{ID: m.id(), CZoneID: czoneID, Patterns: patterns, StartDate: time.Now()}
	m.papdata[czoneID] = pap
	m.patterns[czoneID] = mp
	return pap, mp, nil
}

func (m *memStore) GetPatterns(ctx context.Context, czoneID uint) (PaPData, MovementPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pap, a := m.papdata[czoneID]
	mp, b := m.patterns[czoneID]
	if !a || !b {
		return PaPData{}, MovementPattern{}, ErrNotFound
	}
	return pap, mp, nil
}

func (m *memStore) UpsertSimData(ctx context.Context, czoneID uint, simdata string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasZone(czoneID) {
		return ErrZoneMissing
	}
	sd, ok := m.simdata[czoneID]
	if !ok {
		sd = SimData{ID: m.id(), CZoneID: czoneID}
	}
	sd.SimData = simdata
	sd.UpdatedAt = time.Now()
	m.simdata[czoneID] = sd
	return nil
}

func (m *memStore) GetSimData(ctx context.Context, czoneID uint) (SimData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sd, ok := m.simdata[czoneID]
	if !ok {
		return SimData{}, ErrNotFound
	}
	return sd, nil
}

func newTestRouter(store Store) http.Handler {
	r := chi.NewRouter()
	NewHandler(store).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

const validZone = `{
	"name": "Downtown",
	"label": "dt",
	"latitude": 39.1653,
	"longitude": -86.5264,
	"cbg_list": ["181050014011", "181050014012"],
	"start_date": "2024-03-01T00:00:00Z",
	"size": 500
}`

func createZone(t *testing.T, h http.Handler) ConvenienceZone {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/convenience-zones", validZone)
	if rec.Code != http.StatusOK {
		t.Fatalf("create zone: expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	var z ConvenienceZone
	decodeData(t, rec, &z)
	return z
}

func TestCreateZoneRoundTrip(t *testing.T) {
	h := newTestRouter(newMemStore())

	z := createZone(t, h)

	if z.ID == 0 {
		t.Error("expected assigned id")
	}
	if z.Name != "Downtown" || z.Label == nil || *z.Label != "dt" {
		t.Errorf("unexpected name/label: %+v", z)
	}
	if z.Latitude != 39.1653 || z.Longitude != -86.5264 || z.Size != 500 {
		t.Errorf("unexpected numbers: %+v", z)
	}
	if !reflect.DeepEqual([]string(z.CBGList), []string{"181050014011", "181050014012"}) {
		t.Errorf("cbg_list = %v", z.CBGList)
	}
	if !z.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start_date = %v", z.StartDate)
	}

	rec := do(t, h, http.MethodGet, "/convenience-zones", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed []map[string]any
	decodeData(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(listed))
	}
	if ready, ok := listed[0]["ready"].(bool); !ok || ready {
		t.Errorf("expected ready=false, got %v", listed[0]["ready"])
	}
	for _, k := range []string{"papdata", "PaPData", "patterns", "simdata"} {
		if _, ok := listed[0][k]; ok {
			t.Errorf("listing should not expose %q", k)
		}
	}
}

func TestCreateZoneValidation(t *testing.T) {
	cases := map[string]string{
		"empty name":       `{"name":"","latitude":1,"longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"blank name":       `{"name":"  ","latitude":1,"longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"missing latitude": `{"name":"a","longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"string latitude":  `{"name":"a","latitude":"1","longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"negative size":    `{"name":"a","latitude":1,"longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":-1}`,
		"missing cbg_list": `{"name":"a","latitude":1,"longitude":2,"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"numeric cbg ids":  `{"name":"a","latitude":1,"longitude":2,"cbg_list":[1,2],"start_date":"2024-03-01T00:00:00Z","size":1}`,
		"bad start_date":   `{"name":"a","latitude":1,"longitude":2,"cbg_list":[],"start_date":"March 1st","size":1}`,
		"missing size":     `{"name":"a","latitude":1,"longitude":2,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z"}`,
		"not json":         `{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			rec := do(t, newTestRouter(store), http.MethodPost, "/convenience-zones", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
			}
			if len(store.zones) != 0 {
				t.Error("invalid zone was persisted")
			}
		})
	}
}

func TestCreateZoneZeroSizeAndCoordinates(t *testing.T) {
	h := newTestRouter(newMemStore())
	body := `{"name":"Null Island","latitude":0,"longitude":0,"cbg_list":[],"start_date":"2024-03-01T00:00:00Z","size":0}`

	rec := do(t, h, http.MethodPost, "/convenience-zones", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteZone(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(store)
	z := createZone(t, h)

	rec := do(t, h, http.MethodDelete, fmt.Sprintf("/convenience-zones/%d", z.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	var deleted ConvenienceZone
	decodeData(t, rec, &deleted)
	if deleted.ID != z.ID || deleted.Name != z.Name {
		t.Errorf("deleted = %+v", deleted)
	}

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/convenience-zones/%d", z.ID), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second delete: expected 400, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Errorf("expected underlying error in body, got %v", body)
	}
}

func TestDeleteZoneWithSubResources(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)
	do(t, h, http.MethodPost, "/simdata", fmt.Sprintf(`{"czone_id":%d,"simdata":"x"}`, z.ID))

	rec := do(t, h, http.MethodDelete, fmt.Sprintf("/convenience-zones/%d", z.ID), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteZoneBadID(t *testing.T) {
	h := newTestRouter(newMemStore())
	for _, id := range []string{"abc", "0", "-1", "1.5"} {
		rec := do(t, h, http.MethodDelete, "/convenience-zones/"+id, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestPatternsRoundTrip(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)

	papdata := `{"homes": {"a": [1, 2, 3]}, "places": null}`
	patterns := `{"0": {"visits": 12.5}, "tags": ["x", "y"]}`
	body := fmt.Sprintf(`{"czone_id": %d, "papdata": %s, "patterns": %s}`, z.ID, papdata, patterns)

	rec := do(t, h, http.MethodPost, "/patterns", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created createdPatterns
	decodeData(t, rec, &created)
	if created.PaPData.ID == 0 || created.Patterns.ID == 0 {
		t.Errorf("expected ids, got %+v", created)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/patterns/%d", z.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		PaPData  any `json:"papdata"`
		Patterns any `json:"patterns"`
	}
	decodeData(t, rec, &got)

	var wantPap, wantPatterns any
	json.Unmarshal([]byte(papdata), &wantPap)
	json.Unmarshal([]byte(patterns), &wantPatterns)
	if !reflect.DeepEqual(got.PaPData, wantPap) {
		t.Errorf("papdata = %v, want %v", got.PaPData, wantPap)
	}
	if !reflect.DeepEqual(got.Patterns, wantPatterns) {
		t.Errorf("patterns = %v, want %v", got.Patterns, wantPatterns)
	}

	rec = do(t, h, http.MethodGet, "/convenience-zones", "")
	var listed []ZoneSummary
	decodeData(t, rec, &listed)
	if len(listed) != 1 || !listed[0].Ready {
		t.Errorf("expected zone to be ready after papdata, got %+v", listed)
	}
}

func TestPatternsNotFound(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/patterns/%d", z.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPatternsConflict(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)
	body := fmt.Sprintf(`{"czone_id": %d, "papdata": {}, "patterns": {}}`, z.ID)

	if rec := do(t, h, http.MethodPost, "/patterns", body); rec.Code != http.StatusOK {
		t.Fatalf("first create: expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/patterns", body); rec.Code != http.StatusConflict {
		t.Errorf("second create: expected 409, got %d", rec.Code)
	}
}

func TestPatternsValidation(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)

	cases := map[string]string{
		"missing czone_id":  `{"papdata": {}, "patterns": {}}`,
		"missing papdata":   fmt.Sprintf(`{"czone_id": %d, "patterns": {}}`, z.ID),
		"array papdata":     fmt.Sprintf(`{"czone_id": %d, "papdata": [], "patterns": {}}`, z.ID),
		"null patterns":     fmt.Sprintf(`{"czone_id": %d, "papdata": {}, "patterns": null}`, z.ID),
		"string patterns":   fmt.Sprintf(`{"czone_id": %d, "papdata": {}, "patterns": "x"}`, z.ID),
		"unknown zone":      `{"czone_id": 999, "papdata": {}, "patterns": {}}`,
		"negative czone_id": `{"czone_id": -1, "papdata": {}, "patterns": {}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/patterns", body); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSimDataUpsertReplaces(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)

	for _, payload := range []string{"first run", "second run"} {
		body, _ := json.Marshal(map[string]any{"czone_id": z.ID, "simdata": payload})
		rec := do(t, h, http.MethodPost, "/simdata", string(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert %q: expected 200, got %d; body: %s", payload, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/simdata/%d", z.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var got string
	decodeData(t, rec, &got)
	if got != "second run" {
		t.Errorf("simdata = %q, want %q", got, "second run")
	}
}

func TestSimDataNotFound(t *testing.T) {
	h := newTestRouter(newMemStore())
	z := createZone(t, h)

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/simdata/%d", z.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSimDataValidation(t *testing.T) {
	h := newTestRouter(newMemStore())

	for _, body := range []string{`{"simdata":"x"}`, `{"czone_id":1}`, `{"czone_id":1,"simdata":5}`, `{"czone_id":42,"simdata":"x"}`} {
		if rec := do(t, h, http.MethodPost, "/simdata", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCreateZoneStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failNext = fmt.Errorf("connection reset")
	rec := do(t, newTestRouter(store), http.MethodPost, "/convenience-zones", validZone)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("connection reset")) {
		t.Error("internal error leaked into response")
	}
}

func TestCompactObject(t *testing.T) {
	got, ok := compactObject(json.RawMessage(" {\n \"a\" : [1, 2]\n} "))
	if !ok || got != `{"a":[1,2]}` {
		t.Errorf("compactObject = %q, %v", got, ok)
	}
	for _, raw := range []string{"[]", "null", `"s"`, "1", ""} {
		if _, ok := compactObject(json.RawMessage(raw)); ok {
			t.Errorf("compactObject(%q) accepted a non-object", raw)
		}
	}
}
