package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/EmpoweredVote/czone-backend/internal/metrics"
)

// ErrUpstream wraps every transport or decoding failure talking to the API.
var ErrUpstream = errors.New("geocoding request failed")

// Result is one entry of a Google Maps geocoding response. Fields the
// provider omitted stay nil so callers can tell "absent" from "empty".
type Result struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          *Geometry          `json:"geometry"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// HasType reports whether the component is tagged with t.
func (c AddressComponent) HasType(t string) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

type Geometry struct {
	Location *LatLng `json:"location"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Results []Result `json:"results"`
	Status  string   `json:"status"`
}

// Client wraps the Google Maps Geocoding API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client. Returns nil if apiKey is empty
// (graceful degradation, lookup is disabled).
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if apiKey == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Geocode runs a forward geocode of a free-form address.
func (c *Client) Geocode(ctx context.Context, address string) ([]Result, error) {
	q := url.Values{}
	q.Set("address", address)
	results, err := c.get(ctx, "forward", q)
	metrics.ObserveGeocode("forward", err)
	return results, err
}

// ReverseGeocode resolves a coordinate pair to address results.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) ([]Result, error) {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	results, err := c.get(ctx, "reverse", q)
	metrics.ObserveGeocode("reverse", err)
	return results, err
}

func (c *Client) get(ctx context.Context, kind string, q url.Values) ([]Result, error) {
	// Logged before the key is attached.
	log.Printf("[geocoding] %s GET /geocode/json %s", kind, q.Encode())
	q.Set("key", c.apiKey)
	u := c.baseURL + "/geocode/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUpstream, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, and with it the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		log.Printf("[geocoding] %s error: %v", kind, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[geocoding] %s response status=%d", kind, resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	log.Printf("[geocoding] %s response status=%s duration=%dms results=%d",
		kind, geoResp.Status, time.Since(start).Milliseconds(), len(geoResp.Results))

	return geoResp.Results, nil
}
