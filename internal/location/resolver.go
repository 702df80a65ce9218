package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EmpoweredVote/czone-backend/internal/geocoding"
)

var (
	ErrEmptyLocation       = errors.New("location must be a non-empty string")
	ErrNoAddressComponents = errors.New("no address components found")
	ErrNoGeometry          = errors.New("no geometry found")
)

const (
	typePostalCode = "postal_code"
	typeLocality   = "locality"
)

// Geocoder is the subset of the Maps API the resolver needs.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]geocoding.Result, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) ([]geocoding.Result, error)
}

// ZipResult is the response of a zip lookup.
type ZipResult struct {
	ZipCode string `json:"zip_code"`
	City    string `json:"city"`
}

type Resolver struct {
	geocoder Geocoder
}

func NewResolver(g Geocoder) *Resolver {
	return &Resolver{geocoder: g}
}

// Resolve turns free-text location into a postal code and city.
//
// The forward geocode is searched first-match within the first result that
// has address components. When that result has no postal code the first
// result with a geometry is reverse geocoded, and every component of every
// reverse result is scanned with the last postal_code and locality seen
// winning. The reverse path never fails once a geometry is found.
func (r *Resolver) Resolve(ctx context.Context, location string) (ZipResult, error) {
	if strings.TrimSpace(location) == "" {
		return ZipResult{}, ErrEmptyLocation
	}

	results, err := r.geocoder.Geocode(ctx, location)
	if err != nil {
		return ZipResult{}, fmt.Errorf("forward geocode: %w", err)
	}

	components, ok := firstWithComponents(results)
	if !ok {
		return ZipResult{}, ErrNoAddressComponents
	}

	if postal, ok := findComponent(components, typePostalCode); ok {
		out := ZipResult{ZipCode: postal.LongName}
		if city, ok := findComponent(components, typeLocality); ok {
			out.City = city.LongName
		}
		return out, nil
	}

	loc, ok := firstWithLocation(results)
	if !ok {
		return ZipResult{}, ErrNoGeometry
	}

	reverse, err := r.geocoder.ReverseGeocode(ctx, loc.Lat, loc.Lng)
	if err != nil {
		return ZipResult{}, fmt.Errorf("reverse geocode: %w", err)
	}

	var out ZipResult
	for _, res := range reverse {
		for _, c := range res.AddressComponents {
			if c.HasType(typePostalCode) {
				out.ZipCode = c.LongName
			}
			if c.HasType(typeLocality) {
				out.City = c.LongName
			}
		}
	}
	return out, nil
}

func firstWithComponents(results []geocoding.Result) ([]geocoding.AddressComponent, bool) {
	for _, res := range results {
		if res.AddressComponents != nil {
			return res.AddressComponents, true
		}
	}
	return nil, false
}

func firstWithLocation(results []geocoding.Result) (geocoding.LatLng, bool) {
	for _, res := range results {
		if res.Geometry != nil && res.Geometry.Location != nil {
			return *res.Geometry.Location, true
		}
	}
	return geocoding.LatLng{}, false
}

func findComponent(components []geocoding.AddressComponent, t string) (geocoding.AddressComponent, bool) {
	for _, c := range components {
		if c.HasType(t) {
			return c, true
		}
	}
	return geocoding.AddressComponent{}, false
}
