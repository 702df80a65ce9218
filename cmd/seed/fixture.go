package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"
)

// Fixture contract:
//
//	zones:
//	  - name: Downtown
//	    label: dt              # optional
//	    latitude: 39.1653
//	    longitude: -86.5264
//	    cbg_list: ["181050014011", "181050014012"]
//	    size: 500
//	    start_date: "2024-03-01T00:00:00Z"   # RFC 3339 or YYYY-MM-DD
type Fixture struct {
	Zones []ZoneFixture `yaml:"zones" validate:"required,min=1,dive"`
}

type ZoneFixture struct {
	Name      string   `yaml:"name" validate:"required"`
	Label     *string  `yaml:"label"`
	Latitude  *float64 `yaml:"latitude" validate:"required"`
	Longitude *float64 `yaml:"longitude" validate:"required"`
	CBGList   []string `yaml:"cbg_list"`
	Size      *float64 `yaml:"size" validate:"required,gte=0"`
	StartDate string   `yaml:"start_date" validate:"required"`

	startDate time.Time
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFixture(raw)
}

func parseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	seen := map[string]int{}
	for i := range f.Zones {
		z := &f.Zones[i]

		// NFC so names typed on different platforms compare equal.
		z.Name = norm.NFC.String(strings.TrimSpace(z.Name))
		if z.Name == "" {
			return nil, fmt.Errorf("zone %d: name is blank", i+1)
		}
		if prev, dup := seen[z.Name]; dup {
			return nil, fmt.Errorf("zone %d: duplicate name %q (also zone %d)", i+1, z.Name, prev)
		}
		seen[z.Name] = i + 1

		if z.Label != nil {
			label := norm.NFC.String(strings.TrimSpace(*z.Label))
			z.Label = &label
		}

		t, err := parseStartDate(z.StartDate)
		if err != nil {
			return nil, fmt.Errorf("zone %d (%s): %w", i+1, z.Name, err)
		}
		z.startDate = t

		if z.CBGList == nil {
			z.CBGList = []string{}
		}
	}

	return &f, nil
}

func parseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("start_date %q is neither RFC 3339 nor YYYY-MM-DD", s)
}
