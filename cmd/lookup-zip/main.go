package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/EmpoweredVote/czone-backend/internal/config"
	"github.com/EmpoweredVote/czone-backend/internal/geocoding"
	"github.com/EmpoweredVote/czone-backend/internal/location"
	"github.com/joho/godotenv"
)

// Resolves a location the same way POST /lookup-zip does, without the server.
//
//	go run ./cmd/lookup-zip --location "Central Park, New York"
func main() {
	godotenv.Load(".env.local")

	loc := flag.String("location", "", "Free-text location to resolve")
	flag.Parse()

	cfg := config.LoadFromEnv()
	client := geocoding.NewClient(cfg.GoogleMapsKey, cfg.GeocodingBaseURL, nil)
	if client == nil {
		log.Fatal("GOOGLE_MAPS_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := location.NewResolver(client).Resolve(ctx, *loc)
	if err != nil {
		log.Fatalf("Lookup error: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal(err)
	}
}
