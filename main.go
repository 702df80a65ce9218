package main

import (
	"context"
	"log"
	"net/http"

	"github.com/EmpoweredVote/czone-backend/internal/config"
	"github.com/EmpoweredVote/czone-backend/internal/db"
	"github.com/EmpoweredVote/czone-backend/internal/geocoding"
	"github.com/EmpoweredVote/czone-backend/internal/location"
	"github.com/EmpoweredVote/czone-backend/internal/server"
	"github.com/EmpoweredVote/czone-backend/internal/zones"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := zones.Migrate(database); err != nil {
		log.Fatal("Failed to migrate zones: ", err)
	}

	var resolver *location.Resolver
	if client := geocoding.NewClient(cfg.GoogleMapsKey, cfg.GeocodingBaseURL, nil); client != nil {
		resolver = location.NewResolver(client)
	} else {
		log.Println("[geocoding] WARNING: GOOGLE_MAPS_API_KEY not set, /lookup-zip is disabled")
	}

	r := server.NewRouter(server.Deps{
		Zones:          zones.NewGormStore(database),
		Resolver:       resolver,
		AllowedOrigins: cfg.AllowedOrigins,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, database)
		},
	})

	log.Printf("Server is listening on port %s", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
