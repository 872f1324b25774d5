package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"smartip-service/internal/adapters/cache"
	"smartip-service/internal/adapters/geoip"
	"smartip-service/internal/adapters/repositories"
	"smartip-service/internal/api"
	"smartip-service/internal/config"
	"smartip-service/internal/platform/db"
	"smartip-service/internal/platform/metrics"
	"smartip-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Redis, ip-api, MaxMind) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/locations.json")
	port := config.Get("PORT", "8080")

	db, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Initialize schema and seed fixture locations on startup for local runs.
	if err := initAndSeed(db, seedPath); err != nil {
		log.Fatal(err)
	}

	m := metrics.New()

	locationCache, err := newLocationCache(db)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := newProvider(locationCache, m)
	if err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewSqliteVisitRepository(db)

	policy := api.Policy{
		EUMemberOnly:   os.Getenv("EU_MEMBER_ONLY") == "true",
		SkipEUVisitors: os.Getenv("SKIP_EU_VISITORS") == "true",
	}

	router := api.NewRouter(repo, provider, m, policy)

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(db *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

// newLocationCache prefers Redis when configured, then a shared Postgres
// cache, falling back to the SQLite cache in the service database.
func newLocationCache(sqliteDB *sql.DB) (ports.LocationCache, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
			pg, err := db.Open(databaseURL)
			if err != nil {
				return nil, err
			}
			return cache.NewSQLLocationCache(pg), nil
		}
		return cache.NewSqliteLocationCache(sqliteDB), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse CACHE_TTL: %w", err)
		}
		ttl = parsed
	}

	return cache.NewRedisLocationCache(client, ttl), nil
}

// newProvider selects a local MaxMind database when MMDB_PATH is set and
// the external HTTP service otherwise. An optional MMDB_URL starts the
// periodic database refresher.
func newProvider(locationCache ports.LocationCache, m *metrics.Metrics) (ports.GeolocationProvider, error) {
	mmdbPath := os.Getenv("MMDB_PATH")
	if mmdbPath == "" {
		baseURL := config.Get("GEOIP_API_URL", "http://ip-api.com")
		return geoip.NewHTTPProvider(baseURL, os.Getenv("GEOIP_API_KEY"), locationCache, m)
	}

	provider, err := geoip.NewMMDBProvider(mmdbPath)
	if err != nil {
		return nil, err
	}

	if mmdbURL := os.Getenv("MMDB_URL"); mmdbURL != "" {
		interval := 24 * time.Hour
		if raw := os.Getenv("MMDB_REFRESH_INTERVAL"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("parse MMDB_REFRESH_INTERVAL: %w", err)
			}
			interval = parsed
		}

		refresher := geoip.NewRefresher(mmdbURL, mmdbPath, interval, provider)
		go refresher.Run(context.Background())
		log.Printf("mmdb refresher started url=%s interval=%s", mmdbURL, interval)
	}

	return provider, nil
}
