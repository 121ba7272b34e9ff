package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Remote store modes.
const (
	RemoteREST     = "rest"
	RemotePostgres = "postgres"
	RemoteNone     = "none"
)

type AppConfig struct {
	Port string

	// AdminSecret is the shared bearer token for the admin routes. Empty disables them.
	AdminSecret string

	// StoreRemote selects the remote store: rest (Supabase/PostgREST), postgres or none.
	StoreRemote     string
	SupabaseURL     string
	SupabaseAnonKey string
	DatabaseURL     string

	// StoreLocalPath is the sqlite file used when the remote is unreachable.
	StoreLocalPath     string
	StoreRemoteTimeout time.Duration

	// SyncInterval controls how often local-only writes are replayed (0 = never).
	SyncInterval time.Duration

	MessageMaxLength int
	SubmitRateLimit  int // per client per minute

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AdminSecret = os.Getenv("ADMIN_SECRET")

	cfg.SupabaseURL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	remote := strings.ToLower(getenvDefault("STORE_REMOTE", defaultRemote(cfg)))
	switch remote {
	case RemoteREST:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("STORE_REMOTE=rest requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	case RemotePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_REMOTE=postgres requires DATABASE_URL")
		}
	case RemoteNone:
	default:
		return nil, fmt.Errorf("invalid STORE_REMOTE %q: want rest, postgres or none", remote)
	}
	cfg.StoreRemote = remote

	cfg.StoreLocalPath = getenvDefault("STORE_LOCAL_PATH", "raincheck.db")

	var err error
	if cfg.StoreRemoteTimeout, err = getenvDuration("STORE_REMOTE_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreRemoteTimeout <= 0 {
		return nil, fmt.Errorf("STORE_REMOTE_TIMEOUT must be positive")
	}
	if cfg.SyncInterval, err = getenvDuration("SYNC_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.MessageMaxLength = getenvInt("MESSAGE_MAX_LENGTH", 200)
	cfg.SubmitRateLimit = getenvInt("SUBMIT_RATE_LIMIT", 20)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFile = os.Getenv("LOG_FILE")

	return cfg, nil
}

// defaultRemote picks rest when Supabase credentials are present, otherwise local only.
func defaultRemote(cfg *AppConfig) string {
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "" {
		return RemoteREST
	}
	return RemoteNone
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
