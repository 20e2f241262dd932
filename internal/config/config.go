package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DatabasePath is the sqlite file used when DatabaseURL is empty.
	DatabasePath string
	// DatabaseURL selects PostgreSQL when set.
	DatabaseURL string
	// RedisURL enables mirroring the online set to Redis when set.
	RedisURL string
	JWTSecret string
	TokenTTL  time.Duration
	Debug     bool
	// AllowedOrigins is the CORS allow list for REST and live transports.
	AllowedOrigins []string
	UploadDir      string
	// PublicBaseURL prefixes uploaded asset URLs. Empty means relative URLs.
	PublicBaseURL string
	MaxImageBytes int64
	// MaxBodyBytes caps REST request bodies. It defaults to room for a
	// base64 encoded image of MaxImageBytes.
	MaxBodyBytes int64
	// OutboxSize bounds the per-connection push queue.
	OutboxSize int
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr         *string
	DatabasePath *string
	Debug        *bool
}

const (
	defaultPort          = 5000
	defaultTokenTTL      = 24 * time.Hour
	defaultMaxImageBytes = 4 << 20
	defaultOutboxSize    = 64
	bodyOverheadBytes    = 64 << 10
)

// Load loads server configuration from a .env file (if present), environment
// variables and any explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	_ = godotenv.Load()

	port := defaultPort
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		port = p
	}
	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := getEnv("DATABASE_PATH", "./chat.db")
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" && !debug {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	ttl := defaultTokenTTL
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		ttl = d
	}

	maxImage := int64(defaultMaxImageBytes)
	if v := os.Getenv("MAX_IMAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_IMAGE_BYTES %q", v)
		}
		maxImage = n
	}

	maxBody := maxImage*4/3 + bodyOverheadBytes
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q", v)
		}
		maxBody = n
	}

	outbox := defaultOutboxSize
	if v := os.Getenv("OUTBOX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid OUTBOX_SIZE %q", v)
		}
		outbox = n
	}

	return &Config{
		Addr:           addr,
		DatabasePath:   dbPath,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      secret,
		TokenTTL:       ttl,
		Debug:          debug,
		AllowedOrigins: splitList(getEnv("FRONTEND_URL", "http://localhost:5173")),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:  strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		MaxImageBytes:  maxImage,
		MaxBodyBytes:   maxBody,
		OutboxSize:     outbox,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, entry := range strings.Split(v, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
