package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	TokenSecret    string
	TokenTTL       time.Duration
	MaxRounds      int
	LogLevel       string
	LogDev         bool
	AllowedOrigins []string
	WebDist        string
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		TokenTTL:  12 * time.Hour,
		MaxRounds: 4,
		LogLevel:  "info",
		WebDist:   "web/dist",
	}
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Variables already set in the environment win over
// values from the files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup("BRIDGE_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("BRIDGE_TOKEN_SECRET"); ok {
		cfg.TokenSecret = v
	}
	if v, ok := lookup("BRIDGE_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("BRIDGE_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v, ok := lookup("BRIDGE_MAX_ROUNDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("BRIDGE_MAX_ROUNDS: invalid value %q", v)
		}
		cfg.MaxRounds = n
	}
	if v, ok := lookup("BRIDGE_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("BRIDGE_LOG_DEV"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("BRIDGE_LOG_DEV: %w", err)
		}
		cfg.LogDev = b
	}
	if v, ok := lookup("BRIDGE_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("BRIDGE_WEB_DIST"); ok && v != "" {
		cfg.WebDist = v
	}
	return cfg, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
