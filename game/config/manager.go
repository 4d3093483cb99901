package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var ErrInvalidSetting = errors.New("invalid setting")

// Defaults used when the corresponding variable is unset.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 3000
	DefaultSpawnExtent = 2.0
	DefaultStaticDir   = "public"
)

// Settings holds the resolved server configuration
type Settings struct {
	// AdminCode is the shared secret for the broadcast gate. Empty
	// means the gate always denies; it is never defaulted.
	AdminCode string

	Host        string
	Port        int
	SpawnExtent float64
	StaticDir   string
}

// Load resolves settings from the environment, applying defaults and
// validating ranges. Call godotenv.Load first if a .env file should be
// honored.
func Load() (*Settings, error) {
	s := &Settings{
		AdminCode:   os.Getenv("ADMIN_CODE"),
		Host:        getEnvString("HOST", DefaultHost),
		StaticDir:   getEnvString("STATIC_DIR", DefaultStaticDir),
		SpawnExtent: DefaultSpawnExtent,
		Port:        DefaultPort,
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: PORT %q is not a number", ErrInvalidSetting, raw)
		}
		s.Port = port
	}

	if raw := os.Getenv("SPAWN_EXTENT"); raw != "" {
		extent, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: SPAWN_EXTENT %q is not a number", ErrInvalidSetting, raw)
		}
		s.SpawnExtent = extent
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks setting ranges
func (s *Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidSetting, s.Port)
	}
	if s.SpawnExtent <= 0 {
		return fmt.Errorf("%w: spawn extent must be positive, got %f", ErrInvalidSetting, s.SpawnExtent)
	}
	return nil
}

// Addr returns the host:port bind address
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AdminEnabled reports whether a broadcast secret is configured
func (s *Settings) AdminEnabled() bool {
	return s.AdminCode != ""
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
