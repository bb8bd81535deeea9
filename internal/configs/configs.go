/*
Package configs is responsible for loading and parsing the application's configuration settings.

Configuration comes from environment variables. Development gets permissive
defaults; production refuses to start without the security-relevant values.
The client binary (parley) and the development server (parleyd) each load only
the section they need.
*/
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ClientConfig contains every knob the chat client engine needs.
type ClientConfig struct {
	// Environment is "development" or "production"; it selects log formatting.
	Environment string

	// APIBaseURL is the root of the chat backend, e.g. "http://localhost:8080".
	APIBaseURL string

	// PollInterval is the pause between canonical fetches. Zero means polling
	// is paced only by PollRate/PollBurst, i.e. as fast as the transport and
	// the limiter allow. The staleness/load trade-off is deliberate and tunable.
	PollInterval time.Duration

	// PollRate and PollBurst bound the poll loop's request rate even when
	// PollInterval is zero.
	PollRate  float64
	PollBurst int

	// HTTPTimeout bounds every individual request to the backend.
	HTTPTimeout time.Duration

	// CredentialFile is where the session credential is persisted across runs.
	CredentialFile string

	// SessionTTL is the client-side credential lifetime applied at login.
	SessionTTL time.Duration
}

// ServerConfig contains the development server's settings.
type ServerConfig struct {
	Environment    string
	Port           int
	JWTSecret      string
	AllowedOrigins []string

	// Optional S3-compatible storage for uploaded avatars. When BucketName is
	// empty, avatars are held in memory and served by the server itself.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// LoadClientConfig reads the client configuration from environment variables,
// applying defaults suitable for talking to a local development server.
func LoadClientConfig() (*ClientConfig, error) {
	cfg := &ClientConfig{}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.APIBaseURL = os.Getenv("PARLEY_API_URL")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:8080"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	interval, err := durationEnv("PARLEY_POLL_INTERVAL", 250*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("PARLEY_POLL_INTERVAL must not be negative")
	}
	cfg.PollInterval = interval

	rate, err := floatEnv("PARLEY_POLL_RATE", 8)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("PARLEY_POLL_RATE must be positive")
	}
	cfg.PollRate = rate

	burst, err := intEnv("PARLEY_POLL_BURST", 2)
	if err != nil {
		return nil, err
	}
	if burst < 1 {
		return nil, fmt.Errorf("PARLEY_POLL_BURST must be at least 1")
	}
	cfg.PollBurst = burst

	timeout, err := durationEnv("PARLEY_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.CredentialFile = os.Getenv("PARLEY_CREDENTIAL_FILE")
	if cfg.CredentialFile == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine user config dir and PARLEY_CREDENTIAL_FILE is unset: %w", err)
		}
		cfg.CredentialFile = filepath.Join(configDir, "parley", "credential.json")
	}

	ttl, err := durationEnv("PARLEY_SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("PARLEY_SESSION_TTL must be positive")
	}
	cfg.SessionTTL = ttl

	return cfg, nil
}

// LoadServerConfig reads the development server configuration from environment
// variables. The JWT secret gets an insecure default in development only.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if cfg.Environment == "development" {
		if jwtSecret == "" {
			jwtSecret = "parleyd_insecure_development_secret"
		}
	} else {
		if jwtSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.JWTSecret = jwtSecret

	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// S3 settings are optional as a group: either all present or all absent.
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	if cfg.S3BucketName != "" {
		if cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is set but S3_ENDPOINT, S3_ACCESS_KEY_ID or S3_SECRET_ACCESS_KEY is missing")
		}
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

func floatEnv(name string, def float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}
