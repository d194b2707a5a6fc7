package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers supported for submission artifacts.
const (
	StorageDriverCloudinary = "cloudinary"
	StorageDriverMinIO      = "minio"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	JWTSecret              string
	StorageDriver          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOBucket            string
	MinIOUseSSL            bool
	UploadMaxSizeMB        int
	ResultsCacheTTL        time.Duration
	GradingRateLimit       int
	GradingRateWindow      time.Duration
	SeedEnabled            bool
	SeedToken              string
	CORSAllowOrigins       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PEERGRADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Peer Grading API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "peergrade:grading")
	v.SetDefault("storage.driver", StorageDriverCloudinary)
	v.SetDefault("cloudinary.folder", "peergrade/submissions")
	v.SetDefault("minio.bucket", "submissions")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("results.cache_ttl", "5m")
	v.SetDefault("grading.rate_limit", 30)
	v.SetDefault("grading.rate_window", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("cors.allow_origins", "*")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttl, err := parseDuration(v.GetString("results.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid results cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("grading.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		StorageDriver:          strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		MinIOEndpoint:          v.GetString("minio.endpoint"),
		MinIOAccessKey:         v.GetString("minio.access_key"),
		MinIOSecretKey:         v.GetString("minio.secret_key"),
		MinIOBucket:            v.GetString("minio.bucket"),
		MinIOUseSSL:            v.GetBool("minio.use_ssl"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		ResultsCacheTTL:        ttl,
		GradingRateLimit:       v.GetInt("grading.rate_limit"),
		GradingRateWindow:      window,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageDriverCloudinary, StorageDriverMinIO:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.GradingRateLimit <= 0 {
		cfg.GradingRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
