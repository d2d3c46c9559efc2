// Package config defines the global configuration structure for the CropSense
// platform. Configuration is loaded once at process initialization and is
// immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup.
package config

import "time"

// Config is the top-level configuration struct for the CropSense platform.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"cropsense-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	AI       AIConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// CORS origins, comma separated. "*" allows any origin.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds catalog store connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"required"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// WeatherConfig holds the weather provider credentials and timeouts.
// The primary provider (WeatherAPI.com) is tried first; the point-forecast
// provider (Windy) is the secondary. Either key may be empty, in which case
// that source reports itself unconfigured and the chain moves on.
type WeatherConfig struct {
	PrimaryBaseURL   string        `envconfig:"WEATHER_API_BASE_URL" default:"https://api.weatherapi.com/v1"`
	PrimaryKey       string        `envconfig:"WEATHER_API_KEY"`
	SecondaryBaseURL string        `envconfig:"WINDY_POINT_BASE_URL" default:"https://api.windy.com/api/point-forecast/v2.0"`
	SecondaryKey     string        `envconfig:"WINDY_POINT_API_KEY"`
	RequestTimeout   time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"10s"`
	ForecastDays     int           `envconfig:"WEATHER_FORECAST_DAYS" default:"5"`
}

// AIConfig holds the chat-completion endpoint configuration and the ordered
// model preference list probed at startup.
type AIConfig struct {
	Token        string        `envconfig:"AI_MODELS_TOKEN"`
	Endpoint     string        `envconfig:"AI_CHAT_ENDPOINT" default:"https://models.inference.ai.azure.com/chat/completions"`
	Models       []string      `envconfig:"AI_MODEL_PREFERENCE" default:"gpt-4o-mini,gpt-4o,gpt-4"`
	ProbeTimeout time.Duration `envconfig:"AI_PROBE_TIMEOUT" default:"10s"`
	ChatTimeout  time.Duration `envconfig:"AI_CHAT_TIMEOUT" default:"20s"`
}

// CatalogConfig holds catalog search behavior switches.
type CatalogConfig struct {
	// StrictFilterPagination switches post-fetch attribute filters (category,
	// climate zone, water requirement) from page-local narrowing to
	// filter-before-paginate semantics. Off by default to preserve the
	// observable behavior existing consumers depend on.
	StrictFilterPagination bool `envconfig:"CATALOG_STRICT_FILTER_PAGINATION" default:"false"`

	// DefaultLimit and MaxLimit bound list/search page sizes.
	DefaultLimit int `envconfig:"CATALOG_DEFAULT_LIMIT" default:"50"`
	MaxLimit     int `envconfig:"CATALOG_MAX_LIMIT" default:"200"`
	// TrainingExportLimit caps the AI training projection when the caller
	// does not supply a limit.
	TrainingExportLimit int `envconfig:"CATALOG_TRAINING_EXPORT_LIMIT" default:"1000"`
}
