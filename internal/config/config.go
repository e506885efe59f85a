package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"workspace-context-be/pkg/llm"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Workspace WorkspaceConfig
	LLM       llm.Config
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string // empty disables the API guard
}

type WorkspaceConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	EventsTopic     string
}

type TracingConfig struct {
	Enabled        bool
	Endpoint       string
	SampleRatio    float64 // share of root spans kept; remote parents decide for their children
	ServiceVersion string
	Environment    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only
func FromEnv() *Config {
	environment := getEnv("GO_ENV", "development")
	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        environment,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "logs/selection_stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Workspace: WorkspaceConfig{
			TTL:             getEnvAsDuration("WORKSPACE_TTL", time.Hour),
			CleanupInterval: getEnvAsDuration("WORKSPACE_CLEANUP_INTERVAL", 10*time.Minute),
			EventsTopic:     getEnv("WORKSPACE_EVENTS_TOPIC", "WORKSPACE_EVENTS"),
		},
		LLM: llm.Config{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			BaseURL:     getEnv("LLM_API_URL", ""),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", ""),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:        getEnv("OTEL_ENABLED", "") == "true",
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio:    getEnvAsFloat("OTEL_TRACES_SAMPLER_RATIO", 1.0),
			ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
			Environment:    environment,
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return fallback
}
