package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Keys     APIKeys
	Breaker  BreakerConfig
	Cache    CacheConfig
	Session  SessionConfig
	Fallback FallbackConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	QueryEventTopic    string
}

type APIKeys struct {
	AirNow string
	OpenAQ string
}

type BreakerConfig struct {
	Threshold int
	Window    time.Duration
	Cooldown  time.Duration
}

type CacheConfig struct {
	EducationalTTL time.Duration
	SearchTTL      time.Duration
	RealTimeTTL    time.Duration
	ForecastTTL    time.Duration
	BypassRealTime bool
	MaxEntries     int
}

type SessionConfig struct {
	TTL           time.Duration
	MaxSessions   int
	MaxDocuments  int
	DocumentTTL   time.Duration
	SweepInterval time.Duration
	MinEvictIdle  time.Duration
}

type FallbackConfig struct {
	AdapterTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			QueryEventTopic:    getEnv("QUERY_EVENT_TOPIC_NAME", "QUERY_COMPLETED"),
		},
		Keys: APIKeys{
			AirNow: getEnv("AIRNOW_API_KEY", ""),
			OpenAQ: getEnv("OPENAQ_API_KEY", ""),
		},
		Breaker: BreakerConfig{
			Threshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 3),
			Window:    getEnvAsDuration("BREAKER_FAILURE_WINDOW", 5*time.Minute),
			Cooldown:  getEnvAsDuration("BREAKER_COOLDOWN", 10*time.Minute),
		},
		Cache: CacheConfig{
			EducationalTTL: getEnvAsDuration("CACHE_TTL_EDUCATIONAL", 6*time.Hour),
			SearchTTL:      getEnvAsDuration("CACHE_TTL_SEARCH", 1*time.Hour),
			RealTimeTTL:    getEnvAsDuration("CACHE_TTL_REALTIME", 2*time.Minute),
			ForecastTTL:    getEnvAsDuration("CACHE_TTL_FORECAST", 15*time.Minute),
			BypassRealTime: getEnvAsBool("CACHE_BYPASS_REALTIME", false),
			MaxEntries:     getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 1*time.Hour),
			MaxSessions:   getEnvAsInt("SESSION_MAX_CONCURRENT", 50),
			MaxDocuments:  getEnvAsInt("SESSION_MAX_DOCUMENTS", 3),
			DocumentTTL:   getEnvAsDuration("SESSION_DOCUMENT_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
			MinEvictIdle:  getEnvAsDuration("SESSION_MIN_EVICT_IDLE", 1*time.Minute),
		},
		Fallback: FallbackConfig{
			AdapterTimeout: getEnvAsDuration("ADAPTER_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
