package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingRPS     float64

	GenerationModel       string
	GenerationTemperature float64
	GenerationMaxTokens   int

	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string
	PineconeTimeout   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL       time.Duration
	CacheLocalSize int

	RateLimitPerMinute int
	RateLimitPerHour   int
	RateLimitPerDay    int

	RetrievalPartialResults bool
	OTelEnabled             bool
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "chat-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "chat_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "chat_password"),
		DBName:     getEnv("DB_NAME", "chat_db"),

		OpenAIAPIKey:     getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		EmbeddingBaseURL: getEnvWithAlt("EMBEDDING_BASE_URL", "OPENAI_BASE_URL", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingRPS:     getEnvFloat("EMBEDDING_RPS", 0),

		GenerationModel:       getEnv("GENERATION_MODEL", "gpt-4o-mini"),
		GenerationTemperature: getEnvFloat("GENERATION_TEMPERATURE", 0.2),
		GenerationMaxTokens:   getEnvInt("GENERATION_MAX_TOKENS", 1024),

		PineconeAPIKey:    getSecret("PINECONE_API_KEY", "PINECONE_API_KEY_FILE", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", ""),
		PineconeTimeout:   getEnvDuration("PINECONE_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "chat-redis:6379"),
		RedisPassword: getSecret("REDIS_PASSWORD", "REDIS_PASSWORD_FILE", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CacheTTL:       getEnvDuration("ANSWER_CACHE_TTL", 24*time.Hour),
		CacheLocalSize: getEnvInt("ANSWER_CACHE_LOCAL_SIZE", 256),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		RateLimitPerHour:   getEnvInt("RATE_LIMIT_PER_HOUR", 100),
		RateLimitPerDay:    getEnvInt("RATE_LIMIT_PER_DAY", 500),

		RetrievalPartialResults: getEnvBool("RETRIEVAL_PARTIAL_RESULTS", false),
		OTelEnabled:             getEnvBool("OTEL_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
