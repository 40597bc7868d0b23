package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel       OTelConfig
	Pipeline   PipelineConfig
	LLM        LLMConfig
	Retry      RetryConfig
	Prompt     PromptConfig
	Validation ValidationConfig
	PII        PIIConfig
	Store      StoreConfig
	Env        string
	Port       string
	Version    string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type PipelineConfig struct {
	RedisURL       string
	RedisStream    string
	RedisGroup     string
	RedisDLQStream string
	RedisConsumer  string
}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	FallbackModels []string
	MaxTokens      int
	Temperature    float64
}

type RetryConfig struct {
	MaxRetries      int     // standard strategy attempt bound
	BackoffBase     float64 // seconds; delay = base * 2^attempt
	ShrinkRetries   int     // shrink strategy attempt bound
	ShrinkTopN      int
	ShrinkBodyLimit int
}

type PromptConfig struct {
	BodyLimit     int // normal-mode body truncation, chars
	CandidateTopN int // candidates included in the prompt
}

type ValidationConfig struct {
	MinConfidenceWarn    float64
	CheckEvidencePresent bool
	CheckKeywordPresent  bool
}

type PIIConfig struct {
	RedactForLLM bool
	RedactTypes  []string
}

type StoreConfig struct {
	ResultTTLSeconds int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.worker for the background worker
//
// Falls back to .env if the service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("TRIAGE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:     getEnv("TRIAGE_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		Version: getEnv("TRIAGE_VERSION", "dev"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "triage-inference"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Pipeline: PipelineConfig{
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:    getEnv("REDIS_STREAM", "triage_requests"),
			RedisGroup:     getEnv("REDIS_CONSUMER_GROUP", "triage_group"),
			RedisDLQStream: getEnv("REDIS_DLQ_STREAM", "triage_requests_dlq"),
			RedisConsumer:  getEnv("REDIS_CONSUMER_NAME", "triage-worker"),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("LLM_API_KEY", ""),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			FallbackModels: getEnvList("LLM_FALLBACK_MODELS"),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 2048),
			Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.1),
		},
		Retry: RetryConfig{
			MaxRetries:      getEnvInt("MAX_RETRIES", 3),
			BackoffBase:     getEnvFloat("RETRY_BACKOFF_BASE", 2.0),
			ShrinkRetries:   getEnvInt("SHRINK_RETRIES", 2),
			ShrinkTopN:      getEnvInt("SHRINK_TOP_N", 50),
			ShrinkBodyLimit: getEnvInt("SHRINK_BODY_LIMIT", 4000),
		},
		Prompt: PromptConfig{
			BodyLimit:     getEnvInt("BODY_TRUNCATION_LIMIT", 8000),
			CandidateTopN: getEnvInt("CANDIDATE_TOP_N", 100),
		},
		Validation: ValidationConfig{
			MinConfidenceWarn:    getEnvFloat("MIN_CONFIDENCE_WARNING_THRESHOLD", 0.2),
			CheckEvidencePresent: getEnvBool("ENABLE_EVIDENCE_PRESENCE_CHECK", true),
			CheckKeywordPresent:  getEnvBool("ENABLE_KEYWORD_PRESENCE_CHECK", true),
		},
		PII: PIIConfig{
			RedactForLLM: getEnvBool("REDACT_FOR_LLM", false),
			RedactTypes:  getEnvListDefault("REDACT_PII_TYPES", []string{"CF", "PHONE_IT", "EMAIL", "NAME"}),
		},
		Store: StoreConfig{
			ResultTTLSeconds: getEnvInt("RESULT_TTL_SECONDS", 86400),
		},
	}

	if cfg.LLM.APIKey == "" {
		return Config{}, fmt.Errorf("LLM_API_KEY is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvListDefault(key string, fallback []string) []string {
	if list := getEnvList(key); list != nil {
		return list
	}
	return fallback
}
