package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultHTTPPort        = "8080"
	defaultTemporalAddress = "localhost:7233"
	defaultTemporalNS      = "default"
	defaultTaskQueue       = "crew-pay-task-queue"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenAITimeout   = 30
	defaultNATSURL         = "nats://localhost:4222"
	defaultMinioEndpoint   = "localhost:9000"
	defaultMinioBucket     = "claims"
)

// Config is loaded once at process start and passed down explicitly;
// it is read-only afterwards.
type Config struct {
	HTTPPort          string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAITimeoutSec  int

	NATSURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	WorkflowIDPrefix   string
	AllowedUploadBytes int64

	// Validation thresholds.
	MaxRegularHoursPerWeek    float64
	MaxOvertimeHoursPerWeek   float64
	MinimumHourlyWage         float64
	AutoApproveClaimThreshold float64

	// Feature toggles.
	EnableComplianceChecks bool
	EnableNotifications    bool

	// Defensive bound on workflow node visits; the graph depth is fixed
	// at three, so this is never reached in practice.
	MaxIterations int
}

func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          getenv("HTTP_PORT", defaultHTTPPort),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		TemporalAddress:   getenv("TEMPORAL_ADDRESS", defaultTemporalAddress),
		TemporalNamespace: getenv("TEMPORAL_NAMESPACE", defaultTemporalNS),
		TemporalTaskQueue: getenv("TEMPORAL_TASK_QUEUE", defaultTaskQueue),

		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getenv("OPENAI_MODEL", defaultOpenAIModel),
		OpenAITemperature: getenvFloat("OPENAI_TEMPERATURE", 0),
		OpenAITimeoutSec:  getenvInt("OPENAI_TIMEOUT_SEC", defaultOpenAITimeout),

		NATSURL: getenv("NATS_URL", defaultNATSURL),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", defaultMinioEndpoint),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", defaultMinioBucket),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		WorkflowIDPrefix:   getenv("WORKFLOW_ID_PREFIX", "crew-pay"),
		AllowedUploadBytes: int64(getenvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),

		MaxRegularHoursPerWeek:    getenvFloat("MAX_REGULAR_HOURS_PER_WEEK", 40),
		MaxOvertimeHoursPerWeek:   getenvFloat("MAX_OVERTIME_HOURS_PER_WEEK", 20),
		MinimumHourlyWage:         getenvFloat("MINIMUM_HOURLY_WAGE", 15),
		AutoApproveClaimThreshold: getenvFloat("AUTO_APPROVE_CLAIM_THRESHOLD", 0),

		EnableComplianceChecks: getenvBool("ENABLE_COMPLIANCE_CHECKS", true),
		EnableNotifications:    getenvBool("ENABLE_NOTIFICATIONS", true),

		MaxIterations: getenvInt("MAX_ITERATIONS", 10),
	}

	if cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("POSTGRES_DSN is required")
	}

	return cfg, nil
}

func getenv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
