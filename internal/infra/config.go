package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment
// variables. It is constructed once at process start and passed by
// reference; nothing reads the environment after LoadConfig returns.
type Config struct {
	AppEnv string
	Port   string

	// DatabaseURL enables the plan-history store when set; the synthesis
	// pipeline itself runs without a database.
	DatabaseURL string

	LLMProvider           string // azure_openai | local | none
	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIDeployment string
	LocalLLMEndpoint      string
	LocalLLMModel         string

	DatabricksHost     string
	DatabricksToken    string
	DefaultClusterID   string
	DefaultWarehouseID string

	DefaultUnityCatalog string
	DefaultBasePath     string
	AgentStoragePath    string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	LLMTimeout       time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LLMProvider:           getEnv("LLM_PROVIDER", "azure_openai"),
		AzureOpenAIEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:        os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIDeployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
		LocalLLMEndpoint:      getEnv("LOCAL_LLM_ENDPOINT", "http://localhost:8000/v1/chat/completions"),
		LocalLLMModel:         getEnv("LOCAL_LLM_MODEL", "qwen2.5"),

		DatabricksHost:     os.Getenv("AZURE_DATABRICKS_HOST"),
		DatabricksToken:    os.Getenv("AZURE_DATABRICKS_TOKEN"),
		DefaultClusterID:   os.Getenv("DEFAULT_DATABRICKS_CLUSTER_ID"),
		DefaultWarehouseID: os.Getenv("DEFAULT_DATABRICKS_WAREHOUSE_ID"),

		DefaultUnityCatalog: getEnv("DEFAULT_UNITY_CATALOG", "uc_tarhone"),
		DefaultBasePath:     os.Getenv("DEFAULT_BASE_PATH"),
		AgentStoragePath:    getEnv("AGENT_STORAGE_PATH", "/tmp/ingestion-agent"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		LLMTimeout:       time.Second * time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)),
	}

	switch cfg.LLMProvider {
	case "azure_openai", "local", "none":
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
