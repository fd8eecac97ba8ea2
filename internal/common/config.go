package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Analyzer AnalyzerConfig
	LLM      LLMConfig
	Store    StoreConfig
	OCR      OCRConfig
	Server   ServerConfig
	Render   RenderConfig
	TempDir  string
}

// AnalyzerConfig selects and configures the layout analysis backend.
type AnalyzerConfig struct {
	Backend      string // "azure" | "local"
	Endpoint     string
	Key          string
	Model        string
	APIVersion   string
	PollInterval time.Duration
	Timeout      time.Duration
	MaxPolls     int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string // "azure" | "openai" | "gemini"
	Temperature float32
	Timeout     time.Duration

	Azure  AzureOpenAIConfig
	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

type AzureOpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// StoreConfig holds job audit store configuration
type StoreConfig struct {
	Driver          string // "sqlite" | "postgres" | "none"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds configuration for the local analyzer
type OCRConfig struct {
	TessdataDir   string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	HealthAddr string
	InboxDir   string
	OutboxDir  string
	Debounce   time.Duration
}

// RenderConfig holds markdown rendering switches
type RenderConfig struct {
	EscapeCells bool
}

const (
	AnalyzerAzure = "azure"
	AnalyzerLocal = "local"

	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return loadConfig(fileConfig{})
}

func loadConfig(fc fileConfig) *Config {
	cfg := &Config{
		Analyzer: AnalyzerConfig{
			Backend:      strings.ToLower(getEnv("ANALYZER", or(fc.Analyzer.Backend, AnalyzerAzure))),
			Endpoint:     getEnv("VISION_ENDPOINT", fc.Analyzer.Endpoint),
			Key:          getEnv("VISION_KEY", fc.Analyzer.Key),
			Model:        getEnv("VISION_MODEL", or(fc.Analyzer.Model, "prebuilt-layout")),
			APIVersion:   getEnv("VISION_API_VERSION", or(fc.Analyzer.APIVersion, "2024-11-30")),
			PollInterval: getEnvAsDuration("VISION_POLL_INTERVAL", orDuration(fc.Analyzer.PollInterval, time.Second)),
			Timeout:      getEnvAsDuration("VISION_TIMEOUT", orDuration(fc.Analyzer.Timeout, 2*time.Minute)),
			MaxPolls:     getEnvAsInt("VISION_MAX_POLLS", orInt(fc.Analyzer.MaxPolls, 120)),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", or(fc.LLM.Provider, ProviderAzure))),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", fc.LLM.Temperature),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", orDuration(fc.LLM.Timeout, 90*time.Second)),
			Azure: AzureOpenAIConfig{
				Endpoint:   getEnv("AZURE_OPENAI_ENDPOINT", fc.LLM.Azure.Endpoint),
				APIKey:     getEnv("AZURE_OPENAI_API_KEY", fc.LLM.Azure.APIKey),
				Deployment: getEnv("AZURE_OPENAI_DEPLOYMENT", or(fc.LLM.Azure.Deployment, "gpt-4o-mini")),
				APIVersion: getEnv("AZURE_OPENAI_API_VERSION", or(fc.LLM.Azure.APIVersion, "2024-08-01-preview")),
			},
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", fc.LLM.OpenAI.APIKey),
				BaseURL: getEnv("OPENAI_BASE_URL", or(fc.LLM.OpenAI.BaseURL, "https://api.openai.com/v1")),
				Model:   getEnv("OPENAI_MODEL", or(fc.LLM.OpenAI.Model, "gpt-4o-mini")),
			},
			Gemini: GeminiConfig{
				APIKey: getEnv("GEMINI_API_KEY", fc.LLM.Gemini.APIKey),
				Model:  getEnv("GEMINI_MODEL", or(fc.LLM.Gemini.Model, "gemini-1.5-flash")),
			},
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("JOB_STORE_DRIVER", or(fc.Store.Driver, StoreNone))),
			DSN:             getEnv("JOB_STORE_DSN", fc.Store.DSN),
			MaxConns:        getEnvAsInt32("JOB_STORE_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("JOB_STORE_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("JOB_STORE_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("JOB_STORE_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			TessdataDir:   getEnv("TESSDATA_PREFIX", fc.OCR.TessdataDir),
			TesseractLang: getEnv("TESSERACT_LANG", or(fc.OCR.TesseractLang, "eng")),
			DPI:           getEnvAsInt("OCR_DPI", orInt(fc.OCR.DPI, 300)),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", fc.OCR.MaxPages),
		},
		Server: ServerConfig{
			HealthAddr: getEnv("HEALTH_ADDR", or(fc.Server.HealthAddr, ":8081")),
			InboxDir:   getEnv("INBOX_DIR", fc.Server.InboxDir),
			OutboxDir:  getEnv("OUTBOX_DIR", fc.Server.OutboxDir),
			Debounce:   getEnvAsDuration("INBOX_DEBOUNCE", orDuration(fc.Server.Debounce, 750*time.Millisecond)),
		},
		Render: RenderConfig{
			EscapeCells: getEnvAsBool("MARKDOWN_ESCAPE_CELLS", fc.Render.EscapeCells),
		},
		TempDir: getEnv("TEMP_DIR", fc.TempDir),
	}
	return cfg
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

// Validate checks that every external dependency the selected backends need is configured.
// It runs before any file is touched.
func (c *Config) Validate() error {
	if err := c.Analyzer.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreNone, "":
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			return NewConfigurationError("JOB_STORE_DSN is required", nil)
		}
	default:
		return NewConfigurationError(fmt.Sprintf("unknown JOB_STORE_DRIVER %q", c.Store.Driver), nil)
	}
	return nil
}

// Validate checks the selected analysis backend only.
func (c AnalyzerConfig) Validate() error {
	switch c.Backend {
	case AnalyzerAzure:
		if c.Endpoint == "" || c.Key == "" {
			return NewConfigurationError("VISION_ENDPOINT and VISION_KEY must be set", nil)
		}
	case AnalyzerLocal:
	default:
		return NewConfigurationError(fmt.Sprintf("unknown ANALYZER %q", c.Backend), nil)
	}
	return nil
}

// Validate checks the selected LLM provider only.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderAzure:
		if c.Azure.Endpoint == "" || c.Azure.APIKey == "" {
			return NewConfigurationError("AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY must be set", nil)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return NewConfigurationError("OPENAI_API_KEY is required", nil)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return NewConfigurationError("GEMINI_API_KEY is required", nil)
		}
	default:
		return NewConfigurationError(fmt.Sprintf("unknown LLM_PROVIDER %q", c.Provider), nil)
	}
	return nil
}
