package common

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML files. Values act as defaults; environment variables win.
type fileConfig struct {
	Analyzer struct {
		Backend      string        `yaml:"backend"`
		Endpoint     string        `yaml:"endpoint"`
		Key          string        `yaml:"key"`
		Model        string        `yaml:"model"`
		APIVersion   string        `yaml:"api_version"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxPolls     int           `yaml:"max_polls"`
	} `yaml:"analyzer"`
	LLM struct {
		Provider    string        `yaml:"provider"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
		Azure       struct {
			Endpoint   string `yaml:"endpoint"`
			APIKey     string `yaml:"api_key"`
			Deployment string `yaml:"deployment"`
			APIVersion string `yaml:"api_version"`
		} `yaml:"azure"`
		OpenAI struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url"`
			Model   string `yaml:"model"`
		} `yaml:"openai"`
		Gemini struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
	} `yaml:"llm"`
	Store struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`
	OCR struct {
		TessdataDir   string `yaml:"tessdata_dir"`
		TesseractLang string `yaml:"lang"`
		DPI           int    `yaml:"dpi"`
		MaxPages      int    `yaml:"max_pages"`
	} `yaml:"ocr"`
	Server struct {
		HealthAddr string        `yaml:"health_addr"`
		InboxDir   string        `yaml:"inbox_dir"`
		OutboxDir  string        `yaml:"outbox_dir"`
		Debounce   time.Duration `yaml:"debounce"`
	} `yaml:"server"`
	Render struct {
		EscapeCells bool `yaml:"escape_cells"`
	} `yaml:"render"`
	TempDir string `yaml:"temp_dir"`
}

// LoadConfigFile reads a YAML config file and overlays environment variables on top of it.
// An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return LoadConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("read config file %s", path), err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("parse config file %s", path), err)
	}
	return loadConfig(fc), nil
}
