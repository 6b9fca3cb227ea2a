// Load envs from .env
// Load YAML config
// Override from environment
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the YAML file when none is given.
const DefaultPath = "configs/config.yaml"

const (
	DefaultTerms    = "software, developer, computer science, programmer"
	DefaultLocation = "Atlanta, GA"
	DefaultOutput   = "job_posts.json"
	DefaultCSV      = "job_results.csv"
)

type Config struct {
	//Search criteria
	Terms    []string `yaml:"terms" validate:"required,min=1,dive,required"`
	Location string   `yaml:"location"`
	Target   int      `yaml:"target" validate:"gt=0"`

	//Site and browser
	Site          string        `yaml:"site" validate:"oneof=indeed"`
	BaseURL       string        `yaml:"base_url" validate:"omitempty,url"`
	Driver        string        `yaml:"driver" validate:"oneof=playwright static"`
	Headless      bool          `yaml:"headless"`
	Humanize      bool          `yaml:"humanize"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	FetchAttempts int           `yaml:"fetch_attempts" validate:"gt=0"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`

	//Paths
	Output        string `yaml:"output" validate:"required"`
	CSVOutput     string `yaml:"csv_output" validate:"required"`
	CookiesPath   string `yaml:"cookies_path"`
	CachePath     string `yaml:"cache_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	//Sinks and reporters
	DatabaseURL    string `yaml:"database_url"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	//Analysis
	LLMBaseURL  string `yaml:"llm_base_url" validate:"omitempty,url"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LLMModel    string `yaml:"llm_model"`
	AnalyzeMode string `yaml:"analyze_mode" validate:"oneof=questions full"`
	MaxTokens   int    `yaml:"max_tokens" validate:"gte=0"`

	//Service
	ServerAddr string `yaml:"server_addr"`
	LogLevel   string `yaml:"log_level"`
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{Headless: true}
	cfg.applyDefaults()
	return cfg
}

// Load reads .env, then the YAML file at path, then environment overrides.
// A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	//Load yaml config
	cfg := &Config{Headless: true}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	//Override with env vars
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	//Set default values if not set
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config. Call it again after flags override fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if terms := os.Getenv("HARVESTER_TERMS"); terms != "" {
		c.Terms = ParseTerms(terms)
	}
	if location := os.Getenv("HARVESTER_LOCATION"); location != "" {
		c.Location = location
	}
	if target := os.Getenv("HARVESTER_TARGET"); target != "" {
		n, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("invalid HARVESTER_TARGET: %w", err)
		}
		c.Target = n
	}
	if output := os.Getenv("HARVESTER_OUTPUT"); output != "" {
		c.Output = output
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.DatabaseURL = dsn
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLMBaseURL = baseURL
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.LLMAPIKey = key
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLMModel = model
	}
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddr = ":" + port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Terms) == 0 {
		c.Terms = ParseTerms(DefaultTerms)
	}
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.Target == 0 {
		c.Target = 100
	}
	if c.Site == "" {
		c.Site = "indeed"
	}
	if c.Driver == "" {
		c.Driver = "playwright"
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.FetchAttempts == 0 {
		c.FetchAttempts = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Second
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.CSVOutput == "" {
		c.CSVOutput = DefaultCSV
	}
	if c.LLMBaseURL == "" {
		c.LLMBaseURL = "http://localhost:1234/v1"
	}
	if c.LLMModel == "" {
		c.LLMModel = "local-model"
	}
	if c.AnalyzeMode == "" {
		c.AnalyzeMode = "questions"
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// ParseTerms splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func ParseTerms(s string) []string {
	var terms []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
