package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Completion CompletionConfig `yaml:"completion"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Router     RouterConfig     `yaml:"router"`
	Escalation EscalationConfig `yaml:"escalation"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	Learning   LearningConfig   `yaml:"learning"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CompletionConfig holds chat completion configuration.
type CompletionConfig struct {
	Provider    string        `yaml:"provider" validate:"oneof=azure openai gemini mock"`
	Model       string        `yaml:"model" validate:"required"` // deployment name for azure
	APIKeyEnv   string        `yaml:"api_key_env"`               // Environment variable for API key
	EndpointEnv string        `yaml:"endpoint_env"`              // Environment variable for the base endpoint
	APIVersion  string        `yaml:"api_version"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider" validate:"oneof=azure openai gemini mock"`
	Model       string        `yaml:"model" validate:"required"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	EndpointEnv string        `yaml:"endpoint_env"`
	APIVersion  string        `yaml:"api_version"`
	BaseURL     string        `yaml:"base_url"`
	Dimension   int           `yaml:"dimension" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IndexConfig holds document pipeline configuration.
type IndexConfig struct {
	InputDir     string        `yaml:"input_dir"`
	Includes     []string      `yaml:"includes"`
	Excludes     []string      `yaml:"excludes"`
	ChunkSize    int           `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int           `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	BatchSize    int           `yaml:"batch_size" validate:"gt=0"`
	BatchDelay   time.Duration `yaml:"batch_delay" validate:"gte=0"`
	StorePath    string        `yaml:"store_path" validate:"required"`
	IndexPath    string        `yaml:"index_path" validate:"required"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK           int           `yaml:"top_k" validate:"gt=0"`
	DirectKeywords []string      `yaml:"direct_keywords"`
	ContextTokens  int           `yaml:"context_tokens" validate:"gte=0"` // 0 = unbounded
	TokenModel     string        `yaml:"token_model"`
	CacheSize      int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// RouterConfig holds classification and dispatch configuration.
type RouterConfig struct {
	DefaultThreshold   float64            `yaml:"default_threshold" validate:"gte=0,lte=1"`
	Thresholds         map[string]float64 `yaml:"thresholds" validate:"dive,keys,oneof=product learning org_chart workplace_comms onboarding,endkeys,gte=0,lte=1"`
	FallbackTag        string             `yaml:"fallback_tag" validate:"oneof=product learning org_chart workplace_comms onboarding"`
	FallbackConfidence float64            `yaml:"fallback_confidence" validate:"gte=0,lte=1"`
}

// EscalationConfig holds web escalation configuration.
type EscalationConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Provider     string        `yaml:"provider" validate:"oneof=duckduckgo serpapi"`
	QueryPrefix  string        `yaml:"query_prefix"`
	MaxResults   int           `yaml:"max_results" validate:"gt=0"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	MaxPageChars int           `yaml:"max_page_chars" validate:"gt=0"`
	Temperature  float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int           `yaml:"max_tokens" validate:"gt=0"`
}

// DirectoryConfig points at the organization chart and the weekly status
// report searched for who is working on what.
type DirectoryConfig struct {
	CSVPath     string `yaml:"csv_path"`
	UpdatesPath string `yaml:"updates_path"`
}

// OnboardingConfig holds onboarding document configuration.
type OnboardingConfig struct {
	Documents    []string `yaml:"documents"`
	ChunkSize    int      `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int      `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// LearningConfig holds course search configuration.
type LearningConfig struct {
	SerpAPIKeyEnv string `yaml:"serpapi_key_env"`
	MaxResults    int    `yaml:"max_results" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// DefaultDirectKeywords are product terms answered without retrieval.
var DefaultDirectKeywords = []string{
	"infoblox", "nios", "ipam", "dddi", "tdi", "netmri", "bloxone",
	"network insight", "cloud dhcp", "cloud dns", "cloud ipam",
	"bloxone threat defense", "grid manager", "dns firewall", "infoblox api",
	"ib-nios", "bloxapp", "threat intelligence", "data connector",
	"reporting server", "ib appliance", "infoblox central",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			Provider:    "azure",
			Model:       "gpt-4.1-mini",
			APIKeyEnv:   "AZURE_OPENAI_API_KEY",
			EndpointEnv: "AZURE_OPENAI_ENDPOINT",
			APIVersion:  "2025-01-01-preview",
			Timeout:     120 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:    "azure",
			Model:       "embedding-ada",
			APIKeyEnv:   "AZURE_OPENAI_API_KEY",
			EndpointEnv: "AZURE_OPENAI_ENDPOINT",
			APIVersion:  "2025-01-01-preview",
			Dimension:   1536,
			Timeout:     60 * time.Second,
		},
		Index: IndexConfig{
			InputDir:     "./input",
			Includes:     []string{"**/*.pdf", "**/*.docx", "**/*.pptx", "**/*.xlsx", "**/*.md", "**/*.txt", "**/*.csv"},
			Excludes:     []string{"**/.git/**", "**/.bloxmate/**", "**/~$*"},
			ChunkSize:    500,
			ChunkOverlap: 100,
			BatchSize:    30,
			BatchDelay:   time.Second,
			StorePath:    filepath.Join(".bloxmate", "embeddings.db"),
			IndexPath:    filepath.Join(".bloxmate", "vector_index.db"),
		},
		Retrieve: RetrieveConfig{
			TopK:           8,
			DirectKeywords: append([]string(nil), DefaultDirectKeywords...),
			ContextTokens:  6000,
			TokenModel:     "gpt-4",
			CacheSize:      100,
			CacheTTL:       5 * time.Minute,
		},
		Router: RouterConfig{
			DefaultThreshold:   0.6,
			Thresholds:         map[string]float64{},
			FallbackTag:        "product",
			FallbackConfidence: 0.5,
		},
		Escalation: EscalationConfig{
			Enabled:      true,
			Provider:     "duckduckgo",
			QueryPrefix:  "infoblox",
			MaxResults:   3,
			FetchTimeout: 10 * time.Second,
			MaxPageChars: 10000,
			Temperature:  0.3,
			MaxTokens:    1000,
		},
		Directory: DirectoryConfig{
			CSVPath:     filepath.Join("data", "org_chart.csv"),
			UpdatesPath: filepath.Join("data", "weekly_updates.pdf"),
		},
		Onboarding: OnboardingConfig{
			ChunkSize:    300,
			ChunkOverlap: 50,
		},
		Learning: LearningConfig{
			SerpAPIKeyEnv: "SERPAPI_API_KEY",
			MaxResults:    3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Threshold returns the dispatch threshold for an agent tag.
func (r RouterConfig) Threshold(tag string) float64 {
	if t, ok := r.Thresholds[tag]; ok {
		return t
	}
	return r.DefaultThreshold
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for bloxmate.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "bloxmate.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".bloxmate", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Resolve makes relative store, index, input, directory, and document paths
// relative to dir.
func (c *Config) Resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Index.InputDir = abs(c.Index.InputDir)
	c.Index.StorePath = abs(c.Index.StorePath)
	c.Index.IndexPath = abs(c.Index.IndexPath)
	c.Directory.CSVPath = abs(c.Directory.CSVPath)
	c.Directory.UpdatesPath = abs(c.Directory.UpdatesPath)
	for i, d := range c.Onboarding.Documents {
		c.Onboarding.Documents[i] = abs(d)
	}
}

// EnsureDataDir ensures the parent directories of the store and index exist.
func (c *Config) EnsureDataDir() error {
	for _, p := range []string{c.Index.StorePath, c.Index.IndexPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
	}
	return nil
}
