// Package config loads and validates application configuration from a YAML
// file with environment-variable overrides. It provides typed structs for
// every subsystem (Corpus, Retrieval, Model, Encyclopedia, Session, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus       CorpusConfig       `yaml:"corpus"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Model        ModelConfig        `yaml:"model"`
	Encyclopedia EncyclopediaConfig `yaml:"encyclopedia"`
	Session      SessionConfig      `yaml:"session"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// Duration wraps time.Duration so YAML values like "20s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CorpusConfig locates the news-article file and controls the relevance
// filter applied at load time.
type CorpusConfig struct {
	Path         string   `yaml:"path"`
	Keywords     []string `yaml:"keywords"`
	MinBodyChars int      `yaml:"minBodyChars"`
}

// RetrievalConfig controls ranking behavior.
type RetrievalConfig struct {
	TopK      int  `yaml:"topK"`
	Stopwords bool `yaml:"stopwords"`
}

// ModelConfig selects and tunes the answer-extraction backend.
type ModelConfig struct {
	Provider        string   `yaml:"provider"`
	Endpoint        string   `yaml:"endpoint"`
	Model           string   `yaml:"model"`
	APIKeyEnv       string   `yaml:"apiKeyEnv"`
	Timeout         Duration `yaml:"timeout"`
	MaxContextWords int      `yaml:"maxContextWords"`
	Preamble        string   `yaml:"preamble"`
	MaxAttempts     int      `yaml:"maxAttempts"`
}

// EncyclopediaConfig tunes the background-summary lookups. BaseURL is the
// root of a MediaWiki installation; the client appends /w/api.php.
type EncyclopediaConfig struct {
	BaseURL          string   `yaml:"baseUrl"`
	Timeout          Duration `yaml:"timeout"`
	MaxSentences     int      `yaml:"maxSentences"`
	Disambiguation   string   `yaml:"disambiguation"`
	FailureThreshold int      `yaml:"failureThreshold"`
}

// SessionConfig controls the interactive loop and its side outputs.
type SessionConfig struct {
	OutputPath string `yaml:"outputPath"`
	Prompt     string `yaml:"prompt"`
	Transcript bool   `yaml:"transcript"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with working defaults for everything except
// the corpus path, which has no sane default and must be provided.
func defaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Keywords:     []string{"Israel", "Hamas", "Palestine", "Gaza", "war", "conflict"},
			MinBodyChars: 1,
		},
		Retrieval: RetrievalConfig{
			TopK:      10,
			Stopwords: true,
		},
		Model: ModelConfig{
			Provider:        "huggingface",
			Endpoint:        "https://api-inference.huggingface.co",
			Model:           "bert-large-uncased-whole-word-masking-finetuned-squad",
			APIKeyEnv:       "HF_API_TOKEN",
			Timeout:         Duration(20 * time.Second),
			MaxContextWords: 400,
			Preamble: "You are an investigative bot designed to analyze articles regarding the Israel-Hamas conflict. " +
				"Summarize the following content based on the user's question in 4-5 sentences to the best of your ability and knowledge.",
			MaxAttempts: 3,
		},
		Encyclopedia: EncyclopediaConfig{
			BaseURL:          "https://en.wikipedia.org",
			Timeout:          Duration(10 * time.Second),
			MaxSentences:     5,
			Disambiguation:   "first",
			FailureThreshold: 3,
		},
		Session: SessionConfig{
			OutputPath: "top_articles.txt",
			Prompt:     "Enter your question (or type 'exit' to quit): ",
			Transcript: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads NEWSQA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWSQA_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("NEWSQA_CORPUS_KEYWORDS"); v != "" {
		cfg.Corpus.Keywords = strings.Split(v, ",")
	}
	if v := os.Getenv("NEWSQA_RETRIEVAL_TOPK"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.TopK = k
		}
	}
	if v := os.Getenv("NEWSQA_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("NEWSQA_MODEL_ENDPOINT"); v != "" {
		cfg.Model.Endpoint = v
	}
	if v := os.Getenv("NEWSQA_MODEL_NAME"); v != "" {
		cfg.Model.Model = v
	}
	if v := os.Getenv("NEWSQA_MODEL_API_KEY_ENV"); v != "" {
		cfg.Model.APIKeyEnv = v
	}
	if v := os.Getenv("NEWSQA_ENCYCLOPEDIA_BASE_URL"); v != "" {
		cfg.Encyclopedia.BaseURL = v
	}
	if v := os.Getenv("NEWSQA_SESSION_OUTPUT"); v != "" {
		cfg.Session.OutputPath = v
	}
	if v := os.Getenv("NEWSQA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEWSQA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NEWSQA_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("NEWSQA_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

// Validate rejects configurations the pipeline cannot run with. It is called
// once at startup; any error is fatal.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required")
	}
	if len(c.Corpus.Keywords) == 0 {
		return fmt.Errorf("corpus.keywords must not be empty")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.topK must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.Model.Provider {
	case "huggingface", "openai":
	default:
		return fmt.Errorf("model.provider must be huggingface or openai, got %q", c.Model.Provider)
	}
	// The openai provider falls back to the SDK's own base URL; huggingface
	// has no such default.
	if c.Model.Provider == "huggingface" && c.Model.Endpoint == "" {
		return fmt.Errorf("model.endpoint is required for the huggingface provider")
	}
	if c.Model.MaxContextWords <= 0 {
		return fmt.Errorf("model.maxContextWords must be positive, got %d", c.Model.MaxContextWords)
	}
	if c.Model.MaxAttempts < 1 {
		return fmt.Errorf("model.maxAttempts must be at least 1, got %d", c.Model.MaxAttempts)
	}
	// The MediaWiki extracts API caps exsentences at 10.
	if c.Encyclopedia.MaxSentences < 1 || c.Encyclopedia.MaxSentences > 10 {
		return fmt.Errorf("encyclopedia.maxSentences must be between 1 and 10, got %d", c.Encyclopedia.MaxSentences)
	}
	switch c.Encyclopedia.Disambiguation {
	case "first", "skip":
	default:
		return fmt.Errorf("encyclopedia.disambiguation must be first or skip, got %q", c.Encyclopedia.Disambiguation)
	}
	if c.Encyclopedia.FailureThreshold < 1 {
		return fmt.Errorf("encyclopedia.failureThreshold must be at least 1, got %d", c.Encyclopedia.FailureThreshold)
	}
	if c.Session.OutputPath == "" {
		return fmt.Errorf("session.outputPath is required")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be a valid port, got %d", c.Metrics.Port)
	}
	return nil
}
