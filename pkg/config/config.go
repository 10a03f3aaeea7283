// Package config holds the explicit configuration handed to the extraction,
// OCR and embedding drivers. Values come from defaults, an optional
// pdfmessages.yaml, PDFMESSAGES_* environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/batch"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/embeddings"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/ocr"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. PDFMESSAGES_OCR_MODEL
	EnvPrefix = "PDFMESSAGES"
	// FileName is the config file base name searched in . and ~/.config/pdfmessages
	FileName = "pdfmessages"
)

// apiKeyVars are checked in order when no key is configured
var apiKeyVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"}

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete runtime configuration
type Config struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	LogLevel string `mapstructure:"log_level"`

	Extract    ExtractConfig    `mapstructure:"extract"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
}

// ExtractConfig configures text-layer extraction
type ExtractConfig struct {
	YTolerance         float64 `mapstructure:"y_tolerance"`
	AlignmentThreshold float64 `mapstructure:"alignment_threshold"`
	Overwrite          bool    `mapstructure:"overwrite"`
	KeepPartial        bool    `mapstructure:"keep_partial"`
	ProgressEvery      int     `mapstructure:"progress_every"`
	Jobs               string  `mapstructure:"jobs"`
}

// OCRConfig configures scanned-page transcription
type OCRConfig struct {
	Engine         string        `mapstructure:"engine"`
	Mode           string        `mapstructure:"mode"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	DPI            float64       `mapstructure:"dpi"`
	MaxWidth       int           `mapstructure:"max_width"`
	PageDelay      time.Duration `mapstructure:"page_delay"`
	Recursive      bool          `mapstructure:"recursive"`
	Skip           []string      `mapstructure:"skip"`
	Languages      []string      `mapstructure:"languages"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"`
}

// EmbeddingsConfig configures embedding generation and search
type EmbeddingsConfig struct {
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
	Limit     int    `mapstructure:"limit"`
	Index     string `mapstructure:"index"`
}

// Default returns the built-in configuration. A zero DPI or PageDelay
// means the OCR mode's own default.
func Default() Config {
	policy := retry.DefaultPolicy()
	return Config{
		BaseURL:  ocr.GeminiBaseURL,
		LogLevel: "info",
		Extract: ExtractConfig{
			YTolerance:         extractors.DefaultYTolerance,
			AlignmentThreshold: extractors.DefaultAlignmentThreshold,
			ProgressEvery:      batch.DefaultProgressEvery,
		},
		OCR: OCRConfig{
			Engine:         "vision",
			Mode:           ocr.ModeMessages.String(),
			Model:          "gemini-flash-latest",
			MaxWidth:       0,
			Skip:           append([]string(nil), ocr.DefaultSkip...),
			Languages:      []string{"eng"},
			MaxAttempts:    policy.MaxAttempts,
			BaseDelay:      policy.BaseDelay,
			RateLimitDelay: policy.RateLimitDelay,
		},
		Embeddings: EmbeddingsConfig{
			Model:     embeddings.DefaultModel,
			BatchSize: 16,
			Limit:     embeddings.DefaultLimit,
			Index:     "pdfmessages.db",
		},
	}
}

// SetDefaults registers every key of Default with v so that environment
// variables can override keys that appear in no config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("extract.y_tolerance", d.Extract.YTolerance)
	v.SetDefault("extract.alignment_threshold", d.Extract.AlignmentThreshold)
	v.SetDefault("extract.overwrite", d.Extract.Overwrite)
	v.SetDefault("extract.keep_partial", d.Extract.KeepPartial)
	v.SetDefault("extract.progress_every", d.Extract.ProgressEvery)
	v.SetDefault("extract.jobs", d.Extract.Jobs)

	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.mode", d.OCR.Mode)
	v.SetDefault("ocr.model", d.OCR.Model)
	v.SetDefault("ocr.max_tokens", d.OCR.MaxTokens)
	v.SetDefault("ocr.dpi", d.OCR.DPI)
	v.SetDefault("ocr.max_width", d.OCR.MaxWidth)
	v.SetDefault("ocr.page_delay", d.OCR.PageDelay)
	v.SetDefault("ocr.recursive", d.OCR.Recursive)
	v.SetDefault("ocr.skip", d.OCR.Skip)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.max_attempts", d.OCR.MaxAttempts)
	v.SetDefault("ocr.base_delay", d.OCR.BaseDelay)
	v.SetDefault("ocr.rate_limit_delay", d.OCR.RateLimitDelay)

	v.SetDefault("embeddings.model", d.Embeddings.Model)
	v.SetDefault("embeddings.batch_size", d.Embeddings.BatchSize)
	v.SetDefault("embeddings.limit", d.Embeddings.Limit)
	v.SetDefault("embeddings.index", d.Embeddings.Index)
}

// NewViper creates a viper instance with defaults, environment binding and
// the config file. An explicit configFile must exist; otherwise a missing
// pdfmessages.yaml is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config, fills the API key from the environment when
// none is configured and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = APIKeyFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env then .env.local from the working directory. Missing
// files are ignored and variables already set are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// APIKeyFromEnv returns the first set of GEMINI_API_KEY, GOOGLE_API_KEY and
// OPENAI_API_KEY.
func APIKeyFromEnv() string {
	for _, name := range apiKeyVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks value ranges. The API key is checked by the commands that
// need it.
func (c Config) Validate() error {
	var errs []error
	if c.Extract.YTolerance <= 0 {
		errs = append(errs, fmt.Errorf("extract.y_tolerance must be positive, got %v", c.Extract.YTolerance))
	}
	if c.Extract.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("extract.progress_every must not be negative"))
	}
	if _, err := ocr.ParseMode(c.OCR.Mode); err != nil {
		errs = append(errs, err)
	}
	switch c.OCR.Engine {
	case "vision", "tesseract":
	default:
		errs = append(errs, fmt.Errorf("ocr.engine must be vision or tesseract, got %q", c.OCR.Engine))
	}
	if c.OCR.DPI < 0 || c.OCR.MaxWidth < 0 || c.OCR.PageDelay < 0 {
		errs = append(errs, fmt.Errorf("ocr.dpi, ocr.max_width and ocr.page_delay must not be negative"))
	}
	if c.OCR.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ocr.max_attempts must be at least 1"))
	}
	if c.Embeddings.Limit < 1 {
		errs = append(errs, fmt.Errorf("embeddings.limit must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// RetryPolicy returns the policy for vision model calls
func (c OCRConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    c.MaxAttempts,
		BaseDelay:      c.BaseDelay,
		RateLimitDelay: c.RateLimitDelay,
	}
}

// ParsedMode returns the OCR mode; Validate has already rejected bad values
func (c OCRConfig) ParsedMode() ocr.Mode {
	m, _ := ocr.ParseMode(c.Mode)
	return m
}

// Reconstructor builds the line reconstructor for the extraction settings
func (c ExtractConfig) Reconstructor(opts ...extractors.Option) *extractors.Reconstructor {
	base := []extractors.Option{
		extractors.WithYTolerance(c.YTolerance),
		extractors.WithAlignmentThreshold(c.AlignmentThreshold),
	}
	return extractors.NewReconstructor(append(base, opts...)...)
}
