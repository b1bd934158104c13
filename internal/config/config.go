// Package config loads gpteach settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/wizard"
)

// Config is the full application configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Wizard     WizardConfig     `yaml:"wizard"`
	Paths      PathsConfig      `yaml:"paths"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Log        LogConfig        `yaml:"log"`

	// Keys holds API keys per provider. They are read from the
	// environment only, never from the config file.
	Keys Keys `yaml:"-"`
}

// LLMConfig selects and tunes the model backends.
type LLMConfig struct {
	// Backends overrides the default fallback order when non-empty.
	Backends []llm.Backend       `yaml:"backends" validate:"dive"`
	Timeout  time.Duration       `yaml:"timeout" validate:"gte=0"`
	Retry    llm.RetryConfig     `yaml:"retry"`
	Rate     llm.RateLimitConfig `yaml:"rate"`

	OpenAIBaseURL string `yaml:"openai_base_url" validate:"omitempty,url"`
}

// GenerationConfig tunes prompts sent to the model.
type GenerationConfig struct {
	MaxTokens         int     `yaml:"max_tokens" validate:"gte=1"`
	DocumentMaxTokens int     `yaml:"document_max_tokens" validate:"gte=1"`
	Temperature       float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxHistory        int     `yaml:"max_history" validate:"gte=0"`
}

// WizardConfig tunes the field rules. Empty patterns keep the stock ones.
type WizardConfig struct {
	ContextFieldLimit int    `yaml:"context_field_limit" validate:"gte=0"`
	SchoolMaxLen      int    `yaml:"school_max_len" validate:"gte=1"`
	DatePattern       string `yaml:"date_pattern"`
	GradePattern      string `yaml:"grade_pattern"`
}

// PathsConfig locates on-disk resources. Empty values use defaults.
type PathsConfig struct {
	// Curriculum is a CSV file replacing the bundled outcome table.
	Curriculum string `yaml:"curriculum"`
	// Templates is a directory of user plan templates.
	Templates string `yaml:"templates"`
	DB        string `yaml:"db"`
	Log       string `yaml:"log"`
}

// CalendarConfig configures Google Calendar scheduling.
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id" validate:"required"`
	TimeZone        string `yaml:"time_zone" validate:"required"`
}

// LogConfig configures the diagnostic log.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// Mode is "development" or "production"; it picks the encoder.
	Mode string `yaml:"mode" validate:"oneof=development production"`
}

// Keys holds provider credentials.
type Keys struct {
	Gemini     string
	OpenRouter string
	OpenAI     string
	Anthropic  string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	lc := llm.DefaultConfig()
	gc := generator.DefaultConfig()
	wc := wizard.DefaultConfig()
	return &Config{
		LLM: LLMConfig{
			Timeout: lc.Timeout,
			Retry:   lc.Retry,
			Rate:    lc.Rate,
		},
		Generation: GenerationConfig{
			MaxTokens:         gc.MaxTokens,
			DocumentMaxTokens: gc.DocumentMaxTokens,
			Temperature:       gc.Temperature,
			MaxHistory:        gc.MaxHistory,
		},
		Wizard: WizardConfig{
			ContextFieldLimit: wc.ContextFieldLimit,
			SchoolMaxLen:      wizard.DefaultRuleConfig().SchoolMaxLen,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
			TimeZone:   "America/Toronto",
		},
		Log: LogConfig{
			Level: "info",
			Mode:  "production",
		},
	}
}

// Load reads the configuration. path names the YAML file; empty means
// Path(). A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = Path()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file location: GPTEACH_CONFIG, then
// $XDG_CONFIG_HOME/gpteach/config.yaml, then ~/.config/gpteach/config.yaml.
func Path() string {
	if p := os.Getenv("GPTEACH_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gpteach", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gpteach", "config.yaml")
}

// firstEnv returns the first non-empty variable among names.
func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) applyEnv() error {
	c.Keys = Keys{
		Gemini:     firstEnv("GPTEACH_GEMINI_API_KEY", "GEMINI_API_KEY", "VITE_GEMINI_API_KEY"),
		OpenRouter: firstEnv("GPTEACH_OPENROUTER_API_KEY", "OPENROUTER_API_KEY", "VITE_OPENROUTER_API_KEY"),
		OpenAI:     firstEnv("GPTEACH_OPENAI_API_KEY", "OPENAI_API_KEY"),
		Anthropic:  firstEnv("GPTEACH_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
	}

	// GPTEACH_LLM_BACKENDS is a comma-separated list of provider/model
	// pairs, e.g. "gemini/gemini-2.5-flash,openrouter/minimax/minimax-m2:free".
	if v := os.Getenv("GPTEACH_LLM_BACKENDS"); v != "" {
		backends, err := ParseBackends(v)
		if err != nil {
			return fmt.Errorf("GPTEACH_LLM_BACKENDS: %w", err)
		}
		c.LLM.Backends = backends
	}
	if v := os.Getenv("GPTEACH_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GPTEACH_LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	if v := os.Getenv("GPTEACH_LLM_RPM"); v != "" {
		rpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GPTEACH_LLM_RPM: %w", err)
		}
		c.LLM.Rate.RequestsPerMinute = rpm
	}
	if v := os.Getenv("GPTEACH_OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAIBaseURL = v
	}

	if v := os.Getenv("GPTEACH_CURRICULUM"); v != "" {
		c.Paths.Curriculum = v
	}
	if v := os.Getenv("GPTEACH_TEMPLATES"); v != "" {
		c.Paths.Templates = v
	}
	if v := os.Getenv("GPTEACH_DB"); v != "" {
		c.Paths.DB = v
	}
	if v := os.Getenv("GPTEACH_LOG"); v != "" {
		c.Paths.Log = v
	}
	if v := os.Getenv("GPTEACH_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("GPTEACH_CALENDAR_CREDENTIALS"); v != "" {
		c.Calendar.CredentialsFile = v
	}
	if v := os.Getenv("GPTEACH_CALENDAR_ID"); v != "" {
		c.Calendar.CalendarID = v
	}
	return nil
}

// ParseBackends parses "provider/model" pairs separated by commas. The
// model is everything after the first slash and may be empty.
func ParseBackends(s string) ([]llm.Backend, error) {
	var out []llm.Backend
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		provider, model, _ := strings.Cut(part, "/")
		out = append(out, llm.Backend{Provider: strings.ToLower(provider), Model: model})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no backends in %q", s)
	}
	return out, nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.Paths.Curriculum, &c.Paths.Templates, &c.Paths.DB, &c.Paths.Log, &c.Calendar.CredentialsFile} {
		*p = expandTilde(*p)
	}
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	for name, p := range map[string]string{"date_pattern": c.Wizard.DatePattern, "grade_pattern": c.Wizard.GradePattern} {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("config validation failed: wizard.%s: %w", name, err)
		}
	}
	return nil
}

// LLMConfig converts the settings into the backend factory's config.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	if len(c.LLM.Backends) > 0 {
		out.Backends = c.LLM.Backends
	}
	out.Timeout = c.LLM.Timeout
	out.Retry = c.LLM.Retry
	out.Rate = c.LLM.Rate

	out.Gemini.APIKey = c.Keys.Gemini
	out.OpenRouter.APIKey = c.Keys.OpenRouter
	out.OpenAI.APIKey = c.Keys.OpenAI
	out.Anthropic.APIKey = c.Keys.Anthropic
	if c.LLM.OpenAIBaseURL != "" {
		out.OpenAI.BaseURL = c.LLM.OpenAIBaseURL
	}
	return out
}

// GeneratorConfig converts the settings into the generator's config.
func (c *Config) GeneratorConfig() generator.Config {
	return generator.Config{
		MaxTokens:         c.Generation.MaxTokens,
		DocumentMaxTokens: c.Generation.DocumentMaxTokens,
		Temperature:       c.Generation.Temperature,
		MaxHistory:        c.Generation.MaxHistory,
	}
}

// WizardConfig builds the wizard's rule table from the settings.
func (c *Config) WizardConfig() wizard.Config {
	rc := wizard.DefaultRuleConfig()
	rc.SchoolMaxLen = c.Wizard.SchoolMaxLen
	if c.Wizard.DatePattern != "" {
		rc.DatePattern = regexp.MustCompile(c.Wizard.DatePattern)
	}
	if c.Wizard.GradePattern != "" {
		rc.GradePattern = regexp.MustCompile(c.Wizard.GradePattern)
	}
	return wizard.Config{
		Rules:             wizard.BuildRules(rc),
		ContextFieldLimit: c.Wizard.ContextFieldLimit,
	}
}

// LogPath returns the log file location: the configured path, else
// $XDG_STATE_HOME/gpteach/gpteach.log, else ~/.local/state/gpteach/gpteach.log.
func (c *Config) LogPath() string {
	if c.Paths.Log != "" {
		return c.Paths.Log
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gpteach", "gpteach.log")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "gpteach", "gpteach.log")
}

// TemplatesDir returns the user template directory: the configured path,
// else a templates directory beside the config file.
func (c *Config) TemplatesDir() string {
	if c.Paths.Templates != "" {
		return c.Paths.Templates
	}
	return filepath.Join(filepath.Dir(Path()), "templates")
}
