package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/wizard"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GPTEACH_GEMINI_API_KEY", "GEMINI_API_KEY", "VITE_GEMINI_API_KEY",
		"GPTEACH_OPENROUTER_API_KEY", "OPENROUTER_API_KEY", "VITE_OPENROUTER_API_KEY",
		"GPTEACH_OPENAI_API_KEY", "OPENAI_API_KEY",
		"GPTEACH_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"GPTEACH_LLM_BACKENDS", "GPTEACH_LLM_TIMEOUT", "GPTEACH_LLM_RPM", "GPTEACH_OPENAI_BASE_URL",
		"GPTEACH_CURRICULUM", "GPTEACH_TEMPLATES", "GPTEACH_DB", "GPTEACH_LOG", "GPTEACH_LOG_LEVEL",
		"GPTEACH_CALENDAR_CREDENTIALS", "GPTEACH_CALENDAR_ID",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Calendar.CalendarID != "primary" {
		t.Errorf("CalendarID = %q, want primary", cfg.Calendar.CalendarID)
	}
	if cfg.Generation.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.MaxHistory != 0 {
		t.Errorf("MaxHistory = %d, want 0 (whole transcript)", cfg.Generation.MaxHistory)
	}

	lc := cfg.LLMConfig()
	if len(lc.Backends) != len(llm.DefaultBackends()) {
		t.Errorf("backends = %v, want defaults", lc.Backends)
	}
	if lc.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", lc.Timeout)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
llm:
  backends:
    - provider: openai
      model: gpt-4.1-mini
    - provider: mock
  timeout: 45s
  retry:
    max_attempts: 2
    initial_wait: 500ms
    max_wait: 5s
    multiplier: 1.5
  rate:
    requests_per_minute: 10
    burst: 1
generation:
  max_tokens: 800
  document_max_tokens: 3000
  temperature: 0.4
  max_history: 10
paths:
  templates: /srv/templates
log:
  level: debug
  mode: development
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lc := cfg.LLMConfig()
	want := []llm.Backend{{Provider: "openai", Model: "gpt-4.1-mini"}, {Provider: "mock"}}
	if len(lc.Backends) != 2 || lc.Backends[0] != want[0] || lc.Backends[1] != want[1] {
		t.Errorf("backends = %v, want %v", lc.Backends, want)
	}
	if lc.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", lc.Timeout)
	}
	if lc.Retry.MaxAttempts != 2 || lc.Retry.InitialWait != 500*time.Millisecond {
		t.Errorf("Retry = %+v", lc.Retry)
	}
	if lc.Rate.RequestsPerMinute != 10 || lc.Rate.Burst != 1 {
		t.Errorf("Rate = %+v", lc.Rate)
	}

	gc := cfg.GeneratorConfig()
	if gc.MaxTokens != 800 || gc.MaxHistory != 10 || gc.Temperature != 0.4 {
		t.Errorf("GeneratorConfig = %+v", gc)
	}
	if cfg.TemplatesDir() != "/srv/templates" {
		t.Errorf("TemplatesDir = %q", cfg.TemplatesDir())
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "llm:\n  timeout: 45s\n")

	t.Setenv("VITE_GEMINI_API_KEY", "vite-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("GPTEACH_OPENROUTER_API_KEY", "gpteach-or-key")
	t.Setenv("GPTEACH_LLM_BACKENDS", "gemini/gemini-2.5-pro, openrouter/minimax/minimax-m2:free")
	t.Setenv("GPTEACH_LLM_TIMEOUT", "10s")
	t.Setenv("GPTEACH_DB", "/tmp/plans.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Keys.Gemini != "vite-key" {
		t.Errorf("Gemini key = %q", cfg.Keys.Gemini)
	}
	if cfg.Keys.OpenRouter != "gpteach-or-key" {
		t.Errorf("OpenRouter key = %q, want the GPTEACH_ variable to win", cfg.Keys.OpenRouter)
	}

	lc := cfg.LLMConfig()
	if lc.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want env override", lc.Timeout)
	}
	if len(lc.Backends) != 2 || lc.Backends[1].Model != "minimax/minimax-m2:free" {
		t.Errorf("backends = %v", lc.Backends)
	}
	if len(lc.Usable()) != 2 {
		t.Errorf("usable = %v, want both", lc.Usable())
	}
	if cfg.Paths.DB != "/tmp/plans.db" {
		t.Errorf("DB = %q", cfg.Paths.DB)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"unknown provider", "llm:\n  backends:\n    - provider: cohere\n", nil},
		{"retry attempts", "llm:\n  retry:\n    max_attempts: 0\n    multiplier: 2\n", nil},
		{"log level", "log:\n  level: loud\n", nil},
		{"malformed yaml", "llm: [", nil},
		{"bad timeout env", "", map[string]string{"GPTEACH_LLM_TIMEOUT": "soon"}},
		{"bad date pattern", "wizard:\n  date_pattern: \"(unclosed\"\n", nil},
		{"school length", "wizard:\n  school_max_len: 0\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeFile(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseBackends(t *testing.T) {
	got, err := ParseBackends("Gemini/gemini-2.5-flash,,mock")
	if err != nil {
		t.Fatal(err)
	}
	want := []llm.Backend{{Provider: "gemini", Model: "gemini-2.5-flash"}, {Provider: "mock"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ParseBackends(" , "); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("GPTEACH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := Path(); got != "/xdg/gpteach/config.yaml" {
		t.Errorf("Path = %q", got)
	}

	t.Setenv("GPTEACH_CONFIG", "/etc/gpteach.yaml")
	if got := Path(); got != "/etc/gpteach.yaml" {
		t.Errorf("Path = %q", got)
	}
}

func TestWizardConfig(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
wizard:
  context_field_limit: 80
  school_max_len: 10
  grade_pattern: "(?i)cohort"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wc := cfg.WizardConfig()
	if wc.ContextFieldLimit != 80 {
		t.Errorf("ContextFieldLimit = %d, want 80", wc.ContextFieldLimit)
	}

	checks := map[string]func(string) bool{}
	for _, r := range wc.Rules {
		checks[r.Name] = r.Check
	}
	if school := checks["school"]; school == nil || !school("<p>Lakeview Public School</p>") {
		t.Error("school rule should reject names over 10 characters")
	}
	if date := checks["date"]; date == nil || !date("Cohort B") || date("Grade 5") {
		t.Error("date rule should use the configured grade pattern")
	}
}

func TestWizardConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wc := cfg.WizardConfig()
	def := wizard.DefaultConfig()
	if wc.ContextFieldLimit != def.ContextFieldLimit || len(wc.Rules) != len(def.Rules) {
		t.Errorf("WizardConfig = %+v, want stock settings", wc)
	}
}
