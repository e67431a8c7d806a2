// Package config handles oppdesk configuration parsing and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the oppdesk.yaml configuration file. LLM credentials may
// also come from the environment (or a .env file), which takes precedence
// over the file.
type Config struct {
	Version   string          `yaml:"version"`
	Company   string          `yaml:"company"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Chart     ChartConfig     `yaml:"chart"`
	Workshare WorkshareConfig `yaml:"workshare"`
	Session   SessionConfig   `yaml:"session"`
}

// Duration wraps time.Duration so yaml files can spell timeouts as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LLMConfig points at the OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// StoreConfig locates the opportunity table and the session database.
type StoreConfig struct {
	Path        string `yaml:"path"`
	SessionPath string `yaml:"session_path"`
}

// ChartConfig controls chart output.
type ChartConfig struct {
	OutputDir   string   `yaml:"output_dir"`
	ExecTimeout Duration `yaml:"exec_timeout"`
}

// WorkshareConfig holds the path-composition conventions for proposal files:
// the template lives under a fixed subpath of the root, and each
// opportunity's folder is <root>/<customer>/<opportunity>.
type WorkshareConfig struct {
	Root             string `yaml:"root"`
	ProposalTemplate string `yaml:"proposal_template"`
}

// SessionConfig controls chat session expiry.
type SessionConfig struct {
	TTL Duration `yaml:"ttl"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Company: "oppdesk",
		LLM: LLMConfig{
			Model:   "gpt-4o-mini",
			Timeout: Duration(60 * time.Second),
		},
		Store: StoreConfig{
			Path:        "opportunities.csv",
			SessionPath: "oppdesk.db",
		},
		Chart: ChartConfig{
			OutputDir:   filepath.Join(os.TempDir(), "oppdesk-charts"),
			ExecTimeout: Duration(10 * time.Second),
		},
		Session: SessionConfig{
			TTL: Duration(2 * time.Hour),
		},
	}
}

// Load reads the oppdesk.yaml config file, then applies environment
// overrides. A missing file yields the defaults. A .env file in the working
// directory is honored so dev setups can keep credentials out of the yaml.
func Load(path string) (*Config, error) {
	// A missing .env is fine; it only exists in dev setups.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path == "" {
		path = "oppdesk.yaml"
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv layers environment overrides on top of the file values.
func applyEnv(cfg *Config) {
	for env, target := range map[string]*string{
		"OPENAI_BASE_URL":   &cfg.LLM.BaseURL,
		"OPENAI_API_KEY":    &cfg.LLM.APIKey,
		"MODEL_NAME":        &cfg.LLM.Model,
		"COMPANY_NAME":      &cfg.Company,
		"WORKSHARE_FOLDER":  &cfg.Workshare.Root,
		"PROPOSAL_TEMPLATE": &cfg.Workshare.ProposalTemplate,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks the fields every command needs. LLM credentials are only
// checked by ValidateLLM, since offline commands run without them.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Store.SessionPath == "" {
		return fmt.Errorf("store.session_path must not be empty")
	}
	if c.Chart.OutputDir == "" {
		return fmt.Errorf("chart.output_dir must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}

// ValidateLLM is the fatal-at-startup check for chat: missing credentials
// stop the process before any turn is accepted.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is not set (set OPENAI_API_KEY or llm.api_key)")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is not set")
	}
	return nil
}

// TemplateDir returns the folder holding the default proposal template.
func (c *Config) TemplateDir() string {
	return filepath.Join(c.Workshare.Root,
		"00 Latest Templates", "Proposal Template", "01 Development Proposal")
}

// OpportunityDir returns the working folder for one opportunity.
func (c *Config) OpportunityDir(customer, oppName string) string {
	return filepath.Join(c.Workshare.Root, customer, oppName)
}
