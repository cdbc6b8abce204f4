package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/annotanki/internal/secrets"
)

const (
	DefaultHypothesisURL  = "https://hypothes.is/api/search"
	DefaultSearchLimit    = 200
	MaxSearchLimit        = 200
	DefaultCheckpointFile = "last_run.txt"
	DefaultProcessedFile  = "processed_ids.txt"
	DefaultAnkiConnectURL = "http://localhost:8765"
	DefaultDeckName       = "Hypothes.is"
	DefaultModelName      = "Basic"
	DefaultCustomTag      = "Hypothesis"
	DefaultSMTPHost       = "smtp.gmail.com"
	DefaultSMTPPort       = 587

	EnvHypothesisToken = "ANNOTANKI_HYPOTHESIS_TOKEN"
	EnvSMTPPassword    = "ANNOTANKI_SMTP_PASSWORD"
)

type Config struct {
	Hypothesis HypothesisConfig `yaml:"hypothesis"`
	State      StateConfig      `yaml:"state"`
	Anki       AnkiConfig       `yaml:"anki"`
	Email      EmailConfig      `yaml:"email"`
	HTTP       HTTPConfig       `yaml:"http"`
	SecretsDir string           `yaml:"secrets_dir"`
}

type HypothesisConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
	Group  string `yaml:"group"`
	Limit  int    `yaml:"limit"`
}

type StateConfig struct {
	CheckpointFile string `yaml:"checkpoint_file"`
	ProcessedFile  string `yaml:"processed_ids_file"`
}

type AnkiConfig struct {
	ConnectURL     string        `yaml:"connect_url"`
	DeckName       string        `yaml:"deck_name"`
	ModelName      string        `yaml:"model_name"`
	CustomTag      string        `yaml:"custom_tag"`
	LaunchCommand  []string      `yaml:"launch_command"`
	ProcessName    string        `yaml:"process_name"`
	StartupTimeout time.Duration `yaml:"startup_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SyncWait       time.Duration `yaml:"sync_wait"`
	RemoteSync     bool          `yaml:"remote_sync"`
	CloseAfterRun  bool          `yaml:"close_after_run"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	To       string `yaml:"to"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a configuration with every default filled in, as if an
// empty config file had been loaded.
func Default() *Config {
	cfg := &Config{
		Anki: AnkiConfig{
			RemoteSync:    true,
			CloseAfterRun: true,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, fills defaults, then overlays secrets
// from the secrets directory and the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Anki: AnkiConfig{
			RemoteSync:    true,
			CloseAfterRun: true,
		},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist and allowMissing is set.
func LoadOrDefault(path string, allowMissing bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !allowMissing || !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = Default()
	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Hypothesis.APIURL == "" {
		c.Hypothesis.APIURL = DefaultHypothesisURL
	}
	if c.Hypothesis.Limit <= 0 {
		c.Hypothesis.Limit = DefaultSearchLimit
	}
	if c.State.CheckpointFile == "" {
		c.State.CheckpointFile = DefaultCheckpointFile
	}
	if c.State.ProcessedFile == "" {
		c.State.ProcessedFile = DefaultProcessedFile
	}
	if c.Anki.ConnectURL == "" {
		c.Anki.ConnectURL = DefaultAnkiConnectURL
	}
	if c.Anki.DeckName == "" {
		c.Anki.DeckName = DefaultDeckName
	}
	if c.Anki.ModelName == "" {
		c.Anki.ModelName = DefaultModelName
	}
	if c.Anki.CustomTag == "" {
		c.Anki.CustomTag = DefaultCustomTag
	}
	if len(c.Anki.LaunchCommand) == 0 {
		c.Anki.LaunchCommand = []string{"anki"}
	}
	if c.Anki.ProcessName == "" {
		c.Anki.ProcessName = "anki"
	}
	if c.Anki.StartupTimeout <= 0 {
		c.Anki.StartupTimeout = 30 * time.Second
	}
	if c.Anki.PollInterval <= 0 {
		c.Anki.PollInterval = time.Second
	}
	if c.Anki.SyncWait <= 0 {
		c.Anki.SyncWait = 5 * time.Second
	}
	if c.Email.SMTPHost == "" {
		c.Email.SMTPHost = DefaultSMTPHost
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = DefaultSMTPPort
	}
	if c.Email.Username == "" {
		c.Email.Username = c.Email.From
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.SecretsDir == "" {
		c.SecretsDir = ".secrets"
	}
}

// loadSecrets fills credentials the config file left empty from the
// secrets directory. Environment variables override both.
func (c *Config) loadSecrets() error {
	s, err := secrets.Load(c.SecretsDir)
	if err != nil {
		return err
	}

	if c.Hypothesis.Token == "" {
		c.Hypothesis.Token = s[secrets.HypothesisToken]
	}
	if c.Email.Password == "" {
		c.Email.Password = s[secrets.SMTPPassword]
	}

	if v := os.Getenv(EnvHypothesisToken); v != "" {
		c.Hypothesis.Token = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.Email.Password = v
	}

	return nil
}

// Validate checks the settings the sync run depends on.
func (c *Config) Validate() error {
	if c.Hypothesis.Token == "" {
		return fmt.Errorf("hypothesis API token is not set (config hypothesis.token, %s/%s or $%s)",
			c.SecretsDir, secrets.HypothesisToken, EnvHypothesisToken)
	}
	if c.Hypothesis.Limit > MaxSearchLimit {
		return fmt.Errorf("hypothesis.limit %d exceeds the API maximum of %d", c.Hypothesis.Limit, MaxSearchLimit)
	}
	if c.Email.Enabled {
		if c.Email.To == "" || c.Email.From == "" {
			return fmt.Errorf("email is enabled but email.to or email.from is empty")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("email is enabled but no SMTP password is set")
		}
	}
	return nil
}
