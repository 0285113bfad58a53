package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources Sources `yaml:"sources"`
	LLM     LLM     `yaml:"llm"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
}

type Sources struct {
	Guardian GuardianConfig  `yaml:"guardian"`
	Feeds    []Feed          `yaml:"feeds"`
	Scrapers []ScraperConfig `yaml:"scrapers"`
	DaysBack int             `yaml:"days_back"`
}

type GuardianConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Query     string `yaml:"query"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type ScraperConfig struct {
	Name       string `yaml:"name"`
	ArchiveURL string `yaml:"archive_url"`
}

type LLM struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	OllamaURL        string `yaml:"ollama_url"`
	OpenAIModel      string `yaml:"openai_model"`
	APIKeyEnv        string `yaml:"api_key_env"`
	MaxSummaryTokens int    `yaml:"max_summary_tokens"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for sectordigest.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "sectordigest")
}

// DataDir returns the XDG data directory for sectordigest.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "sectordigest")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/sectordigest/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'sectordigest init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			Guardian: GuardianConfig{
				Enabled:   true,
				APIKeyEnv: "GUARDIAN_API_KEY",
			},
			DaysBack: 1,
		},
		LLM: LLM{
			Provider:         "openai",
			Model:            "qwen2.5:7b",
			OllamaURL:        "http://localhost:11434",
			OpenAIModel:      "gpt-4o-mini",
			APIKeyEnv:        "OPENAI_API_KEY",
			MaxSummaryTokens: 2000,
		},
		Server: Server{Port: 5000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
