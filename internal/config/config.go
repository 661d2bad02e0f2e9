package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all troupe configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "claude-cli", "anthropic", "ollama"
	Model        string `yaml:"model"`    // e.g. "haiku", "sonnet"
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"` // e.g. "llama3.2"
	AnthropicKey string `yaml:"anthropic_key"`
}

type JobsConfig struct {
	ReviewCron           string `yaml:"review_cron"`      // memory review, per character
	ConsequenceCron      string `yaml:"consequence_cron"` // relationship event drain
	ResetCron            string `yaml:"reset_cron"`       // daily vitals reset
	SweepCooldownMinutes int    `yaml:"sweep_cooldown_minutes"`
	SweepDailyCap        int    `yaml:"sweep_daily_cap"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37888,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider: "claude-cli",
			Model:    "haiku",
		},
		Jobs: JobsConfig{
			ReviewCron:           "0 9,21 * * *",
			ConsequenceCron:      "*/15 * * * *",
			ResetCron:            "0 5 * * *",
			SweepCooldownMinutes: 20,
			SweepDailyCap:        8,
		},
	}
}

// DefaultPath returns the default config file path: ~/.troupe/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".troupe", "config.yaml"), nil
}

// Load reads the config file at path, layering it over defaults. A missing
// file is not an error — defaults apply. A .env file in the working directory
// is loaded first, and a few well-known env vars override the file.
func Load(path string) (Config, error) {
	godotenv.Load() // best-effort; absent .env is fine

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}
	if path := os.Getenv("TROUPE_DB"); path != "" {
		cfg.Database.Path = path
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		cfg.LLM.OllamaURL = url
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
