// Package config loads the quickchat configuration file. The file is JSON;
// defaults cover every key, and QUICKCHAT_* environment variables override
// individual values (e.g. QUICKCHAT_MEMORY_SHORT_TERM_THRESHOLD).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig describes how to launch one tool server.
type ServerConfig struct {
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
}

// ModelConfig carries the ordered fallback list and the summarization model.
type ModelConfig struct {
	ModelName    []string `mapstructure:"model_name"`
	SummaryModel string   `mapstructure:"summary_model"`
}

// MemoryConfig bounds the short-term tier and locates the transcripts.
type MemoryConfig struct {
	ShortTermThreshold int    `mapstructure:"short_term_threshold"`
	HistoryDir         string `mapstructure:"history_dir"`
}

// Config is everything the process consumes from its external loader.
type Config struct {
	Model   ModelConfig             `mapstructure:"model"`
	Memory  MemoryConfig            `mapstructure:"memory"`
	Servers map[string]ServerConfig `mapstructure:"servers"`
}

// Load reads the config file at path. An empty path loads defaults only; a
// named file that does not exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault("model.model_name", []string{
		"claude-sonnet-4-5",
		"claude-3-7-sonnet-latest",
		"claude-3-5-haiku-latest",
	})
	v.SetDefault("model.summary_model", "claude-3-5-haiku-latest")
	v.SetDefault("memory.short_term_threshold", 50)
	v.SetDefault("memory.history_dir", "")

	v.SetEnvPrefix("QUICKCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Memory.HistoryDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		cfg.Memory.HistoryDir = filepath.Join(home, ".quickchat", "history")
	}
	return &cfg, nil
}

// Server returns the launch configuration for the named tool server.
func (c *Config) Server(name string) (ServerConfig, error) {
	sc, ok := c.Servers[name]
	if !ok {
		return ServerConfig{}, fmt.Errorf("server configuration for %q not found", name)
	}
	if sc.Command == "" {
		return ServerConfig{}, fmt.Errorf("server %q has no command", name)
	}
	return sc, nil
}

// EnvList renders the server's env map as KEY=VALUE pairs.
func (s ServerConfig) EnvList() []string {
	out := make([]string, 0, len(s.Env))
	for k, val := range s.Env {
		out = append(out, k+"="+val)
	}
	return out
}
