package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verlune/quickchat/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `{
		"model": {
			"model_name": ["model-a", "model-b"],
			"summary_model": "tiny-model"
		},
		"memory": {
			"short_term_threshold": 10,
			"history_dir": "/tmp/quickchat-test-history"
		},
		"servers": {
			"tools": {
				"command": "quickchat-tools",
				"args": ["--verbose"],
				"env": {"TAVILY_API_KEY": "k"}
			}
		}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"model-a", "model-b"}, cfg.Model.ModelName)
	require.Equal(t, "tiny-model", cfg.Model.SummaryModel)
	require.Equal(t, 10, cfg.Memory.ShortTermThreshold)
	require.Equal(t, "/tmp/quickchat-test-history", cfg.Memory.HistoryDir)

	sc, err := cfg.Server("tools")
	require.NoError(t, err)
	require.Equal(t, "quickchat-tools", sc.Command)
	require.Equal(t, []string{"--verbose"}, sc.Args)
	require.Equal(t, []string{"TAVILY_API_KEY=k"}, sc.EnvList())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Model.ModelName)
	require.Equal(t, 50, cfg.Memory.ShortTermThreshold)
	require.NotEmpty(t, cfg.Memory.HistoryDir)
	require.Contains(t, cfg.Memory.HistoryDir, ".quickchat")
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"memory": {"short_term_threshold": 3}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Memory.ShortTermThreshold)
	require.NotEmpty(t, cfg.Model.ModelName)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestServer_Unknown(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = cfg.Server("tools")
	require.Error(t, err)
}

func TestServer_EmptyCommand(t *testing.T) {
	path := writeConfig(t, `{"servers": {"tools": {"args": ["x"]}}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.Server("tools")
	require.Error(t, err)
}
