package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverlaysFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"embedder_command": "fastembed",
		"embedding_dim": 768,
		"distill_commands": ["claude", "llm"],
		"disabled_tools": ["workspace_purge"]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "fastembed", cfg.EmbedderCommand)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, []string{"claude", "llm"}, cfg.DistillCommands)
	// Unset scalars keep defaults.
	assert.Equal(t, DefaultConfig().MinSimilarity, cfg.MinSimilarity)
	assert.Equal(t, DefaultConfig().WebPort, cfg.WebPort)
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestMerge_ArraysDeduplicated(t *testing.T) {
	base := &Config{DisabledTools: []string{"plan_delete", " workspace_purge "}}
	overlay := &Config{DisabledTools: []string{"workspace_purge", "checkpoint_recall"}}

	got := Merge(base, overlay).DisabledTools
	assert.Equal(t, []string{"plan_delete", "workspace_purge", "checkpoint_recall"}, got)
}

func TestMerge_OrderedListsReplaceNotMerge(t *testing.T) {
	base := &Config{DistillCommands: []string{"llm"}}
	overlay := &Config{DistillCommands: []string{"claude"}}

	got := Merge(base, overlay).DistillCommands
	assert.Equal(t, []string{"claude"}, got)
}

func TestExternalTimeout(t *testing.T) {
	cfg := &Config{ExternalTimeoutSecs: 5}
	assert.Equal(t, 5*time.Second, cfg.ExternalTimeout())

	zero := &Config{}
	assert.Equal(t, 30*time.Second, zero.ExternalTimeout())
}
