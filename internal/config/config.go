package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// EmbedderCommand is the external embedding-generation executable.
	// Empty or unresolvable means semantic search is unavailable and
	// recall degrades to fuzzy matching.
	EmbedderCommand string `json:"embedder_command,omitempty"`

	// EmbedderArgs are extra arguments passed to the embedder command.
	EmbedderArgs []string `json:"embedder_args,omitempty"`

	// EmbeddingDim is the expected embedding vector dimension.
	EmbeddingDim int `json:"embedding_dim,omitempty"`

	// MinSimilarity is the cosine similarity threshold below which vector
	// search results are discarded.
	MinSimilarity float64 `json:"min_similarity,omitempty"`

	// ExternalTimeoutSecs bounds calls to the embedder and to LLM CLIs.
	ExternalTimeoutSecs int `json:"external_timeout_secs,omitempty"`

	// DistillCommands lists LLM command-line tools tried in order for
	// recall distillation. Empty means the local fallback is always used.
	DistillCommands []string `json:"distill_commands,omitempty"`

	// SyncQueueSize is the capacity of the background embedding sync
	// queue. A full queue drops requests rather than blocking writers.
	SyncQueueSize int `json:"sync_queue_size,omitempty"`

	// WebBind and WebPort configure the local web UI listener.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DBMaxOpenConns limits open connections to the embedding store.
	// If set to 1, all access is serialized. 0 means the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle connections. 0 means the sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingDim:        384,
		MinSimilarity:       0.3,
		ExternalTimeoutSecs: 30,
		SyncQueueSize:       64,
		WebBind:             "127.0.0.1",
		WebPort:             7317,
	}
}

// ExternalTimeout returns the external-call timeout as a duration.
func (c *Config) ExternalTimeout() time.Duration {
	secs := c.ExternalTimeoutSecs
	if secs <= 0 {
		secs = DefaultConfig().ExternalTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.cairn.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.EmbedderCommand = overlay.EmbedderCommand
	if result.EmbedderCommand == "" {
		result.EmbedderCommand = base.EmbedderCommand
	}

	result.EmbeddingDim = overlay.EmbeddingDim
	if result.EmbeddingDim == 0 {
		result.EmbeddingDim = base.EmbeddingDim
	}

	result.MinSimilarity = overlay.MinSimilarity
	if result.MinSimilarity == 0 {
		result.MinSimilarity = base.MinSimilarity
	}

	result.ExternalTimeoutSecs = overlay.ExternalTimeoutSecs
	if result.ExternalTimeoutSecs == 0 {
		result.ExternalTimeoutSecs = base.ExternalTimeoutSecs
	}

	result.SyncQueueSize = overlay.SyncQueueSize
	if result.SyncQueueSize == 0 {
		result.SyncQueueSize = base.SyncQueueSize
	}

	result.WebBind = overlay.WebBind
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// EmbedderArgs is positional, not a set: overlay replaces, no merge.
	result.EmbedderArgs = overlay.EmbedderArgs
	if result.EmbedderArgs == nil {
		result.EmbedderArgs = base.EmbedderArgs
	}

	// DistillCommands is ordered by preference: overlay replaces.
	result.DistillCommands = overlay.DistillCommands
	if result.DistillCommands == nil {
		result.DistillCommands = base.DistillCommands
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
