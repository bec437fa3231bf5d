// Package embed invokes the external embedding-generation executable.
// Semantic search is a runtime capability: a successful probe of the
// executable turns it on, and every call site branches on that flag rather
// than on scattered nil checks.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Embedder generates fixed-dimension vectors for text payloads.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Available reports whether the external process is usable.
	Available() bool
}

// CommandEmbedder shells out to an external executable. The payload is JSON
// {"texts": [...]} on stdin; the expected output is JSON
// {"embeddings": [[...]]} on stdout. A non-zero exit or an absent binary
// signals "unavailable".
type CommandEmbedder struct {
	command string
	args    []string
	dim     int
	timeout time.Duration

	probeOnce sync.Once
	available bool
}

// NewCommandEmbedder creates an embedder for the given command. An empty
// command means permanently unavailable.
func NewCommandEmbedder(command string, args []string, dim int, timeout time.Duration) *CommandEmbedder {
	return &CommandEmbedder{
		command: command,
		args:    args,
		dim:     dim,
		timeout: timeout,
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Available probes the external executable once and caches the outcome.
func (e *CommandEmbedder) Available() bool {
	e.probeOnce.Do(func() {
		if e.command == "" {
			return
		}
		if _, err := exec.LookPath(e.command); err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		vec, err := e.run(ctx, []string{"probe"})
		e.available = err == nil && len(vec) == 1
	})
	return e.available
}

// Embed sends a batch of texts to the external process and returns their
// embeddings. The returned slice has the same length and order as the input.
func (e *CommandEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if !e.Available() {
		return nil, fmt.Errorf("embedder %q unavailable", e.command)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.run(ctx, texts)
}

// EmbedSingle embeds a single text and returns the embedding vector.
func (e *CommandEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	results, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (e *CommandEmbedder) run(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("embedder %q: %w: %s", e.command, err, stderr.String())
		}
		return nil, fmt.Errorf("embedder %q: %w", e.command, err)
	}

	var result embedResponse
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	if e.dim > 0 {
		for i, vec := range result.Embeddings {
			if len(vec) != e.dim {
				return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vec), e.dim)
			}
		}
	}

	return result.Embeddings, nil
}
