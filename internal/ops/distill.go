package ops

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/cairnhq/cairn/internal/checkpoint"
)

// Distill compresses search results into a short summary. When an external
// LLM command is configured and responds within the timeout its output is
// used; otherwise a deterministic local extraction runs. This path never
// fails.
func Distill(ctx context.Context, env *Env, query string, cps []checkpoint.Checkpoint) string {
	prompt := buildPrompt(query, cps)

	for _, command := range env.Cfg.DistillCommands {
		parts := strings.Fields(command)
		if len(parts) == 0 {
			continue
		}
		out, err := runDistillCommand(ctx, env, parts[0], parts[1:], prompt)
		if err != nil {
			log.Printf("distill command %q failed: %v", parts[0], err)
			continue
		}
		if out != "" {
			return out
		}
	}

	return localDistill(cps)
}

func runDistillCommand(ctx context.Context, env *Env, name string, args []string, prompt string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, env.Cfg.ExternalTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(prompt)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func buildPrompt(query string, cps []checkpoint.Checkpoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following development checkpoints as they relate to %q. ", query)
	b.WriteString("Be concise; a few sentences at most.\n\n")
	for _, cp := range cps {
		fmt.Fprintf(&b, "- [%s] %s\n", cp.Timestamp.Format("2006-01-02 15:04"), cp.Description)
	}
	return b.String()
}

// localDistill concatenates each checkpoint's summary, or first sentence,
// into a bullet list. It calls no external process.
func localDistill(cps []checkpoint.Checkpoint) string {
	var b strings.Builder
	for _, cp := range cps {
		text := cp.Summary
		if text == "" {
			text = checkpoint.DeriveSummary(cp.Description)
		}
		if text == "" {
			text = cp.Description
		}
		fmt.Fprintf(&b, "- %s\n", text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
