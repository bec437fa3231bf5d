package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/config"
	"github.com/cairnhq/cairn/internal/embed"
	"github.com/cairnhq/cairn/internal/gitinfo"
	"github.com/cairnhq/cairn/internal/logstore"
	"github.com/cairnhq/cairn/internal/mcp"
	"github.com/cairnhq/cairn/internal/ops"
	"github.com/cairnhq/cairn/internal/plan"
	"github.com/cairnhq/cairn/internal/syncer"
	"github.com/cairnhq/cairn/internal/vecstore"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "recall": true, "sync": true, "plan": true,
	"purge": true, "workspaces": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___      _
  / __|__ _(_)_ _ _ _
 | (__/ _` + "`" + ` | | '_| ' \
  \___\__,_|_|_| |_||_|

  Checkpoint and plan memory for coding agents

  Usage: cairn <command> [options]
         cairn --help

  MCP server mode requires piped input.`)
}

// buildEnv wires the shared operation environment over ~/.cairn.
func buildEnv(baseDir string) (*ops.Env, func(), error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", baseDir, err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	vectors, err := vecstore.Open(filepath.Join(baseDir, "index.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open embedding store: %w", err)
	}
	vectors.ConfigurePool(cfg)

	logs := logstore.New(baseDir)
	embedder := embed.NewCommandEmbedder(cfg.EmbedderCommand, cfg.EmbedderArgs, cfg.EmbeddingDim, cfg.ExternalTimeout())
	engine := syncer.NewEngine(logs, vectors, embedder)
	queue := syncer.NewQueue(engine, cfg.SyncQueueSize)

	env := &ops.Env{
		Logs:             logs,
		Plans:            plan.New(baseDir),
		Vectors:          vectors,
		Embedder:         embedder,
		Sync:             engine,
		Queue:            queue,
		Git:              gitinfo.ExecProvider{},
		Cfg:              cfg,
		CurrentWorkspace: workspaceFromCwd,
	}

	cleanup := func() {
		queue.Close()
		vectors.Close()
	}
	return env, cleanup, nil
}

// workspaceFromCwd derives the implicit workspace from the working
// directory's base name.
func workspaceFromCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return checkpoint.DefaultWorkspace
	}
	return checkpoint.NormalizeWorkspace(filepath.Base(cwd))
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before touching the data directory
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".cairn")

	env, cleanup, err := buildEnv(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'cairn --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(env, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
