package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/ops"
	"github.com/cairnhq/cairn/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "cairn",
		Usage:   "Checkpoint and plan memory for coding agents",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(env),
			recallCmd(env),
			syncCmd(env),
			planCmd(env),
			purgeCmd(env),
			workspacesCmd(env),
			webCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// saveCmd creates the save command.
func saveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save a checkpoint (description as argument or piped via stdin)",
		ArgsUsage: "[description]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "dir", Usage: "Directory for git context (defaults to cwd)"},
		},
		Action: func(c *cli.Context) error {
			description := strings.Join(c.Args().Slice(), " ")
			if description == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				description = text
			}

			workDir := c.String("dir")
			if workDir == "" {
				workDir, _ = os.Getwd()
			}

			input := ops.SaveInput{
				Workspace:   c.String("workspace"),
				Description: description,
				Tags:        parseTags(c.String("tags")),
				WorkDir:     workDir,
			}

			output, err := ops.Save(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// recallCmd creates the recall command.
func recallCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "recall",
		Usage: "Recall checkpoints from a workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name, or 'all' for every workspace"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search query"},
			&cli.StringFlag{Name: "since", Usage: "Window start, relative (90m, 6h, 3d) or a date"},
			&cli.StringFlag{Name: "from", Usage: "Window start date (YYYY-MM-DD or RFC3339)"},
			&cli.StringFlag{Name: "to", Usage: "Window end date (YYYY-MM-DD or RFC3339)"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Window size in days"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum checkpoints to return (default 10)"},
			&cli.BoolFlag{Name: "full", Usage: "Return full descriptions and provenance"},
			&cli.BoolFlag{Name: "semantic", Usage: "Use embedding search for the query"},
			&cli.BoolFlag{Name: "distill", Usage: "Distill search results into a digest"},
		},
		Action: func(c *cli.Context) error {
			input := ops.RecallInput{
				Workspace: c.String("workspace"),
				Search:    c.String("search"),
				Since:     c.String("since"),
				From:      c.String("from"),
				To:        c.String("to"),
				Days:      c.Int("days"),
				Full:      c.Bool("full"),
				Semantic:  c.Bool("semantic"),
				Distill:   c.Bool("distill"),
			}

			// Zero is a meaningful limit, so only pass it through when set
			if c.IsSet("limit") {
				limit := c.Int("limit")
				input.Limit = &limit
			}

			output, err := ops.Recall(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Embed any checkpoints missing from the vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Sync(c.Context, env, ops.SyncInput{
				Workspace: c.String("workspace"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// planCmd creates the plan command group.
func planCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Manage plans for a workspace",
		Subcommands: []*cli.Command{
			planSaveCmd(env),
			planUpdateCmd(env),
			planGetCmd(env),
			planListCmd(env),
			planActivateCmd(env),
			planDeleteCmd(env),
		},
	}
}

func planSaveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Create a plan (content as flag or piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Plan title"},
			&cli.StringFlag{Name: "content", Usage: "Plan content in markdown"},
			&cli.BoolFlag{Name: "activate", Aliases: []string{"a"}, Usage: "Mark the new plan active"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if content == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = text
			}

			output, err := ops.PlanSave(c.Context, env, ops.PlanSaveInput{
				Workspace: c.String("workspace"),
				Title:     c.String("title"),
				Content:   content,
				Activate:  c.Bool("activate"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

func planUpdateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a plan's title or content",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Usage: "New content (or pipe via stdin)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PlanUpdateInput{
				Workspace: c.String("workspace"),
				ID:        c.Args().First(),
			}

			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("content") {
				content := c.String("content")
				input.Content = &content
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.Content = &text
				}
			}

			output, err := ops.PlanUpdate(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

func planGetCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a plan by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.PlanGet(c.Context, env, c.String("workspace"), c.Args().First())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

func planListCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List plans in a workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.PlanList(c.Context, env, c.String("workspace"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

func planActivateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "activate",
		Usage:     "Mark a plan as the workspace's active plan",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if err := ops.PlanActivate(c.Context, env, c.String("workspace"), id); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]string{"activated": id})
		},
	}
}

func planDeleteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a plan by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace name (defaults to current directory)"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if err := ops.PlanDelete(c.Context, env, c.String("workspace"), id); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]string{"deleted": id})
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "Permanently delete a workspace's checkpoints, plans, and embeddings",
		ArgsUsage: "<workspace>",
		Action: func(c *cli.Context) error {
			output, err := ops.Purge(c.Context, env, ops.PurgeInput{
				Workspace: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// workspaceInfo is the workspaces command's output row.
type workspaceInfo struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// workspacesCmd creates the workspaces command.
func workspacesCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "workspaces",
		Usage: "List workspaces with recorded checkpoints",
		Action: func(c *cli.Context) error {
			names, err := env.Logs.Workspaces()
			if err != nil {
				return outputError(err)
			}

			infos := make([]workspaceInfo, 0, len(names))
			for _, name := range names {
				days, err := env.Logs.Days(name)
				if err != nil {
					return outputError(err)
				}
				infos = append(infos, workspaceInfo{Name: name, Days: len(days)})
			}

			return outputJSON(map[string]any{"workspaces": infos})
		},
	}
}

// webCmd creates the web command.
func webCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (defaults to config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (defaults to config)"},
		},
		Action: func(c *cli.Context) error {
			bind := c.String("bind")
			if bind == "" {
				bind = env.Cfg.WebBind
			}
			port := c.Int("port")
			if port == 0 {
				port = env.Cfg.WebPort
			}

			srv := web.NewServer(env, Version, bind, port)
			if err := web.Run(srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cairnErr, ok := err.(*errors.CairnError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cairnErr.Code, cairnErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
