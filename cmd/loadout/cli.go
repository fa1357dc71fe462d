package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/metrics"
	"github.com/hpungsan/loadout/internal/ops"
	"github.com/hpungsan/loadout/internal/web"
)

// maxStdinBytes caps notes read from stdin.
const maxStdinBytes = 4 * ops.MaxNotesChars

// newCLIApp creates the CLI application with all commands.
// Each invocation is its own process, so undo history does not outlive a
// command; use the MCP server or the ui command for undo and redo.
func newCLIApp(w *ops.Workbench, log *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "loadout",
		Usage:   "Local fit planner with undo",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(w),
			fetchCmd(w),
			listCmd(w),
			updateCmd(w),
			deleteCmd(w),
			addCmd(w),
			removeCmd(w),
			metasCmd(w),
			statesCmd(w),
			projectCmd(w),
			unprojectCmd(w),
			projectMetasCmd(w),
			variationsCmd(w),
			uiCmd(w, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func createCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an empty fit on a hull (reads notes from stdin if piped)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Fit name"},
			&cli.StringFlag{Name: "ship", Aliases: []string{"s"}, Required: true, Usage: "Hull item ID or name"},
			&cli.StringFlag{Name: "notes", Usage: "Markdown notes"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CreateFitInput{
				Name:  c.String("name"),
				Ship:  c.String("ship"),
				Notes: c.String("notes"),
			}
			if !c.IsSet("notes") && stdinHasData() {
				notes, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.Notes = notes
			}

			output, err := w.CreateFit(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func fetchCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a fit with its modules and stats",
		ArgsUsage: "<fit-id>",
		Action: func(c *cli.Context) error {
			output, err := w.FetchFit(c.Context, ops.FetchFitInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func listCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List fits, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := w.ListFits(c.Context, ops.ListFitsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func updateCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Rename a fit or replace its notes (reads notes from stdin if piped)",
		ArgsUsage: "<fit-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
			&cli.StringFlag{Name: "notes", Usage: "New markdown notes"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateFitInput{ID: c.Args().First()}
			if c.IsSet("name") {
				name := c.String("name")
				input.Name = &name
			}
			if c.IsSet("notes") {
				notes := c.String("notes")
				input.Notes = &notes
			} else if stdinHasData() {
				notes, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				if notes != "" {
					input.Notes = &notes
				}
			}

			output, err := w.UpdateFit(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func deleteCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a fit permanently",
		ArgsUsage: "<fit-id>",
		Action: func(c *cli.Context) error {
			output, err := w.DeleteFit(c.Context, ops.DeleteFitInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func addCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Fit a module or subsystem",
		ArgsUsage: "<fit-id> <item>",
		Action: func(c *cli.Context) error {
			output, err := w.AddModule(c.Context, ops.ModuleInput{
				FitID: c.Args().Get(0),
				Item:  itemArg(c, 1),
			})
			return commandResult(c, output, err)
		},
	}
}

func removeCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove fitted modules by position",
		ArgsUsage: "<fit-id> <position>...",
		Action: func(c *cli.Context) error {
			positions, err := parsePositions(c.Args().Tail())
			if err != nil {
				return outputError(err)
			}
			output, err := w.RemoveModules(c.Context, ops.PositionsInput{
				FitID:     c.Args().First(),
				Positions: positions,
			})
			return commandResult(c, output, err)
		},
	}
}

func metasCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "metas",
		Usage:     "Swap fitted modules for another variation",
		ArgsUsage: "<fit-id> <position>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "item", Aliases: []string{"i"}, Required: true, Usage: "Variation item ID or name"},
		},
		Action: func(c *cli.Context) error {
			positions, err := parsePositions(c.Args().Tail())
			if err != nil {
				return outputError(err)
			}
			output, err := w.ChangeModuleMetas(c.Context, ops.MetasInput{
				FitID:     c.Args().First(),
				Positions: positions,
				Item:      c.String("item"),
			})
			return commandResult(c, output, err)
		},
	}
}

func statesCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "states",
		Usage:     "Set the state of fitted modules",
		ArgsUsage: "<fit-id> <position>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Required: true, Usage: "offline|online|active|overheated"},
		},
		Action: func(c *cli.Context) error {
			positions, err := parsePositions(c.Args().Tail())
			if err != nil {
				return outputError(err)
			}
			output, err := w.ChangeModuleStates(c.Context, ops.StatesInput{
				FitID:     c.Args().First(),
				Positions: positions,
				State:     c.String("state"),
			})
			return commandResult(c, output, err)
		},
	}
}

func projectCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "project",
		Usage:     "Project a module onto a fit",
		ArgsUsage: "<fit-id> <item>",
		Action: func(c *cli.Context) error {
			output, err := w.AddProjected(c.Context, ops.ModuleInput{
				FitID: c.Args().Get(0),
				Item:  itemArg(c, 1),
			})
			return commandResult(c, output, err)
		},
	}
}

func unprojectCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "unproject",
		Usage:     "Remove projected modules by position",
		ArgsUsage: "<fit-id> <position>...",
		Action: func(c *cli.Context) error {
			positions, err := parsePositions(c.Args().Tail())
			if err != nil {
				return outputError(err)
			}
			output, err := w.RemoveProjected(c.Context, ops.PositionsInput{
				FitID:     c.Args().First(),
				Positions: positions,
			})
			return commandResult(c, output, err)
		},
	}
}

func projectMetasCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "project-metas",
		Usage:     "Swap projected modules for another variation",
		ArgsUsage: "<fit-id> <position>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "item", Aliases: []string{"i"}, Required: true, Usage: "Variation item ID or name"},
		},
		Action: func(c *cli.Context) error {
			positions, err := parsePositions(c.Args().Tail())
			if err != nil {
				return outputError(err)
			}
			output, err := w.ChangeProjectedMetas(c.Context, ops.MetasInput{
				FitID:     c.Args().First(),
				Positions: positions,
				Item:      c.String("item"),
			})
			return commandResult(c, output, err)
		},
	}
}

func variationsCmd(w *ops.Workbench) *cli.Command {
	return &cli.Command{
		Name:      "variations",
		Usage:     "List every variation of an item",
		ArgsUsage: "<item>",
		Action: func(c *cli.Context) error {
			output, err := w.Variations(c.Context, ops.VariationsInput{Item: itemArg(c, 0)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func uiCmd(w *ops.Workbench, log *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8421, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("port must be 1-65535, got %d", port)))
			}
			rec := metrics.New()
			w.SetObserver(rec)
			unsubscribe := w.Events().Subscribe(rec.FitChanged)
			defer unsubscribe()

			srv, err := web.NewServer(w, rec, log, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, log); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var lErr *errors.LoadoutError
	if stderrors.As(err, &lErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// commandResult prints a command output. A command that did not apply is
// still printed, with a non-zero exit.
func commandResult(c *cli.Context, output *ops.CommandOutput, err error) error {
	if err != nil {
		return outputError(err)
	}
	if err := outputJSON(c, output); err != nil {
		return err
	}
	if !output.Applied {
		return cli.Exit(fmt.Sprintf("%s had no effect", output.Command), 2)
	}
	return nil
}

// itemArg joins the arguments from index i on, so multi-word item names
// work without quoting.
func itemArg(c *cli.Context, i int) string {
	args := c.Args().Slice()
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}

// parsePositions converts positional arguments to module positions.
func parsePositions(args []string) ([]int, error) {
	positions := make([]int, 0, len(args))
	for _, a := range args {
		p, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || p < 0 {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid position %q", a))
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, int64(limit)+1))
	if err != nil {
		return "", err
	}
	if len(data) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
