package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/loadout/internal/catalog"
	"github.com/hpungsan/loadout/internal/config"
	"github.com/hpungsan/loadout/internal/db"
	"github.com/hpungsan/loadout/internal/mcp"
	"github.com/hpungsan/loadout/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"create": true, "fetch": true, "list": true, "update": true, "delete": true,
	"add": true, "remove": true, "metas": true, "states": true,
	"project": true, "unproject": true, "project-metas": true,
	"variations": true, "ui": true,
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
	return isHelpOrVersion()
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

func printBanner() {
	fmt.Println(`
   _                 _             _
  | | ___   __ _  __| | ___  _   _| |_
  | |/ _ \ / _' |/ _' |/ _ \| | | | __|
  | | (_) | (_| | (_| | (_) | |_| | |_
  |_|\___/ \__,_|\__,_|\___/ \__,_|\__|

  Local fit planner with undo

  Usage: loadout <command> [options]
         loadout --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database.
	if isHelpOrVersion() {
		app := newCLIApp(nil, slog.Default())
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode() && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'loadout --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".loadout")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if err := config.ApplyEnv(cfg, nil); err != nil {
		fatal("invalid environment: %v", err)
	}

	// stdout carries MCP frames and JSON output, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown types in disabled_types", "types", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	items, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		fatal("failed to load catalog: %v", err)
	}
	log.Debug("catalog loaded", "items", items.Len(), "path", cfg.CatalogPath)

	w := ops.NewWorkbench(database, items, cfg, log)
	defer w.Close()

	if isCLIMode() {
		app := newCLIApp(w, log)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			w.Close()
			database.Close()
			os.Exit(1)
		}
		return
	}

	if err := mcp.Run(w, cfg, Version); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
