package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jessemcnew/glippy/internal/config"
	"github.com/jessemcnew/glippy/internal/kv"
	"github.com/jessemcnew/glippy/internal/mcp"
	"github.com/jessemcnew/glippy/internal/router"
	"github.com/jessemcnew/glippy/internal/store"
	"github.com/jessemcnew/glippy/internal/sync"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "list": true, "get": true, "retry": true,
	"delete": true, "search": true, "collections": true,
	"test-connection": true, "test-indexing": true,
	"config": true, "serve": true,
	"help": true,
}

// app bundles the wired components shared by every surface.
type app struct {
	db     *kv.Store
	store  *store.Store
	loader config.Loader
	orch   *sync.Orchestrator
	router *router.Router
	logger *slog.Logger
}

func newApp(baseDir string) (*app, error) {
	db, err := kv.Open(baseDir)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	st := store.New(db)
	loader := config.NewKVLoader(db)
	orch := sync.New(st, loader, logger)

	return &app{
		db:     db,
		store:  st,
		loader: loader,
		orch:   orch,
		router: router.New(st, orch, loader, logger),
		logger: logger,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
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
	return false
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
       _ _
   ___| (_)_ __  _ __  _   _
  / _ | | | '_ \| '_ \| | | |
 | (_| | | | |_) | |_) | |_| |
  \__, |_|_| .__/| .__/ \__, |
  |___/    |_|   |_|    |___/

  Clip capture and Glean sync

  Usage: glippy <command> [options]
         glippy --help

  MCP server mode requires piped input.`)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening the store.
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
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
	baseDir := filepath.Join(homeDir, ".glippy")

	a, err := newApp(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open clip store: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if isCLIMode() {
		cliApp := newCLIApp(a)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'glippy --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	srv := mcp.NewServer(a.router, a.store, Version)
	if err := mcp.Run(srv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
