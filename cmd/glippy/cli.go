package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jessemcnew/glippy/internal/config"
	"github.com/jessemcnew/glippy/internal/errors"
	"github.com/jessemcnew/glippy/internal/router"
	"github.com/jessemcnew/glippy/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "glippy",
		Usage:   "Clip capture and Glean sync",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(a),
			listCmd(a),
			getCmd(a),
			retryCmd(a),
			deleteCmd(a),
			searchCmd(a),
			collectionsCmd(a),
			testConnectionCmd(a),
			testIndexingCmd(a),
			configCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// saveCmd creates the save command.
func saveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a clip (selection text from --text or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Source page URL"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Page title"},
			&cli.StringFlag{Name: "text", Usage: "Selected text (otherwise read from stdin)"},
			&cli.StringFlag{Name: "context", Usage: "Surrounding text for the selection"},
			&cli.BoolFlag{Name: "html", Usage: "Treat stdin as page HTML and derive title and selection"},
		},
		Action: func(c *cli.Context) error {
			data := router.SaveClipData{
				URL:     c.String("url"),
				Title:   c.String("title"),
				Context: c.String("context"),
			}

			if c.Bool("html") {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("--html requires page HTML piped via stdin"))
				}
				html, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				data.HTML = html
			} else if text := c.String("text"); text != "" {
				data.SelectedText = text
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				data.SelectedText = text
			}

			return dispatchCLI(a, c, router.ActionSaveClip, data)
		},
	}
}

// listCmd creates the list command.
func listCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved clips, newest first",
		Action: func(c *cli.Context) error {
			return dispatchCLI(a, c, router.ActionGetClips, nil)
		},
	}
}

// getCmd creates the get command.
func getCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get one clip by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			clip, err := a.store.Get(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(clip)
		},
	}
}

// retryCmd creates the retry command.
func retryCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "retry",
		Usage:     "Retry syncing a clip to the configured backends",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			return dispatchCLI(a, c, router.ActionRetrySync, map[string]string{"id": c.Args().First()})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a clip, or every clip with --all",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "Delete every stored clip"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("all") {
				if err := a.store.ClearAll(c.Context); err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]any{"cleared": true})
			}
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required (or pass --all)"))
			}
			return dispatchCLI(a, c, router.ActionDeleteClip, map[string]string{"id": c.Args().First()})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search Glean with the configured credentials",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return outputError(errors.NewInvalidRequest("query is required"))
			}
			return dispatchCLI(a, c, router.ActionSearchGlean, map[string]string{"query": query})
		},
	}
}

// collectionsCmd creates the collections command.
func collectionsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "List the Glean collections visible to the configured token",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "items", Usage: "Fetch the items of every collection"},
			&cli.IntFlag{Name: "max", Usage: "Read at most this many collections (with --items)"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("items") {
				data := map[string]int{"max_collections": c.Int("max")}
				return dispatchCLI(a, c, router.ActionFetchItems, data)
			}
			return dispatchCLI(a, c, router.ActionFetchCollections, nil)
		},
	}
}

// testConnectionCmd creates the test-connection command.
func testConnectionCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "test-connection",
		Usage: "Verify the Collections API credentials",
		Action: func(c *cli.Context) error {
			return dispatchCLI(a, c, router.ActionTestConnection, nil)
		},
	}
}

// testIndexingCmd creates the test-indexing command.
func testIndexingCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "test-indexing",
		Usage: "Verify the Indexing API credentials with a probe document",
		Action: func(c *cli.Context) error {
			return dispatchCLI(a, c, router.ActionTestIndexing, nil)
		},
	}
}

// configCmd creates the config command with get/set subcommands.
func configCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change the sync configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the configuration with tokens redacted",
				Action: func(c *cli.Context) error {
					return dispatchCLI(a, c, router.ActionGetConfig, nil)
				},
			},
			{
				Name:  "set",
				Usage: "Change configuration fields; unset flags are left as-is",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "enabled", Usage: "Enable Collections sync"},
					&cli.BoolFlag{Name: "disabled", Usage: "Disable Collections sync"},
					&cli.StringFlag{Name: "domain", Usage: "Glean domain, e.g. acme.glean.com"},
					&cli.StringFlag{Name: "token", Usage: "Client API token"},
					&cli.StringFlag{Name: "token-type", Usage: "Token type: glean-issued|oauth"},
					&cli.StringFlag{Name: "collection-id", Usage: "Target collection id"},
					&cli.StringFlag{Name: "collection-name", Usage: "Target collection display name"},
					&cli.BoolFlag{Name: "indexing-enabled", Usage: "Enable Indexing sync"},
					&cli.BoolFlag{Name: "indexing-disabled", Usage: "Disable Indexing sync"},
					&cli.StringFlag{Name: "indexing-token", Usage: "Indexing API token"},
					&cli.StringFlag{Name: "datasource", Usage: "Indexing datasource name"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := a.loader.Load(c.Context)
					if err != nil {
						return outputError(err)
					}

					if c.Bool("enabled") {
						cfg.Enabled = true
					}
					if c.Bool("disabled") {
						cfg.Enabled = false
					}
					if v := c.String("domain"); v != "" {
						cfg.Domain = v
					}
					if v := c.String("token"); v != "" {
						cfg.APIToken = v
					}
					if v := c.String("token-type"); v != "" {
						if v != config.TokenTypeGleanIssued && v != config.TokenTypeOAuth {
							return outputError(errors.NewInvalidRequest("token-type must be glean-issued or oauth"))
						}
						cfg.TokenType = v
					}
					if v := c.String("collection-id"); v != "" {
						cfg.CollectionID = v
					}
					if v := c.String("collection-name"); v != "" {
						cfg.CollectionName = v
					}
					if c.Bool("indexing-enabled") {
						cfg.IndexingEnabled = true
					}
					if c.Bool("indexing-disabled") {
						cfg.IndexingEnabled = false
					}
					if v := c.String("indexing-token"); v != "" {
						cfg.IndexingToken = v
					}
					if v := c.String("datasource"); v != "" {
						cfg.Datasource = v
					}

					if err := config.Save(c.Context, a.db, cfg); err != nil {
						return outputError(err)
					}
					return outputJSON(cfg.Redacted())
				},
			},
		},
	}
}

// serveCmd creates the serve command for the web dashboard.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the clip dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8943, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			// Surface config edits made through other surfaces in
			// the server log while it runs.
			stop := config.Watch(a.db, func(cfg *config.SyncConfig) {
				a.logger.Info("sync configuration updated",
					"enabled", cfg.Enabled,
					"domain", cfg.Domain,
					"indexing_enabled", cfg.IndexingEnabled)
			})
			defer stop()

			srv := web.NewServer(a.store, a.orch, a.loader, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// dispatchCLI routes one action through the router and prints the reply.
func dispatchCLI(a *app, c *cli.Context, action router.Action, data any) error {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return outputError(errors.NewInternal(err))
		}
		raw = b
	}

	reply, replied := a.router.DispatchRequest(c.Context, &router.Request{Action: action, Data: raw})
	if !replied {
		return outputError(errors.NewInvalidRequest("unroutable request"))
	}
	resp, ok := reply.(*router.Response)
	if !ok {
		return outputJSON(reply)
	}
	if !resp.Success {
		return outputError(errors.NewInvalidRequest(resp.Error))
	}
	return outputJSON(resp.Data)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if clipErr, ok := err.(*errors.ClipError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", clipErr.Code, clipErr.Message), 1)
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
