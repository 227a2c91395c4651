package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gnana997/storydex/pkg/catalog"
	"github.com/gnana997/storydex/pkg/extract"
	mcpserver "github.com/gnana997/storydex/pkg/mcp"
	"github.com/gnana997/storydex/pkg/server"
	"github.com/gnana997/storydex/pkg/util"
)

const version = "0.1.0-dev"

const defaultOutput = ".storydex/catalog.json"

func main() {
	app := &cli.App{
		Name:    "storydex",
		Usage:   "Extract and serve a story catalog from component source trees",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root to scan for story files",
				Value:   ".",
				EnvVars: []string{"STORYDEX_ROOT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"STORYDEX_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				EnvVars: []string{"STORYDEX_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			extractCommand(),
			serveCommand(),
			mcpCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "storydex: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	cfg := util.DefaultLoggerConfig()
	cfg.Level = util.LogLevel(c.String("log-level"))
	cfg.Format = util.LogFormat(c.String("log-format"))
	logger := util.NewLogger(cfg)
	util.SetDefault(logger)
	return logger
}

// buildOptions merges flags with the project config file, flags winning.
func buildOptions(c *cli.Context, logger *slog.Logger) (extract.Options, string, error) {
	root := c.String("root")

	cfg, err := loadProjectConfig(root)
	if err != nil {
		return extract.Options{}, "", fmt.Errorf("failed to read project config: %w", err)
	}
	if cfg == nil {
		cfg = &ProjectConfig{}
	}

	opts := extract.Options{
		Root:         resolve("", cfg.Root, root),
		ServerURL:    resolve(c.String("server-url"), cfg.ServerURL, ""),
		Port:         c.Int("port"),
		ArtifactPath: resolve(c.String("artifact"), cfg.Artifact, ""),
		StoryTimeout: c.Duration("story-timeout"),
		RunTimeout:   c.Duration("run-timeout"),
		Enhance:      c.Bool("enhance"),
		Logger:       logger,
	}
	output := resolve(c.String("output"), cfg.Output, defaultOutput)
	return opts, output, nil
}

func extractFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Catalog output path",
			EnvVars: []string{"STORYDEX_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "Running dev server URL (skips port autodetection)",
			EnvVars: []string{"STORYDEX_SERVER_URL"},
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Dev server port on localhost",
			EnvVars: []string{"STORYDEX_PORT"},
		},
		&cli.StringFlag{
			Name:    "artifact",
			Usage:   "Built index artifact path (default <root>/storybook-static/index.json)",
			EnvVars: []string{"STORYDEX_ARTIFACT"},
		},
		&cli.DurationFlag{
			Name:  "story-timeout",
			Usage: "Per-story browser introspection timeout",
			Value: 8 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "run-timeout",
			Usage: "Whole live-introspection run timeout",
			Value: 3 * time.Minute,
		},
		&cli.BoolFlag{
			Name:  "enhance",
			Usage: "Retry basic extractions with deep live introspection",
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract the story catalog and write it to disk",
		Flags: extractFlags(),
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			opts, output, err := buildOptions(c, logger)
			if err != nil {
				return err
			}

			ctx := signalContext()
			result, err := runExtraction(ctx, opts)
			if err != nil {
				return err
			}

			if err := result.Catalog.Save(output); err != nil {
				return fmt.Errorf("failed to write catalog: %w", err)
			}
			logger.Info("catalog written",
				"path", output,
				"stories", result.Catalog.TotalStories,
				"extractedFrom", result.Provenance)

			if result.NoData {
				return cli.Exit("no stories found by any extraction strategy", 1)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over a REST API",
		Flags: append(extractFlags(),
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":4141",
				EnvVars: []string{"STORYDEX_ADDR"},
			},
		),
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			opts, output, err := buildOptions(c, logger)
			if err != nil {
				return err
			}

			ctx := signalContext()
			store := catalog.NewStore()

			if cat, err := catalog.Load(output); err == nil {
				store.ReplaceFrom(cat, output)
				logger.Info("loaded existing catalog", "path", output, "stories", cat.TotalStories)
			} else {
				result, err := runExtraction(ctx, opts)
				if err != nil {
					return err
				}
				if err := result.Catalog.Save(output); err != nil {
					logger.Warn("failed to persist catalog", "error", err)
					store.Replace(result.Catalog)
				} else {
					store.ReplaceFrom(result.Catalog, output)
				}
			}

			srv := server.New(store, output, logger)
			return srv.ListenAndServe(ctx, c.String("addr"))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the catalog to MCP clients over stdio",
		Flags: extractFlags(),
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			opts, output, err := buildOptions(c, logger)
			if err != nil {
				return err
			}

			store := catalog.NewStore()
			if cat, err := catalog.Load(output); err == nil {
				store.ReplaceFrom(cat, output)
			} else {
				result, err := runExtraction(signalContext(), opts)
				if err != nil {
					return err
				}
				store.Replace(result.Catalog)
			}

			srv := mcpserver.NewServer(catalog.NewQueryService(store), logger)
			return srv.ServeStdio()
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch story files and serve a continuously updated catalog",
		Flags: append(extractFlags(),
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":4141",
				EnvVars: []string{"STORYDEX_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Delay before rebuilding after a file change",
				Value: 200 * time.Millisecond,
			},
		),
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			opts, _, err := buildOptions(c, logger)
			if err != nil {
				return err
			}

			ctx := signalContext()
			store := catalog.NewStore()

			source := extract.NewSourceStrategy(opts)
			defer source.Close()

			cat, err := source.Extract(ctx)
			if err != nil {
				return fmt.Errorf("initial extraction failed: %w", err)
			}
			store.Replace(cat)
			logger.Info("initial catalog built", "stories", cat.TotalStories)

			watcher, err := extract.NewWatcher(source, store, c.Duration("debounce"), logger)
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			srv := server.New(store, "", logger)
			return srv.ListenAndServe(ctx, c.String("addr"))
		},
	}
}

// runExtraction runs the full strategy chain once.
func runExtraction(ctx context.Context, opts extract.Options) (*extract.Result, error) {
	caps := extract.DetectCapabilities()
	selector := extract.NewSelector(opts, caps)
	defer selector.Close()
	return selector.Run(ctx)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()
	return ctx
}
