// Package main provides the kgraph binary entry point.
// kgraph builds, validates, stores and audits the JSON-LD knowledge graphs
// of a multi-tenant CMS.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/modonty1-rgb/modonty-sub005/config"
	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/export"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/pipeline"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "kgraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the global flags and the state built from them.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func rootCmd() *cobra.Command {
	c := &cli{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "JSON-LD knowledge graph pipeline",
		Long: `kgraph builds a schema.org knowledge graph for every content record,
normalizes it, validates it with structural, JSON-schema and business-rule
validators, stores it with a bounded version history and answers whether
the content may be published.

It also audits rendered pages by extracting their JSON-LD, microdata and
RDFa and running the same validators.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			if cmd.Name() == "version" {
				return nil
			}
			return c.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.generateCmd(),
		c.validateCmd(),
		c.regenerateCmd(),
		c.rollbackCmd(),
		c.auditCmd(),
		c.exportCmd(),
		c.watchCmd(),
		c.serveCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func (c *cli) setup() error {
	c.logger = newLogger(c.logLevel)
	slog.SetDefault(c.logger)

	loader := config.NewLoader(c.logger)
	loader.File = c.configPath
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// startApp builds the app and opens storage. The caller must Shutdown it.
func (c *cli) startApp(ctx context.Context) (*App, error) {
	app, err := NewApp(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) generateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "generate <content-id>",
		Short: "Generate and print the graph for a content record without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(c.cfg, c.logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			article, err := app.Fetcher.FetchArticle(ctx, args[0])
			if err != nil {
				return err
			}
			g, outcome := app.Normalizer.Normalize(ctx, app.Generator.Generate(article))
			if !outcome.Applied {
				c.logger.Warn("graph not normalized", "content_id", args[0], "error", outcome.Err)
			}
			out, err := app.Exporter.Export(g, export.Format(format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSONLD), "Output format ("+strings.Join(export.Formats(), ", ")+")")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file.jsonld>",
		Short: "Validate a JSON-LD document and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			g, err := jsonld.Parse(data)
			if err != nil {
				return err
			}

			app, err := NewApp(c.cfg, c.logger)
			if err != nil {
				return err
			}
			report := app.Ensemble.ValidateDocument(cmd.Context(), doc, g, c.cfg.ValidationOptions())
			if err := c.printJSON(report); err != nil {
				return err
			}
			if n := report.ErrorCount(); strict && n > 0 {
				return fmt.Errorf("validation failed with %d errors", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the report has errors")
	return cmd
}

func (c *cli) regenerateCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "regenerate [content-id...]",
		Short: "Regenerate, validate and store graphs",
		Long: `Regenerate rebuilds the graph of each content record and stores it as a new
version. Records are given as ids or selected with --glob (doublestar syntax,
relative to the content directory). A failed record does not stop the batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if pattern != "" {
				matched, err := content.ResolveIDs(c.cfg.Content.Dir, pattern)
				if err != nil {
					return err
				}
				ids = append(ids, matched...)
			}
			if len(ids) == 0 {
				return errors.New("no content ids given")
			}

			app, err := c.startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Shutdown()

			res := app.Service.RegenerateBatch(cmd.Context(), ids, pipeline.Callbacks{
				OnProgress: func(done, total int, id string) {
					c.logger.Info("regenerated", "content_id", id, "progress", fmt.Sprintf("%d/%d", done, total))
				},
			})
			if err := c.printJSON(res); err != nil {
				return err
			}
			if res.FailCount > 0 {
				return fmt.Errorf("%d of %d records failed", res.FailCount, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "glob", "", "Select records by glob, e.g. 'tenant-*/**/*.json'")
	return cmd
}

func (c *cli) rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <content-id> <version>",
		Short: "Restore a previous version of a stored graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}
			app, err := c.startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Shutdown()

			res := app.Service.Rollback(cmd.Context(), args[0], version)
			if err := c.printJSON(res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}

func (c *cli) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <https-url|file.html>",
		Short: "Extract and validate the structured data of a rendered page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(c.cfg, c.logger)
			if err != nil {
				return err
			}
			opts := c.cfg.ValidationOptions()
			target := args[0]

			if strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "http://") {
				report, err := app.Auditor.AuditURL(cmd.Context(), target, opts)
				if err != nil {
					return err
				}
				return c.printJSON(report)
			}
			data, err := readInput(target)
			if err != nil {
				return err
			}
			return c.printJSON(app.Auditor.Audit(cmd.Context(), string(data), "", opts))
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <content-id>",
		Short: "Print the stored graph of a content record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Shutdown()

			rec, err := app.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g, err := jsonld.Parse([]byte(rec.Graph))
			if err != nil {
				return err
			}
			out, err := app.Exporter.Export(g, export.Format(format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSONLD), "Output format ("+strings.Join(export.Formats(), ", ")+")")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate graphs whenever content records change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := c.startApp(ctx)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			w, err := content.NewWatcher(content.WatcherConfig{
				Dir:           c.cfg.Content.Dir,
				DebounceDelay: debounce,
				Logger:        c.logger,
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			c.logger.Info("Watching content", "dir", c.cfg.Content.Dir)
			return watchLoop(ctx, w.Events(), app.Service, c.logger)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Wait this long for further changes before regenerating")
	return cmd
}

// watchLoop applies content events to the pipeline until ctx is done or
// events is closed.
func watchLoop(ctx context.Context, events <-chan content.WatchEvent, svc *pipeline.Service, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Operation {
			case content.OpDelete:
				if err := svc.Delete(ctx, ev.ID); err != nil {
					logger.Warn("delete failed", "content_id", ev.ID, "error", err)
				}
			default:
				if _, err := svc.Regenerate(ctx, ev.ID); err != nil {
					logger.Warn("regenerate failed", "content_id", ev.ID, "error", err)
				}
			}
		}
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.HTTP.Addr
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := c.startApp(ctx)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			srv := &http.Server{
				Addr:              addr,
				Handler:           app.Server().Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				c.logger.Info("kgraph ready", "version", Version, "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			c.logger.Info("Received shutdown signal")

			shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
