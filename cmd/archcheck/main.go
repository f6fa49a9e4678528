package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archcheck/internal/core/config"
	"archcheck/internal/ui/report"
)

var (
	configPath      = flag.String("config", "./archcheck.toml", "Path to config file")
	format          = flag.String("format", "console", "Output format: console or json")
	includeWarnings = flag.Bool("include-warnings", false, "Print warnings, not only errors")
	noArtifact      = flag.Bool("no-artifact", false, "Skip writing the JSON results file")
	diagram         = flag.String("diagram", "", "Write a mermaid subsystem diagram to this path")
	watch           = flag.Bool("watch", false, "Recheck on file changes")
	trends          = flag.String("trends", "", "Print a JSON trend report over this window (e.g. 168h) and exit")
	metricsAddr     = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address in watch mode")
	verbose         = flag.Bool("verbose", false, "Enable verbose logging")
	version         = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("archcheck v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "./archcheck.toml" {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(2)
		}
		cfg = config.DefaultConfig()
	}
	if flag.NArg() > 0 {
		cfg.TargetPath = flag.Arg(0)
	}

	opts := report.Options{
		Format:          report.Format(*format),
		IncludeWarnings: *includeWarnings,
	}
	if opts.Format != report.FormatConsole && opts.Format != report.FormatJSON {
		fmt.Fprintf(os.Stderr, "unknown format %q, expected console or json\n", *format)
		os.Exit(2)
	}
	if !*noArtifact {
		opts.ArtifactPath = cfg.Output.ResultsPath
	}

	app, err := NewApp(cfg, opts)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(2)
	}
	app.DiagramPath = *diagram
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *trends != "" {
		window, err := time.ParseDuration(*trends)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid trends window %q: %v\n", *trends, err)
			os.Exit(2)
		}
		report, err := app.TrendReport(window)
		if err != nil {
			slog.Error("trend report failed", "error", err)
			os.Exit(2)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("trend report failed", "error", err)
			os.Exit(2)
		}
		os.Exit(0)
	}

	results, err := app.RunOnce(ctx)
	if err != nil {
		slog.Error("check failed", "error", err)
		os.Exit(2)
	}

	if *watch {
		if *metricsAddr != "" {
			go serveMetrics(*metricsAddr)
		}
		if err := app.WatchLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watch mode failed", "error", err)
			os.Exit(2)
		}
		os.Exit(0)
	}

	if results.HasErrors() {
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "addr", addr, "error", err)
	}
}
