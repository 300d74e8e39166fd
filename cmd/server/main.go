package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/llm"
	"github.com/florawise/plantdetails/plantnet"
	"github.com/florawise/plantdetails/resolver"
	"github.com/florawise/plantdetails/scrape"
	"github.com/florawise/plantdetails/server"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := scrape.NewMetrics()

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeFetcher()

	generator, err := llm.NewGenerator(ctx, cfg.Gemini)
	if err != nil {
		slog.Error("initialising generative provider", slog.Any("error", err))
		os.Exit(1)
	}

	scraper := scrape.NewScraper(fetcher, metrics)
	chain := resolver.New(scraper, generator, metrics)
	pool := resolver.NewPool(cfg.Lookup)
	defer pool.Close()

	identifier := plantnet.NewClient(cfg.PlantNet)

	handler := server.NewHandler(pool, chain, scraper, generator, identifier)
	router := server.NewRouter(cfg, handler, metrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("fetch_mode", cfg.Site.FetchMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.Any("error", err))
	}
}

// newFetcher picks the retrieval strategy. The browser fetcher exists for
// when the site gates content behind scripting; static is the default.
func newFetcher(cfg *config.Config) (scrape.Fetcher, func(), error) {
	switch cfg.Site.FetchMode {
	case config.FetchModeBrowser:
		f, err := scrape.NewBrowserFetcher(cfg.Site)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {
			if err := f.Close(); err != nil {
				slog.Warn("closing browser", slog.Any("error", err))
			}
		}, nil
	default:
		f, err := scrape.NewSiteFetcher(cfg.Site)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
