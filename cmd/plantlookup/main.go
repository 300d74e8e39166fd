// plantlookup resolves cultivation details for one species from the command
// line and prints them as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/llm"
	"github.com/florawise/plantdetails/models"
	"github.com/florawise/plantdetails/resolver"
	"github.com/florawise/plantdetails/scrape"
)

func main() {
	var (
		noFallback bool
		llmOnly    bool
		timeout    time.Duration
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "plantlookup <species>",
		Short:         "Look up cultivation details for a plant species",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			details, err := lookup(ctx, cfg, args[0], noFallback, llmOnly)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}
	root.Flags().BoolVar(&noFallback, "no-fallback", false, "fail instead of consulting the generative provider")
	root.Flags().BoolVar(&llmOnly, "llm", false, "skip the reference site and ask the generative provider directly")
	root.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "overall lookup deadline")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		if f, ok := faults.As(err); ok {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Code, f.Message)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func lookup(ctx context.Context, cfg *config.Config, species string, noFallback, llmOnly bool) (*models.PlantDetails, error) {
	if llmOnly {
		generator, err := llm.NewGenerator(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return generator.Generate(ctx, species)
	}

	var fetcher scrape.Fetcher
	if cfg.Site.FetchMode == config.FetchModeBrowser {
		f, err := scrape.NewBrowserFetcher(cfg.Site)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Warn("closing browser", slog.Any("error", err))
			}
		}()
		fetcher = f
	} else {
		f, err := scrape.NewSiteFetcher(cfg.Site)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	scraper := scrape.NewScraper(fetcher, nil)
	if noFallback {
		return scraper.Resolve(ctx, species)
	}

	generator, err := llm.NewGenerator(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	return resolver.New(scraper, generator, nil).Resolve(ctx, species)
}
