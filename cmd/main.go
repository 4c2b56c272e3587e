package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"news_spider/internal/app"
	"news_spider/internal/config"
	"news_spider/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		concurrency int
		maxPages    int
		dbPath      string
	)

	cmd := &cobra.Command{
		Use:           "news-spider",
		Short:         "Crawl a news archive and store new articles",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Logic.Concurrency = concurrency
			}
			if cmd.Flags().Changed("max-pages") {
				cfg.Logic.MaxPages = maxPages
			}
			if cmd.Flags().Changed("db") {
				cfg.DB.Path = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "max simultaneous fetches")
	cmd.Flags().IntVar(&maxPages, "max-pages", 300, "listing page cap")
	cmd.Flags().StringVar(&dbPath, "db", "primamedia.db", "sqlite database file")
	return cmd
}

func run(parent context.Context, cfg *config.SpiderConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	defer func() { _ = log.Sync() }()

	spider, err := app.NewSpiderApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer spider.Close()

	summary, err := spider.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nDone.\n")
	fmt.Printf("Articles in store:       %d\n", summary.Stats.Count)
	fmt.Printf("Mean text length:        %d chars\n", summary.Stats.AvgDescriptionLength)
	fmt.Printf("Store:                   %s\n", summary.Location)
	fmt.Printf("Saved during this run:   %d\n", summary.Saved)
	return nil
}
