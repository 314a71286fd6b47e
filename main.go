package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/UnitVectorY-Labs/cratebadges/internal/badges"
	"github.com/UnitVectorY-Labs/cratebadges/internal/config"
	"github.com/UnitVectorY-Labs/cratebadges/internal/crawler"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
	"github.com/UnitVectorY-Labs/cratebadges/internal/export"
	"github.com/UnitVectorY-Labs/cratebadges/internal/generator"
	"github.com/UnitVectorY-Labs/cratebadges/internal/logging"
)

// templateFS embeds all HTML templates from the templates directory.
//
//go:embed templates/*.html
//go:embed templates/style.css
var templateFS embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("cratebadges", pflag.ContinueOnError)
	crawlMode := flagSet.Bool("crawl", false, "crawl an organization's READMEs into a badges table")
	decodeMode := flagSet.Bool("decode", false, "decode the badges table and export it")
	genMode := flagSet.Bool("generate", false, "decode the badges table and render the HTML report")
	configPath := flagSet.String("config", "", "YAML configuration file")
	orgName := flagSet.String("org", "", "GitHub organization name (required for crawl)")
	includePrivate := flagSet.Bool("private", false, "include private repositories (default: public only)")
	dumpDir := flagSet.String("dump", "", "dump directory holding badges.csv and related tables")
	outputDir := flagSet.String("output", "", "directory for exported rows (decode)")
	htmlDir := flagSet.String("html", "", "directory for HTML output (generate)")
	format := flagSet.String("format", "", "export format: json or cbor")
	onError := flagSet.String("on-error", "", "row error policy: skip or abort")
	workers := flagSet.Int("workers", 0, "concurrent workers (0 means a per-mode default)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	modes := 0
	for _, m := range []bool{*crawlMode, *decodeMode, *genMode} {
		if m {
			modes++
		}
	}
	if modes == 0 {
		fmt.Fprintln(os.Stderr, "Usage: cratebadges [--crawl | --decode | --generate] [options]")
		flagSet.PrintDefaults()
		os.Exit(1)
	}
	if modes > 1 {
		return errors.New("only one of --crawl, --decode and --generate may be given")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags win over the file and environment.
	if flagSet.Changed("org") {
		cfg.Crawl.Org = *orgName
	}
	if flagSet.Changed("private") {
		cfg.Crawl.Private = *includePrivate
	}
	if flagSet.Changed("dump") {
		cfg.Dump.Dir = *dumpDir
	}
	if flagSet.Changed("output") {
		cfg.Output.Dir = *outputDir
	}
	if flagSet.Changed("html") {
		cfg.Output.HTMLDir = *htmlDir
	}
	if flagSet.Changed("format") {
		cfg.Output.Format = *format
	}
	if flagSet.Changed("on-error") {
		cfg.Dump.OnError = *onError
	}
	if flagSet.Changed("workers") {
		cfg.Dump.Workers = *workers
		cfg.Crawl.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	policy, err := dump.ParsePolicy(cfg.Dump.OnError)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *crawlMode:
		return crawl(ctx, cfg, logger)
	case *decodeMode:
		stats, err := export.Run(ctx, export.Options{
			DumpDir:   cfg.Dump.Dir,
			OutputDir: cfg.Output.Dir,
			Format:    cfg.Output.Format,
			Workers:   cfg.Dump.Workers,
			Policy:    policy,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
		fmt.Printf("Exported %d rows to %s (%d rejected)\n", stats.Rows, stats.Path, stats.Errors)
	case *genMode:
		if err := generator.Run(ctx, generator.Options{
			DumpDir:   cfg.Dump.Dir,
			OutputDir: cfg.Output.HTMLDir,
			Templates: templateFS,
			Workers:   cfg.Dump.Workers,
			Policy:    policy,
			Logger:    logger,
		}); err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}
	}
	return nil
}

func crawl(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Crawl.Org == "" {
		return errors.New("--org is required for crawl mode")
	}
	client, err := crawler.NewClient(ctx, os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("GITHUB_TOKEN environment variable is required for crawl mode: %w", err)
	}
	catalog, err := crawler.LoadCatalog(cfg.Crawl.Providers)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Dump.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", cfg.Dump.Dir, err)
	}
	path := dump.Path(cfg.Dump.Dir, badges.Table)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	stats, err := crawler.Run(ctx, client, crawler.Options{
		Org:            cfg.Crawl.Org,
		IncludePrivate: cfg.Crawl.Private,
		Workers:        cfg.Crawl.Workers,
		Catalog:        catalog,
		Logger:         logger,
	}, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	fmt.Printf("Crawled %d repositories, %d READMEs, %d badges (%d errors) into %s\n",
		stats.Repositories, stats.Readmes, stats.Rows, stats.Errors, path)
	return nil
}
