package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sitemap-extract/internal/handler"
	"sitemap-extract/pkg/crawler"
	"sitemap-extract/pkg/llm"
	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/parser"
)

type runOptions struct {
	sitemapURL  string
	outDir      string
	engine      string
	concurrency int
	report      string
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [sitemap-url]",
		Short: "Resolve a sitemap, crawl every article and write extracted JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.sitemapURL = args[0]
			}
			return runExtract(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "directory for article JSON files (default ./.data)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "page fetcher: chromedp or http")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "n", 0, "crawls in flight; 0 or less runs all at once")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a markdown run report to this path")

	return cmd
}

func (o *runOptions) overrides(cmd *cobra.Command) map[string]interface{} {
	m := map[string]interface{}{}
	if o.sitemapURL != "" {
		m["sitemap.url"] = o.sitemapURL
	}
	if o.outDir != "" {
		m["output.dir"] = o.outDir
	}
	if o.engine != "" {
		m["crawler.engine"] = o.engine
	}
	if cmd.Flags().Changed("concurrency") {
		m["crawler.concurrency"] = o.concurrency
	}
	if o.report != "" {
		m["output.report"] = o.report
	}
	return m
}

func runExtract(cmd *cobra.Command, global *globalOptions, opts *runOptions) error {
	cfg, manager, err := global.load(opts.overrides(cmd))
	if err != nil {
		return err
	}

	spec, err := cfg.BuildSpec()
	if err != nil {
		return err
	}

	sl := logger.NewSecurityLogger(logger.GetLogger())
	sl.SafeInfo("Configuration loaded", map[string]interface{}{
		"config_file": manager.ConfigFileUsed(),
		"sitemap":     cfg.Sitemap.URL,
		"provider":    spec.Provider(),
		"api_key":     spec.APIToken(),
		"base_url":    sl.MaskEndpoint(cfg.LLM.BaseURL),
		"engine":      cfg.Crawler.Fetch.Engine,
		"output_dir":  cfg.Output.Dir,
	})

	client, err := llm.NewClient(spec, cfg.LLM.Config)
	if err != nil {
		return err
	}

	engine, err := crawler.New(cfg.Crawler.Fetch, client)
	if err != nil {
		return err
	}

	downloader := parser.NewHTTPClient(cfg.Sitemap.Timeout)
	downloader.SetUserAgent(cfg.Sitemap.UserAgent)
	resolver := parser.NewResolver(downloader, logger.GetLogger())

	controller := handler.NewController(resolver, engine, handler.ControllerConfig{
		Pool:        cfg.Crawler.Pool,
		StripPrefix: cfg.StripPrefix(),
		ReuseCache:  !cfg.Crawler.Fetch.BypassCache,
	})

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	report, runErr := controller.Process(ctx, cfg.Sitemap.URL, spec, cfg.Output.Dir)
	if report != nil {
		handler.PrintSummary(cmd.OutOrStdout(), report)
		if cfg.Output.Report != "" {
			if err := writeReport(cfg.Output.Report, report); err != nil {
				logger.WithError(err).Warn("Failed to write run report")
			}
		}
	}
	return runErr
}

func writeReport(path string, report *handler.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := handler.WriteMarkdown(f, report); err != nil {
		f.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	return f.Close()
}
