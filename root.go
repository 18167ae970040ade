package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitemap-extract/internal/config"
	"sitemap-extract/pkg/logger"
)

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the sitemap-extract command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "sitemap-extract",
		Short: "Crawl the articles listed in a sitemap and extract them with an LLM",
		Long: `sitemap-extract reads an XML sitemap (following nested sitemaps one level
deep), renders every listed page, asks a language model for a title, summary,
brief summary and keywords, and writes one JSON file per article.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./config.yaml or "+config.XDGConfigDir()+"/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// load reads configuration, applies command-line overrides and installs the
// configured logger.
func (o *globalOptions) load(overrides map[string]interface{}) (*config.Config, config.Manager, error) {
	if overrides == nil {
		overrides = map[string]interface{}{}
	}
	if o.logLevel != "" {
		overrides["logger.level"] = o.logLevel
	}
	if o.logFormat != "" {
		overrides["logger.format"] = o.logFormat
	}

	manager := config.NewManager()
	cfg, err := manager.Load(o.configPath, overrides)
	if err != nil {
		return nil, nil, err
	}

	logger.SetGlobalLogger(logger.New(cfg.Logger))
	return cfg, manager, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
