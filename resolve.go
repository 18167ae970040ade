package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/parser"
)

func newResolveCmd(global *globalOptions) *cobra.Command {
	var showSkipped bool

	cmd := &cobra.Command{
		Use:   "resolve [sitemap-url]",
		Short: "Print the article URLs a sitemap resolves to, one per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]interface{}{}
			if len(args) == 1 {
				overrides["sitemap.url"] = args[0]
			}
			cfg, _, err := global.load(overrides)
			if err != nil {
				return err
			}

			downloader := parser.NewHTTPClient(cfg.Sitemap.Timeout)
			downloader.SetUserAgent(cfg.Sitemap.UserAgent)
			resolver := parser.NewResolver(downloader, logger.GetLogger())

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			out := cmd.OutOrStdout()
			if !showSkipped {
				for _, u := range resolver.Resolve(ctx, cfg.Sitemap.URL) {
					fmt.Fprintln(out, u)
				}
				return nil
			}

			for _, entry := range resolver.ResolveEntries(ctx, cfg.Sitemap.URL) {
				if entry.Skipped {
					fmt.Fprintf(out, "# skipped %s: %s\n", entry.Loc, entry.Reason)
					continue
				}
				for _, u := range entry.URLs {
					fmt.Fprintln(out, u)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "also list sitemap entries that were skipped")
	return cmd
}
