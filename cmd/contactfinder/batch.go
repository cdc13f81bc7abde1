package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/export"
)

type batchOptions struct {
	file     string
	outDir   string
	format   string
	patterns bool
}

func newBatchCmd(c *cli) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Research every company listed in a YAML file",
		Long: `batch researches the companies of a YAML batch file one after another and
writes one export per company into the output directory.

  defaults:
    methods: [website_scraping, whois_lookup]
    country: Germany
  companies:
    - company: Acme GmbH
      website: acme.de
    - company: Globex
      website: globex.com
      search_depth: comprehensive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			file, err := config.LoadBatchFile(opts.file)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, _ := newResearcher(c.cfg, c.logger)
			var failed int
			for i, entry := range file.Companies {
				if ctx.Err() != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "stopped before %s\n", entry.CompanyName)
					failed += len(file.Companies) - i
					break
				}
				req := batchRequest(entry)
				req.IncludePatterns = opts.patterns

				result, err := run.Run(ctx, req)
				if err != nil {
					failed++
					c.logger.Warn("batch entry failed", zap.String("company", entry.CompanyName), zap.Error(err))
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", entry.CompanyName, err)
					continue
				}
				body, err := export.Render(result, format)
				if err != nil {
					return err
				}
				path := filepath.Join(opts.outDir, export.Filename(entry.CompanyName, time.Now(), format))
				if err := os.WriteFile(path, body, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				printSummary(cmd.ErrOrStderr(), result)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d companies failed", failed, len(file.Companies))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.file, "file", "", "YAML batch file (required)")
	flags.StringVar(&opts.outDir, "out-dir", ".", "Directory the exports are written to")
	flags.StringVarP(&opts.format, "format", "f", "csv", "Export format: csv, json, text")
	flags.BoolVar(&opts.patterns, "patterns", false, "Include common email pattern suggestions")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// batchRequest converts a batch entry; an entry without methods runs all of them.
func batchRequest(entry config.BatchEntry) entity.ResearchRequest {
	methods := entity.AllMethods
	if len(entry.Methods) > 0 {
		methods = make([]entity.MethodKind, len(entry.Methods))
		for i, m := range entry.Methods {
			methods[i] = entity.MethodKind(m)
		}
	}
	return entity.ResearchRequest{
		CompanyName: entry.CompanyName,
		Website:     entry.Website,
		Methods:     methods,
		MaxPages:    entry.MaxPages,
		SearchDepth: entity.SearchDepth(entry.SearchDepth),
		Country:     entry.Country,
		Industry:    entry.Industry,
	}
}
