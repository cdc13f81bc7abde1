package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/export"
)

type researchOptions struct {
	company    string
	website    string
	methods    []string
	maxPages   int
	depth      string
	country    string
	industry   string
	aiProvider string
	aiModel    string
	patterns   bool
	format     string
	output     string
}

func newResearchCmd(c *cli) *cobra.Command {
	opts := &researchOptions{}
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research the contacts of one company",
		Example: `  contactfinder research --company "Acme GmbH" --website acme.de --country Germany
  contactfinder research --company Acme --website acme.com --methods website_scraping,whois --format json -o acme.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			// Ctrl-C stops the run; contacts found so far are still exported
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, _ := newResearcher(c.cfg, c.logger)
			result, err := run.Run(ctx, opts.request())
			if err != nil {
				return err
			}

			body, err := export.Render(result, format)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), opts.output, body); err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.company, "company", "", "Company name (required)")
	flags.StringVar(&opts.website, "website", "", "Company website, e.g. acme.de (required)")
	flags.StringSliceVar(&opts.methods, "methods", methodNames(entity.AllMethods), "Research methods to run")
	flags.IntVar(&opts.maxPages, "max-pages", entity.DefaultPages, "Maximum pages to scrape")
	flags.StringVar(&opts.depth, "depth", string(entity.DepthDeep), "Search depth: standard, deep, comprehensive")
	flags.StringVar(&opts.country, "country", "", "Country of the company")
	flags.StringVar(&opts.industry, "industry", "", "Industry of the company")
	flags.StringVar(&opts.aiProvider, "ai-provider", "", "AI provider: openrouter, openai, anthropic, gemini")
	flags.StringVar(&opts.aiModel, "ai-model", "", "AI model override")
	flags.BoolVar(&opts.patterns, "patterns", false, "Include common email pattern suggestions")
	flags.StringVarP(&opts.format, "format", "f", "text", "Export format: csv, json, text")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the export to this file instead of stdout")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("website")
	return cmd
}

func (o *researchOptions) request() entity.ResearchRequest {
	methods := make([]entity.MethodKind, 0, len(o.methods))
	for _, m := range o.methods {
		if m = strings.TrimSpace(m); m != "" {
			methods = append(methods, entity.MethodKind(m))
		}
	}
	return entity.ResearchRequest{
		CompanyName:     o.company,
		Website:         o.website,
		Methods:         methods,
		MaxPages:        o.maxPages,
		SearchDepth:     entity.SearchDepth(o.depth),
		Country:         o.country,
		Industry:        o.industry,
		AIProvider:      o.aiProvider,
		AIModel:         o.aiModel,
		IncludePatterns: o.patterns,
	}
}

func methodNames(methods []entity.MethodKind) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result *entity.ResearchResult) {
	took := result.Metadata.FinishedAt.Sub(result.Metadata.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(w, "%s: %d contacts in %s\n", result.Request.CompanyName, len(result.Contacts), took)
	for _, o := range result.Metadata.Methods {
		line := fmt.Sprintf("  %-18s %-10s", o.Method.Label(), o.Status)
		if o.Status == entity.StatusSucceeded {
			line += fmt.Sprintf(" %d found", o.ContactsFound)
		}
		if o.ErrorKind != "" {
			line += " (" + o.ErrorKind + ")"
		}
		fmt.Fprintln(w, line)
	}
	for _, n := range result.Metadata.Notices {
		fmt.Fprintln(w, "  note: "+n)
	}
	if len(result.EmailPatterns) > 0 {
		fmt.Fprintln(w, "  email patterns:")
		for group, emails := range result.EmailPatterns {
			fmt.Fprintf(w, "    %s: %s\n", group, strings.Join(emails, ", "))
		}
	}
}
