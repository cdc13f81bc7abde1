package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/app"
	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/handler"
)

// researcher runs research requests; *service.ResearchService satisfies it.
type researcher interface {
	Run(ctx context.Context, req entity.ResearchRequest) (*entity.ResearchResult, error)
}

// newResearcher is replaced in tests.
var newResearcher = func(cfg *config.Config, logger *zap.Logger) (researcher, handler.AvailabilityFunc) {
	research := app.NewResearch(cfg, logger)
	return research.Service, research.Registry.Availability
}

// cli carries state shared by every command once the root pre-run finished.
type cli struct {
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "contactfinder",
		Short: "Find publicly listed company contacts",
		Long: `contactfinder researches the contact details a company publishes about itself.

It scrapes the company website (Impressum, contact and team pages), reads the
WHOIS record of the domain, optionally queries web search APIs and asks an AI
research assistant, then merges, categorizes and scores what it found.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.LogLevel
			if c.logLevel != "" {
				level = c.logLevel
			}
			logger, err := app.NewLogger(level)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log", "", "Log level overriding LOG_LEVEL: debug, info, warn, error")

	root.AddCommand(
		newResearchCmd(c),
		newBatchCmd(c),
		newMethodsCmd(c),
		newHashPasswordCmd(),
	)
	return root
}
