package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/handler"
)

func newMethodsCmd(c *cli) *cobra.Command {
	var aiProvider string
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "Show which research methods are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, availability := newResearcher(c.cfg, c.logger)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tAVAILABLE\tREASON")
			for _, m := range handler.Methods(availability(entity.ResearchRequest{AIProvider: aiProvider})) {
				available := "yes"
				if !m.Available {
					available = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Method, available, m.Reason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&aiProvider, "ai-provider", "", "Check the key of this AI provider")
	return cmd
}
