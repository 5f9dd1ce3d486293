package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sentica-backend/internal/app"
	"sentica-backend/internal/services"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <text>...",
		Short: "Score the sentiment of a piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			scorer, closeScorer, err := app.NewScorer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeScorer()

			deriver := services.NewFeatureDeriver(scorer, 1, logger)
			res := deriver.ScoreText(cmd.Context(), strings.Join(args, " "))
			if ctx.jsonOutput {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (polarity %.3f, subjectivity %.3f)\n", res.Sentiment, res.Polarity, res.Subjectivity)
			return nil
		},
	}
}
