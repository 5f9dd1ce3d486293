package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sentica-backend/internal/app"
	"sentica-backend/internal/database"
	"sentica-backend/internal/models"
	"sentica-backend/internal/textfmt"
	"sentica-backend/internal/websocket"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "analyze <video-url>",
		Short: "Fetch, analyse and report on every comment of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.OutputDir = outDir
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			// With Redis configured, a running server relays our progress to its clients.
			redisClient, err := database.NewRedisClient(cmd.Context(), cfg.RedisURL)
			if err != nil {
				logger.Warn("redis unavailable, progress events dropped", slog.String("error", err.Error()))
			}
			if redisClient != nil {
				defer redisClient.Close()
			}

			components, err := app.New(cmd.Context(), cfg, logger, websocket.NewHub(redisClient, logger))
			if err != nil {
				return err
			}
			defer components.Close()

			resp, err := components.Runner.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(resp.Summary))
			fmt.Fprintf(cmd.OutOrStdout(), "%d files written to %s\n", len(resp.Outputs), components.Runner.OutputDir())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (overrides OUTPUT_DIR)")
	return cmd
}

func renderSummary(s models.RunSummary) string {
	share := func(n int) string {
		if s.TotalComments == 0 {
			return "0"
		}
		return fmt.Sprintf("%s (%.1f%%)", humanize.Comma(int64(n)), float64(n)/float64(s.TotalComments)*100)
	}
	return strings.TrimRight(textfmt.KeyValues([][2]string{
		{"Video", s.VideoID},
		{"Title", s.Title},
		{"Channel", s.Channel},
		{"Comments", humanize.Comma(int64(s.TotalComments))},
		{"Positive", share(s.Positive)},
		{"Negative", share(s.Negative)},
		{"Neutral", share(s.Neutral)},
		{"Avg polarity", fmt.Sprintf("%.3f", s.AvgPolarity)},
		{"Avg subjectivity", fmt.Sprintf("%.3f", s.AvgSubjectivity)},
		{"Total likes", humanize.Comma(int64(s.TotalLikes))},
	}), "\n")
}
