package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one scrape, persists the result and sends the notification.",
	Long: "Runs one scrape, persists the result and sends the notification.\n" +
		"Intended to be invoked by an external scheduler; exits non-zero on failure.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, cleanup, err := buildRunner(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		if cfg.Scraper.FetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Scraper.FetchTimeout)
			defer cancel()
		}

		result, runErr := runner.Run(ctx)

		resp := models.RunResponse{Success: runErr == nil}
		if result != nil {
			resp.RunID = result.RunID
			resp.Snapshot = result.Snapshot
			resp.Indicators = result.Indicators
			resp.DurationMs = result.Duration.Milliseconds()
		}
		if runErr != nil {
			resp.Error = models.ToDetail(runErr)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return runErr
	},
}
