package commands

import (
	"fmt"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/indicator"
	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/spf13/cobra"
)

var (
	indContributions int64
	indGains         int64
	indValuation     int64
	indDate          string
)

func init() {
	f := indicatorsCmd.Flags()
	f.Int64Var(&indContributions, "contributions", 0, "cumulative contributions in yen")
	f.Int64Var(&indGains, "gains", 0, "gains or losses in yen")
	f.Int64Var(&indValuation, "valuation", 0, "asset valuation in yen")
	f.StringVar(&indDate, "date", "", "evaluation date as YYYY-MM-DD (default: today)")
	_ = indicatorsCmd.MarkFlagRequired("contributions")
	rootCmd.AddCommand(indicatorsCmd)
}

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Calculates operational indicators for the given totals.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := time.Now().In(cfg.Timezone)
		if indDate != "" {
			d, err := time.ParseInLocation(time.DateOnly, indDate, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			today = d
		}

		total := models.AssetEntry{
			CumulativeContributions: indContributions,
			GainsOrLosses:           indGains,
			AssetValuation:          indValuation,
		}
		ind, err := indicator.Calculate(total, today)
		if err != nil {
			return err
		}
		renderIndicators(cmd.OutOrStdout(), ind)
		return nil
	},
}
