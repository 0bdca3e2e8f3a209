package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kamaD-y/dcp-ops-monitor/records"
	"github.com/kamaD-y/dcp-ops-monitor/storage"
	"github.com/spf13/cobra"
)

var (
	showDate string
	showDays int
)

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "day to show as YYYY-MM-DD (default: today)")
	showCmd.Flags().IntVar(&showDays, "days", 0, "history length in days (default: DCPMON_HISTORY_DAYS)")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Shows a stored snapshot and the recent valuation history.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		day := time.Now().In(cfg.Timezone)
		if showDate != "" {
			d, err := time.ParseInLocation(time.DateOnly, showDate, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			day = d
		}
		days := showDays
		if days <= 0 {
			days = cfg.Records.HistoryDays
		}

		if !cfg.Storage.Enabled() && cfg.Records.Path == "" {
			return errors.New("neither object storage nor a records database is configured")
		}

		if cfg.Storage.Enabled() {
			bucket, err := storage.Open(cfg.Storage)
			if err != nil {
				return err
			}
			snap, err := bucket.LoadSnapshot(ctx, day)
			switch {
			case storage.IsNotFound(err):
				fmt.Fprintf(out, "no snapshot stored for %s\n", day.Format(time.DateOnly))
			case err != nil:
				return err
			default:
				renderSnapshot(out, snap)
			}
		}

		if cfg.Records.Path != "" {
			store, err := records.Open(ctx, cfg.Records.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			history, err := store.DailyValuations(ctx, day, days)
			if err != nil {
				return err
			}
			t := newTable(out, table.Row{"日付", "資産評価額", "前日比"})
			for _, v := range history {
				diff := "-"
				if v.Diff != nil {
					diff = signedYen(*v.Diff)
				}
				t.AppendRow(table.Row{v.Date.Format(time.DateOnly), yen(v.Valuation), diff})
			}
			t.Render()
		}
		return nil
	},
}
