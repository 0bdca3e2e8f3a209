package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kamaD-y/dcp-ops-monitor/extractor"
	"github.com/spf13/cobra"
)

var extractJSON bool

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the snapshot as JSON")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extracts the asset snapshot from a saved valuation page.",
	Long: "Extracts the asset snapshot from a saved valuation page.\n" +
		"Useful for checking error_extraction.html after the site layout changes.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}

		snap, err := extractor.Extract(string(raw))
		if err != nil {
			return err
		}

		if extractJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		renderSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}
