package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"booking_automation/domain/entities"
)

var (
	generateCount int
	generateJSON  bool
	generateSeed  int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print generated booking data without opening a browser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if generateCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		if cmd.Flags().Changed("seed") {
			a.cfg.Generator.Seed = generateSeed
		}

		clk := newClock()
		data := make([]entities.BookingData, 0, generateCount)
		for i := 0; i < generateCount; i++ {
			data = append(data, newGenerator(a.cfg, clk, i).Generate())
		}

		if generateJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}
		for _, d := range data {
			a.printer.PrintBookingData(d)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1, "Number of data sets")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output in JSON format")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Seed for generated booking data")
}
