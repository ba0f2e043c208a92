package cli

import (
	"github.com/spf13/cobra"

	"booking_automation/infrastructure/storage"
)

var reportDir string

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "List stored run reports or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("report-dir") {
			a.cfg.Report.Dir = reportDir
		}
		store, err := storage.NewReportStore(a.cfg.Report.Dir)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			ids, err := store.ListReports()
			if err != nil {
				return err
			}
			a.printer.PrintRunIDs(ids)
			return nil
		}

		report, err := store.LoadReport(args[0])
		if err != nil {
			return err
		}
		a.printer.PrintReport(report, "")
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDir, "report-dir", "", "Override report.dir")
}
