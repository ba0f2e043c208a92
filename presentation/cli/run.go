package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"booking_automation/application/flow"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/config"
	"booking_automation/infrastructure/logging"
	"booking_automation/infrastructure/security"
	"booking_automation/infrastructure/storage"
)

var (
	runDriver     string
	runHeadless   bool
	runCount      int
	runParallel   int
	runReportDir  string
	runFresh      bool
	runReturnDate bool
	runSeed       int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the booking flow",
	Long: `Run the booking flow against the configured site. Each run opens its own browser
session, is bounded by the global timeout and writes a JSON report.

The memory driver runs the flow against a scripted offline site.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := applyRunFlags(cmd, a.cfg); err != nil {
			return err
		}
		if runCount < 1 {
			return fmt.Errorf("--runs must be at least 1")
		}
		if runParallel < 1 {
			return fmt.Errorf("--parallel must be at least 1")
		}

		if runFresh {
			state, err := storage.NewBrowserState(a.cfg.Browser.StorageState)
			if err != nil {
				return err
			}
			if err := state.Clear(); err != nil {
				return fmt.Errorf("failed to clear browser state: %w", err)
			}
		}

		store, err := storage.NewReportStore(a.cfg.Report.Dir)
		if err != nil {
			return err
		}

		reports := make([]entities.RunReport, runCount)
		var g errgroup.Group
		g.SetLimit(runParallel)
		for i := 0; i < runCount; i++ {
			i := i // per-iteration copy (pre-Go 1.22 loop semantics)
			g.Go(func() error {
				report, err := executeRun(cmd.Context(), a, store, i)
				reports[i] = report
				return err
			})
		}
		err = g.Wait()

		if runCount > 1 {
			a.printer.PrintSummary(reports)
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runDriver, "driver", "", "Browser driver: playwright, selenium, memory")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run the browser headless")
	runCmd.Flags().IntVar(&runCount, "runs", 1, "Number of runs")
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Runs executed at once, each with its own browser")
	runCmd.Flags().StringVar(&runReportDir, "report-dir", "", "Override report.dir")
	runCmd.Flags().BoolVar(&runFresh, "fresh", false, "Discard saved cookies and local storage first")
	runCmd.Flags().BoolVar(&runReturnDate, "return-date", false, "Also pick a return date")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for generated booking data")
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Browser.Driver = runDriver
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = runHeadless
	}
	if flags.Changed("report-dir") {
		cfg.Report.Dir = runReportDir
	}
	if flags.Changed("return-date") {
		cfg.Flow.ReturnDate = runReturnDate
	}
	if flags.Changed("seed") {
		cfg.Generator.Seed = runSeed
	}
	return cfg.Validate()
}

// executeRun drives one flow in its own session. The returned error is the run's halt cause.
func executeRun(ctx context.Context, a *app, store interfaces.ReportStore, index int) (entities.RunReport, error) {
	clk := newClock()
	log := a.logger.WithField("run", index+1)

	session, err := openSession(a.cfg, clk, log)
	if err != nil {
		return entities.RunReport{}, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("Failed to close browser session: %v", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.Global())
	defer cancel()

	fcfg := flowConfig(a.cfg)
	fcfg.Guard = security.NewPaymentGuard(log)
	f := flow.New(session.Page(), clk, newGenerator(a.cfg, clk, index), logging.NewEventLogger(log), log, fcfg)

	report, runErr := f.Run(runCtx)
	if runErr != nil && a.cfg.Report.Screenshots {
		writeArtifacts(ctx, session.Page(), a.cfg.Report.Dir, report.RunID, log)
	}

	location, err := store.SaveReport(report)
	if err != nil {
		log.Errorf("Failed to save report: %v", err)
	}
	a.printer.PrintReport(report, location)
	return report, runErr
}

func writeArtifacts(ctx context.Context, page interfaces.PageHandle, dir, runID string, log logrus.FieldLogger) {
	paths, err := storage.WriteFailureArtifacts(ctx, page, dir, runID)
	if err != nil {
		log.Warnf("Failed to capture failure artifacts: %v", err)
	}
	for _, p := range paths {
		log.Infof("Saved %s", p)
	}
}
