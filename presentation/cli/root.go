// Package cli is the command-line surface: it resolves configuration, builds the logger
// and browser session, and drives booking runs.
package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"booking_automation/infrastructure/config"
	"booking_automation/infrastructure/logging"
	"booking_automation/presentation/terminal"
)

var (
	// Global flags
	configFile string
	logLevel   string

	errorColor = color.New(color.FgRed, color.Bold)
)

// rootCmd is the root command for booking.
var rootCmd = &cobra.Command{
	Use:     "booking",
	Version: "dev",
	Short:   "Drive a holiday booking search end to end in a real browser",
	Long: `booking walks a travel site's search form with generated data: it clears
consent banners and promotional popups, fills airports, dates and guests, searches,
and continues through results and flights to the passenger details page.

Stages that cannot find their field fall back to simulated values; required stages
halt the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./booking.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logger.level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(reportCmd)
}

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		errorColor.Fprintf(os.Stderr, "✗ %v\n", err)
	}
	return err
}

// app is what every command shares once configuration is resolved
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	closer  io.Closer
	printer *terminal.Printer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, closer, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		closer:  closer,
		printer: terminal.NewPrinter(cmd.OutOrStdout()),
	}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}
