package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/clock"
	"booking_automation/infrastructure/storage"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	newClock = func() interfaces.Clock { return clock.NewFakeClock(testNow) }
	os.Exit(m.Run())
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CI", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("BOOKING_BROWSER_DRIVER", "")
	chdir(t, t.TempDir())

	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "booking")
	for _, name := range []string{"run", "generate", "config", "report"} {
		assert.Contains(t, out, name)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
}

func TestRun_MemoryDriver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	out, err := execute(t, "run", "--driver", "memory", "--report-dir", dir,
		"--log-level", "error", "--runs", "2", "--parallel", "2", "--seed", "7")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Reached passenger_details")
	assert.Contains(t, out, "2 runs, 0 halted")

	store, err := storage.NewReportStore(dir)
	require.NoError(t, err)
	ids, err := store.ListReports()
	require.NoError(t, err)
	require.Len(t, ids, 2)

	report, err := store.LoadReport(ids[0])
	require.NoError(t, err)
	assert.False(t, report.Halted)
	assert.Equal(t, entities.StagePassengerDetails, report.StageReached)
	assert.Empty(t, report.SimulatedStages())
	assert.Len(t, report.Validation, len(entities.ValidationCategories))
}

func TestRun_InvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--driver", "netscape")
	assert.Error(t, err)

	_, err = execute(t, "run", "--driver", "memory", "--runs", "0")
	assert.EqualError(t, err, "--runs must be at least 1")

	for _, parallel := range []string{"0", "-1"} {
		_, err = execute(t, "run", "--driver", "memory", "--parallel", parallel)
		assert.EqualError(t, err, "--parallel must be at least 1")
	}
}

func TestRun_LogsBookingDataOnce(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "booking.log")
	t.Setenv("BOOKING_LOGGER_FILE", logFile)
	t.Setenv("BOOKING_LOGGER_FORMAT", "json")

	_, err := execute(t, "run", "--driver", "memory", "--seed", "7",
		"--report-dir", filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var generated int
	for _, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "Generated booking data" {
			generated++
			assert.NotEmpty(t, entry["run_id"])
		}
	}
	assert.Equal(t, 1, generated)
}

func TestGenerate_JSON(t *testing.T) {
	out, err := execute(t, "generate", "-n", "3", "--json", "--seed", "11")
	require.NoError(t, err)

	var data []entities.BookingData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	require.Len(t, data, 3)
	for _, d := range data {
		assert.NoError(t, d.Validate(testNow, 30))
	}

	again, err := execute(t, "generate", "-n", "3", "--json", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestGenerate_Text(t *testing.T) {
	out, err := execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "▸ Booking data")
	assert.Contains(t, out, "Date: 2025-03-31")
}

func TestConfig(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://www.tui.co.uk/flight/", cfg["BaseURL"])
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewReportStore(dir)
	require.NoError(t, err)
	_, err = store.SaveReport(entities.RunReport{RunID: "run-42", StageReached: entities.StageSearch})
	require.NoError(t, err)

	out, err := execute(t, "report", "--report-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "run-42")

	out, err = execute(t, "report", "--report-dir", dir, "run-42")
	require.NoError(t, err)
	assert.Contains(t, out, "▸ Run run-42")
	assert.Contains(t, out, "✓ Reached search")

	_, err = execute(t, "report", "--report-dir", dir, "missing")
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working directory
// for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
