package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking_automation/domain/entities"
	"booking_automation/infrastructure/browser/memory"
	"booking_automation/infrastructure/clock"
)

func sampleReport(id string) entities.RunReport {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return entities.RunReport{
		RunID:      id,
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		BookingData: entities.BookingData{
			DepartureAirport:   "Manchester",
			DestinationAirport: "Greece - Crete",
			DepartureDate:      time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			Adults:             2,
			Children:           1,
			ChildAge:           7,
		},
		Stages: []entities.StageResult{
			{Stage: entities.StageDeparture, State: entities.StateConfirmed, Value: "Manchester", Via: entities.ViaPrimary},
			{Stage: entities.StageDestination, State: entities.StateSimulated, Value: "Turkey - Antalya", Error: "destination airport: element not found"},
		},
		StageReached: entities.StageDestination,
		Validation:   map[entities.ValidationCategory]bool{entities.ValidationEmail: true},
	}
}

func TestReportStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	store, err := NewReportStore(dir)
	require.NoError(t, err)

	path, err := store.SaveReport(sampleReport("b-run"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b-run.json"), path)
	_, err = store.SaveReport(sampleReport("a-run"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	ids, err := store.ListReports()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-run", "b-run"}, ids)

	loaded, err := store.LoadReport("b-run")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleReport("b-run"), loaded); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []entities.StageName{entities.StageDestination}, loaded.SimulatedStages())
}

func TestReportStore_Errors(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveReport(entities.RunReport{})
	assert.Error(t, err)

	_, err = store.LoadReport("missing")
	assert.Error(t, err)
}

func TestWriteFailureArtifacts(t *testing.T) {
	page := memory.NewPage(clock.NewFakeClock(time.Now()), &memory.Node{ID: "continue", Role: "button", Name: "Continue"})
	dir := t.TempDir()

	paths, err := WriteFailureArtifacts(context.Background(), page, dir, "run-9")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	source, err := os.ReadFile(filepath.Join(dir, "run-9-page.html"))
	require.NoError(t, err)
	assert.Contains(t, string(source), `id="continue"`)
	assert.FileExists(t, filepath.Join(dir, "run-9-failure.png"))
}

func TestBrowserState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.json")
	state, err := NewBrowserState(path)
	require.NoError(t, err)

	assert.Equal(t, path, state.Path())
	assert.False(t, state.Exists())
	require.NoError(t, state.Clear())

	require.NoError(t, os.WriteFile(path, []byte(`{"cookies":[]}`), 0644))
	assert.True(t, state.Exists())
	data, err := state.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"cookies":[]}`, string(data))

	require.NoError(t, state.Clear())
	assert.False(t, state.Exists())
}
