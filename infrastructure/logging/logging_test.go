package logging

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking_automation/domain/entities"
	"booking_automation/infrastructure/config"
)

func TestNew(t *testing.T) {
	logger, closer, err := New(config.LoggerConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer, err := New(config.LoggerConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestEventLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := NewEventLogger(logger)

	sink.Emit(entities.StageEvent{RunID: "r1", Stage: entities.StageDeparture, From: entities.StateIdle, To: entities.StateOverlaysClearing})
	sink.Emit(entities.StageEvent{RunID: "r1", Stage: entities.StageDeparture, From: entities.StateResolving, To: entities.StateSimulated, Value: "Bristol", Detail: "departure airport: element not found"})

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.DebugLevel, hook.Entries[0].Level)

	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, "Stage simulated", last.Message)
	assert.Equal(t, "Bristol", last.Data["value"])
	assert.Equal(t, entities.StageDeparture, last.Data["stage"])
	assert.Equal(t, "r1", last.Data["run_id"])
}
