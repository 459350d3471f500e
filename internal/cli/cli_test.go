package cli

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTelemetry captures tracked events for assertions.
type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingTelemetry) Track(event string, properties map[string]interface{}) {
	r.record(event)
}
func (r *recordingTelemetry) Close()                {}
func (r *recordingTelemetry) GetTrackingID() string { return "test" }

func (r *recordingTelemetry) TrackAppStarted(mode string) { r.record("app_started") }
func (r *recordingTelemetry) TrackAppExited(mode string, sessionDurationMs int64) {
	r.record("app_exited")
}
func (r *recordingTelemetry) TrackCommandExecuted(commandName string, durationMs int64) {
	r.record("command_executed:" + commandName)
}
func (r *recordingTelemetry) TrackCommandError(commandName, errorType string) {
	r.record("command_error:" + commandName)
}
func (r *recordingTelemetry) TrackSyncCycleCompleted(succeeded, failed, deferred int, durationMs int64) {
	r.record("sync_cycle_completed")
}
func (r *recordingTelemetry) TrackMigrationApplied(fromVersion, toVersion float64, applied int) {
	r.record("migration_applied")
}
func (r *recordingTelemetry) TrackCheckpointVerified(withinRadius bool) {
	r.record("checkpoint_verified")
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "fieldsync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"clock", "location", "migrate", "report", "serve", "status", "sync", "verify", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestExecute_TracksSessionLifecycle(t *testing.T) {
	spy := &recordingTelemetry{}
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, Execute(context.Background(), spy))

	events := spy.tracked()
	assert.Contains(t, events, "app_started")
	assert.Contains(t, events, "app_exited")
	assert.Contains(t, events, "command_executed:version")

	// The session opens before any command runs and closes after.
	require.NotEmpty(t, events)
	assert.Equal(t, "app_started", events[0])
	assert.Equal(t, "app_exited", events[len(events)-1])
}
