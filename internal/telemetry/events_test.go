package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventConstants(t *testing.T) {
	assert.Equal(t, "app_started", EventAppStarted)
	assert.Equal(t, "app_exited", EventAppExited)
	assert.Equal(t, "command_executed", EventCommandExecuted)
	assert.Equal(t, "command_error_occurred", EventCommandError)
	assert.Equal(t, "sync_cycle_completed", EventSyncCycleCompleted)
	assert.Equal(t, "migration_applied", EventMigrationApplied)
	assert.Equal(t, "checkpoint_verified", EventCheckpointVerified)
}
