package telemetry

import (
	"runtime"

	"github.com/guardpost/fieldsync/pkg/version"
)

// Event names.
const (
	EventAppStarted         = "app_started"
	EventAppExited          = "app_exited"
	EventCommandExecuted    = "command_executed"
	EventCommandError       = "command_error_occurred"
	EventSyncCycleCompleted = "sync_cycle_completed"
	EventMigrationApplied   = "migration_applied"
	EventCheckpointVerified = "checkpoint_verified"
)

// Version is set at compile time via ldflags.
var Version string

// baseProperties returns common properties for all events.
func baseProperties() map[string]interface{} {
	return map[string]interface{}{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"version":    Version,
		"prerelease": version.IsPrerelease(),
		"dev_build":  version.IsDevBuild(),
	}
}

// TrackAppStarted tracks application startup.
func (c *posthogClient) TrackAppStarted(mode string) {
	props := baseProperties()
	props["mode"] = mode
	c.Track(EventAppStarted, props)
}

// TrackAppExited tracks application exit.
func (c *posthogClient) TrackAppExited(mode string, sessionDurationMs int64) {
	props := baseProperties()
	props["mode"] = mode
	props["session_duration_ms"] = sessionDurationMs
	c.Track(EventAppExited, props)
}

// TrackCommandExecuted tracks CLI command execution.
func (c *posthogClient) TrackCommandExecuted(commandName string, durationMs int64) {
	props := baseProperties()
	props["command_name"] = commandName
	props["execution_duration_ms"] = durationMs
	c.Track(EventCommandExecuted, props)
}

// TrackCommandError tracks CLI errors.
func (c *posthogClient) TrackCommandError(commandName, errorType string) {
	props := baseProperties()
	props["command_name"] = commandName
	props["error_type"] = errorType
	c.Track(EventCommandError, props)
}

// TrackSyncCycleCompleted tracks the outcome of one drain cycle.
func (c *posthogClient) TrackSyncCycleCompleted(succeeded, failed, deferred int, durationMs int64) {
	props := baseProperties()
	props["items_succeeded"] = succeeded
	props["items_failed"] = failed
	props["items_deferred"] = deferred
	props["cycle_duration_ms"] = durationMs
	c.Track(EventSyncCycleCompleted, props)
}

// TrackMigrationApplied tracks schema migrations.
func (c *posthogClient) TrackMigrationApplied(fromVersion, toVersion float64, applied int) {
	props := baseProperties()
	props["from_version"] = fromVersion
	props["to_version"] = toVersion
	props["migrations_applied"] = applied
	c.Track(EventMigrationApplied, props)
}

// TrackCheckpointVerified tracks a successful checkpoint verification.
func (c *posthogClient) TrackCheckpointVerified(withinRadius bool) {
	props := baseProperties()
	props["within_radius"] = withinRadius
	c.Track(EventCheckpointVerified, props)
}

// No-op tracking methods for disabled telemetry.

func (c *noopClient) TrackAppStarted(mode string)                               {}
func (c *noopClient) TrackAppExited(mode string, sessionDurationMs int64)       {}
func (c *noopClient) TrackCommandExecuted(commandName string, durationMs int64) {}
func (c *noopClient) TrackCommandError(commandName, errorType string)           {}
func (c *noopClient) TrackSyncCycleCompleted(succeeded, failed, deferred int, durationMs int64) {
}
func (c *noopClient) TrackMigrationApplied(fromVersion, toVersion float64, applied int) {}
func (c *noopClient) TrackCheckpointVerified(withinRadius bool)                         {}
