package syncengine

import (
	"github.com/guardpost/fieldsync/internal/models"
)

// ItemFailure describes one queue item that could not be uploaded
// during a drain cycle.
type ItemFailure struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Error      string            `json:"error"`
	// Terminal marks items that exhausted their retries or were
	// rejected by remote validation; they will not be retried.
	Terminal bool `json:"terminal"`
}

// Result aggregates the outcome of one drain cycle.
type Result struct {
	Succeeded int           `json:"succeeded"`
	Failures  []ItemFailure `json:"failures,omitempty"`
	// Deferred counts items skipped because their backoff window has
	// not elapsed or another drain already holds the entity guard.
	Deferred int `json:"deferred"`
}

// GetSuccessCount returns the number of items confirmed by the remote.
func (r *Result) GetSuccessCount() int {
	return r.Succeeded
}

// GetFailureCount returns the number of items that failed this cycle.
func (r *Result) GetFailureCount() int {
	return len(r.Failures)
}

// HasFailures reports whether any item failed this cycle.
func (r *Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// merge folds another result into r.
func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.Succeeded += other.Succeeded
	r.Failures = append(r.Failures, other.Failures...)
	r.Deferred += other.Deferred
}

func (r *Result) addFailure(entityType models.EntityType, entityID string, err error, terminal bool) {
	r.Failures = append(r.Failures, ItemFailure{
		EntityType: entityType,
		EntityID:   entityID,
		Error:      err.Error(),
		Terminal:   terminal,
	})
}
