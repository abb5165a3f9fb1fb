package sync

import (
	"time"

	"github.com/orbitapp/orbitsync/internal/model"
)

// ItemStatus is the externally visible view of a queued item. It carries
// identifiers and retry state only; the entity payload is deliberately
// withheld.
type ItemStatus struct {
	ID        string           `json:"id"`
	Type      model.EntityType `json:"type"`
	Action    Action           `json:"action"`
	EntityID  string           `json:"entityId"`
	Timestamp time.Time        `json:"timestamp"`
	Retries   int              `json:"retries"`
	LastError string           `json:"lastError,omitempty"`
}

// QueueStatus describes the current state of the outbound queue.
type QueueStatus struct {
	Length   int          `json:"length"`
	Draining bool         `json:"draining"`
	Items    []ItemStatus `json:"items"`
}

// DrainResult summarizes one pass over the outbound queue.
type DrainResult struct {
	// Processed counts items exported successfully.
	Processed int `json:"processed"`

	// Failed counts items that failed and remain queued for retry.
	Failed int `json:"failed"`

	// Dropped counts items discarded after exhausting their retries.
	Dropped int `json:"dropped"`
}

// ImportResult summarizes one inbound import cycle.
type ImportResult struct {
	// Imported counts remote items created locally.
	Imported int `json:"imported"`

	// Updated counts local entities reconciled with remote state.
	Updated int `json:"updated"`

	// Conflicts counts divergences registered for resolution.
	Conflicts int `json:"conflicts"`
}
