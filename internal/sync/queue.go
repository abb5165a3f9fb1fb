package sync

import (
	"fmt"
	"time"

	"github.com/orbitapp/orbitsync/internal/model"
)

// Action is the kind of mutation a queue item carries.
type Action string

const (
	// ActionCreate exports a newly created entity.
	ActionCreate Action = "create"

	// ActionUpdate exports a modified entity.
	ActionUpdate Action = "update"

	// ActionDelete removes the remote counterpart.
	ActionDelete Action = "delete"
)

// IsValid returns true if the action is recognized.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Item is one pending outbound change. At most one item exists per
// (Type, EntityID) pair: a newer mutation replaces any still-pending item
// for the same entity.
type Item struct {
	// ID is the generated queue item identifier.
	ID string `json:"id"`

	// Type is the entity type of the change.
	Type model.EntityType `json:"type"`

	// Action is the mutation kind.
	Action Action `json:"action"`

	// EntityID is the local id of the changed entity.
	EntityID string `json:"entityId"`

	// Entity is the full snapshot to export; nil for deletes.
	Entity *model.Snapshot `json:"entity,omitempty"`

	// Timestamp is when the item was enqueued.
	Timestamp time.Time `json:"timestamp"`

	// Retries counts failed export attempts so far.
	Retries int `json:"retries"`

	// LastError is the message of the most recent failure, if any.
	LastError string `json:"lastError,omitempty"`
}

// newItemID builds a queue item id unique per enqueue call.
func newItemID(t model.EntityType, entityID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", t, entityID, at.UnixNano())
}

// dedupe removes any pending item for the same (type, entityId) pair,
// returning the filtered queue. Order of the remaining items is
// preserved.
func dedupe(queue []Item, t model.EntityType, entityID string) []Item {
	out := queue[:0]
	for _, item := range queue {
		if item.Type == t && item.EntityID == entityID {
			continue
		}
		out = append(out, item)
	}
	return out
}

// rebuildQueue computes the post-drain queue from the live queue, the ids
// of the items that were part of the drained snapshot, and the items that
// failed and stay for retry. Failed items keep their queue position with
// updated retry state; snapshot items that are absent from failed were
// processed or dropped and disappear; items enqueued during the pass
// survive untouched.
func rebuildQueue(live []Item, snapshotIDs map[string]bool, failed []Item) []Item {
	failedByID := make(map[string]Item, len(failed))
	for _, item := range failed {
		failedByID[item.ID] = item
	}

	out := make([]Item, 0, len(live))
	for _, item := range live {
		if f, ok := failedByID[item.ID]; ok {
			out = append(out, f)
			continue
		}
		if snapshotIDs[item.ID] {
			continue
		}
		out = append(out, item)
	}
	return out
}
