package sync

import (
	"fmt"
	"time"

	"github.com/orbitapp/orbitsync/internal/model"
)

// Priority classifies how urgently a conflict needs attention, derived
// from which fields differ.
type Priority string

const (
	// PriorityLow means only cosmetic fields differ.
	PriorityLow Priority = "low"

	// PriorityMedium means important but non-critical fields differ.
	PriorityMedium Priority = "medium"

	// PriorityHigh means a critical field (title, completion, schedule,
	// status) differs.
	PriorityHigh Priority = "high"
)

// FieldType describes the declared type of a conflicting field value.
type FieldType string

const (
	// FieldString is a free-text value.
	FieldString FieldType = "string"

	// FieldNumber is a numeric value.
	FieldNumber FieldType = "number"

	// FieldBoolean is a true/false value.
	FieldBoolean FieldType = "boolean"

	// FieldDate is a timestamp or date-only string.
	FieldDate FieldType = "date"

	// FieldArray is a list value.
	FieldArray FieldType = "array"

	// FieldObject is a composite value.
	FieldObject FieldType = "object"
)

// FieldDifference records one field that holds different values on the
// two sides of a conflict.
type FieldDifference struct {
	// Field is the app-side field name.
	Field string `json:"field"`

	// AppValue is the local value at detection time.
	AppValue any `json:"appValue"`

	// ExternalValue is the remote value at detection time.
	ExternalValue any `json:"externalValue"`

	// FieldType is the declared type of the app value.
	FieldType FieldType `json:"fieldType"`

	// CanMerge reports whether the merge strategy may combine the two
	// values instead of picking one.
	CanMerge bool `json:"canMerge"`
}

// Conflict is a detected, unresolved divergence between the local and
// remote snapshots of one entity. Conflicts are immutable after creation
// except for attaching a resolution.
type Conflict struct {
	// ID is the generated conflict identifier.
	ID string `json:"id"`

	// EntityType is the kind of entity in conflict.
	EntityType model.EntityType `json:"entityType"`

	// EntityID is the local id of the entity.
	EntityID string `json:"entityId"`

	// Service is the external service the entity is mirrored to.
	Service model.Service `json:"service"`

	// AppValue is the full local snapshot at detection time.
	AppValue model.Snapshot `json:"appValue"`

	// ExternalValue is the remote state mapped into local shape at
	// detection time.
	ExternalValue model.Snapshot `json:"externalValue"`

	// ConflictFields lists the fields that actually differ, in mapping
	// order.
	ConflictFields []FieldDifference `json:"conflictFields"`

	// AppLastModified is the local modification time that triggered
	// detection.
	AppLastModified time.Time `json:"appLastModified"`

	// ExternalLastModified is the remote modification time that
	// triggered detection.
	ExternalLastModified time.Time `json:"externalLastModified"`

	// DetectedAt is when the conflict was created.
	DetectedAt time.Time `json:"detectedAt"`

	// Priority classifies the conflict by the fields it touches.
	Priority Priority `json:"priority"`

	// ResolvedAt is set once a resolution has been applied.
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	// Resolution is the applied resolution, if any.
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Open reports whether the conflict still awaits resolution.
func (c *Conflict) Open() bool {
	return c.ResolvedAt == nil
}

// Summary returns a one-line description of the conflict.
func (c *Conflict) Summary() string {
	return fmt.Sprintf("%s %s: %d field(s) differ (%s)",
		c.EntityType, c.EntityID, len(c.ConflictFields), c.Priority)
}

// Fields returns the names of the differing fields, in order.
func (c *Conflict) Fields() []string {
	names := make([]string, len(c.ConflictFields))
	for i, d := range c.ConflictFields {
		names[i] = d.Field
	}
	return names
}

// Resolution is the computed outcome of resolving a conflict.
type Resolution struct {
	// Strategy is the strategy that produced the final value.
	Strategy Strategy `json:"strategy"`

	// ResolvedBy records who resolved the conflict ("system" or a user
	// identifier).
	ResolvedBy string `json:"resolvedBy"`

	// ResolvedAt is when the resolution was computed.
	ResolvedAt time.Time `json:"resolvedAt"`

	// FinalValue is the reconciled snapshot to write back.
	FinalValue model.Snapshot `json:"finalValue"`

	// MergedFields records, for merge resolutions, which fields were
	// combined and the value each received.
	MergedFields map[string]any `json:"mergedFields,omitempty"`
}
