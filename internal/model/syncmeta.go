package model

import "time"

// Service identifies the external service an entity is mirrored to.
type Service string

const (
	// ServiceGoogleTasks mirrors tasks to Google Tasks.
	ServiceGoogleTasks Service = "google_tasks"

	// ServiceGoogleCalendar mirrors time slots and objective deadlines to
	// Google Calendar.
	ServiceGoogleCalendar Service = "google_calendar"

	// ServiceGoogleContacts mirrors friends to Google Contacts.
	ServiceGoogleContacts Service = "google_contacts"
)

// IsValid returns true if the service is recognized.
func (s Service) IsValid() bool {
	switch s {
	case ServiceGoogleTasks, ServiceGoogleCalendar, ServiceGoogleContacts:
		return true
	default:
		return false
	}
}

// ServiceFor returns the external service an entity type is mirrored to.
func ServiceFor(t EntityType) Service {
	switch t {
	case EntityTask:
		return ServiceGoogleTasks
	case EntityTimeSlot, EntityObjective:
		return ServiceGoogleCalendar
	case EntityFriend:
		return ServiceGoogleContacts
	default:
		return ""
	}
}

// SyncStatus describes where an entity stands in the sync lifecycle.
type SyncStatus string

const (
	// StatusSynced means both sides agree as of lastSyncedAt.
	StatusSynced SyncStatus = "synced"

	// StatusPending means a local change is queued for export.
	StatusPending SyncStatus = "pending"

	// StatusSyncing means an export is in flight.
	StatusSyncing SyncStatus = "syncing"

	// StatusConflict means an open conflict references this entity.
	StatusConflict SyncStatus = "conflict"

	// StatusError means the last export attempt failed permanently.
	StatusError SyncStatus = "error"
)

// SyncDirection constrains which way changes flow for an entity.
type SyncDirection string

const (
	// DirectionExport pushes local changes out only.
	DirectionExport SyncDirection = "export"

	// DirectionImport pulls remote changes in only.
	DirectionImport SyncDirection = "import"

	// DirectionBidirectional syncs both ways.
	DirectionBidirectional SyncDirection = "bidirectional"
)

// SyncMetadata is the per-entity sync bookkeeping attached to every
// syncable entity.
//
// ExternalID is set if and only if at least one successful export has
// occurred. StatusConflict always coincides with an open conflict record
// whose id is ConflictID.
type SyncMetadata struct {
	// LastSyncedAt is the time of the last successful reconciliation.
	// Zero means the entity has never been synced.
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty" yaml:"lastSyncedAt,omitempty"`

	// Status is the current sync lifecycle state.
	Status SyncStatus `json:"syncStatus" yaml:"syncStatus"`

	// ExternalID is the identifier in the remote service. Empty until the
	// first successful export.
	ExternalID string `json:"externalId,omitempty" yaml:"externalId,omitempty"`

	// ExternalService is the remote integration this metadata belongs to.
	ExternalService Service `json:"externalService" yaml:"externalService"`

	// Direction constrains the allowed flow of changes.
	Direction SyncDirection `json:"syncDirection" yaml:"syncDirection"`

	// AppLastModified is the time of the most recent local edit.
	AppLastModified time.Time `json:"appLastModified,omitempty" yaml:"appLastModified,omitempty"`

	// ExternalLastModified is the time of the most recent remote edit.
	ExternalLastModified time.Time `json:"externalLastModified,omitempty" yaml:"externalLastModified,omitempty"`

	// ConflictID references the open conflict while Status is
	// StatusConflict, and is empty otherwise.
	ConflictID string `json:"conflictDetails,omitempty" yaml:"conflictDetails,omitempty"`
}

// NeverSynced reports whether the entity has never completed a
// reconciliation.
func (m *SyncMetadata) NeverSynced() bool {
	return m == nil || m.LastSyncedAt.IsZero()
}

// MarkSynced records a successful reconciliation at the given time and
// clears any open conflict reference.
func (m *SyncMetadata) MarkSynced(at time.Time) {
	m.LastSyncedAt = at
	m.Status = StatusSynced
	m.ConflictID = ""
}

// MarkConflict flags the entity as conflicted, referencing the open
// conflict record.
func (m *SyncMetadata) MarkConflict(conflictID string) {
	m.Status = StatusConflict
	m.ConflictID = conflictID
}
