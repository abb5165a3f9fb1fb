// Package model defines the syncable planner entities and their
// synchronization metadata.
package model

import "fmt"

// EntityType identifies the kind of syncable entity.
type EntityType string

const (
	// EntityTask is a to-do item.
	EntityTask EntityType = "task"

	// EntityTimeSlot is a scheduled block of time.
	EntityTimeSlot EntityType = "timeSlot"

	// EntityObjective is a goal with an optional deadline.
	EntityObjective EntityType = "objective"

	// EntityFriend is a contact.
	EntityFriend EntityType = "friend"
)

// IsValid returns true if the entity type is recognized.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTask, EntityTimeSlot, EntityObjective, EntityFriend:
		return true
	default:
		return false
	}
}

// AllEntityTypes returns every syncable entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{EntityTask, EntityTimeSlot, EntityObjective, EntityFriend}
}

// ParseEntityType converts a string into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown entity type: %q", s)
	}
	return t, nil
}

// Task is a to-do item.
type Task struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Tag           string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Completed     bool   `json:"completed" yaml:"completed"`
	Priority      bool   `json:"priority,omitempty" yaml:"priority,omitempty"`
	ScheduledDate string `json:"scheduledDate,omitempty" yaml:"scheduledDate,omitempty"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduledTime,omitempty" yaml:"scheduledTime,omitempty"` // HH:MM
	AllDay        bool   `json:"allDay,omitempty" yaml:"allDay,omitempty"`
	Duration      int    `json:"duration,omitempty" yaml:"duration,omitempty"` // minutes
	Labels        []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	Sync *SyncMetadata `json:"syncMetadata,omitempty" yaml:"syncMetadata,omitempty"`
}

// Recurrence describes a repeating time slot.
type Recurrence struct {
	Frequency string `json:"frequency" yaml:"frequency"` // daily, weekly, monthly
	EndDate   string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
}

// TimeSlot is a scheduled block of time on a specific date.
type TimeSlot struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Date        string      `json:"date" yaml:"date"` // YYYY-MM-DD
	StartTime   string      `json:"startTime" yaml:"startTime"`
	EndTime     string      `json:"endTime" yaml:"endTime"`
	Type        string      `json:"type,omitempty" yaml:"type,omitempty"` // deep-work, goal-work, meeting, ...
	ObjectiveID string      `json:"objectiveId,omitempty" yaml:"objectiveId,omitempty"`
	LifeAreaID  string      `json:"lifeAreaId,omitempty" yaml:"lifeAreaId,omitempty"`
	Recurring   *Recurrence `json:"recurring,omitempty" yaml:"recurring,omitempty"`

	Sync *SyncMetadata `json:"syncMetadata,omitempty" yaml:"syncMetadata,omitempty"`
}

// Objective is a goal, optionally with a deadline mirrored to the calendar.
type Objective struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Owner       string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"` // On Track, At Risk, Off Track
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	EndDate     string `json:"endDate,omitempty" yaml:"endDate,omitempty"` // deadline, YYYY-MM-DD
	Progress    int    `json:"progress,omitempty" yaml:"progress,omitempty"`

	Sync *SyncMetadata `json:"syncMetadata,omitempty" yaml:"syncMetadata,omitempty"`
}

// Friend is a contact.
type Friend struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
	RoleType string `json:"roleType,omitempty" yaml:"roleType,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Image    string `json:"image,omitempty" yaml:"image,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	Sync *SyncMetadata `json:"syncMetadata,omitempty" yaml:"syncMetadata,omitempty"`
}

// Snapshot is a tagged union over the syncable entity variants. Exactly one
// of the pointers matching Type is non-nil.
type Snapshot struct {
	Type      EntityType `json:"type"`
	Task      *Task      `json:"task,omitempty"`
	TimeSlot  *TimeSlot  `json:"timeSlot,omitempty"`
	Objective *Objective `json:"objective,omitempty"`
	Friend    *Friend    `json:"friend,omitempty"`
}

// TaskSnapshot wraps a task in a Snapshot.
func TaskSnapshot(t *Task) Snapshot { return Snapshot{Type: EntityTask, Task: t} }

// TimeSlotSnapshot wraps a time slot in a Snapshot.
func TimeSlotSnapshot(s *TimeSlot) Snapshot { return Snapshot{Type: EntityTimeSlot, TimeSlot: s} }

// ObjectiveSnapshot wraps an objective in a Snapshot.
func ObjectiveSnapshot(o *Objective) Snapshot { return Snapshot{Type: EntityObjective, Objective: o} }

// FriendSnapshot wraps a friend in a Snapshot.
func FriendSnapshot(f *Friend) Snapshot { return Snapshot{Type: EntityFriend, Friend: f} }

// IsZero reports whether the snapshot holds no entity.
func (s Snapshot) IsZero() bool {
	return s.Task == nil && s.TimeSlot == nil && s.Objective == nil && s.Friend == nil
}

// EntityID returns the id of the wrapped entity, or "" for an empty snapshot.
func (s Snapshot) EntityID() string {
	switch s.Type {
	case EntityTask:
		if s.Task != nil {
			return s.Task.ID
		}
	case EntityTimeSlot:
		if s.TimeSlot != nil {
			return s.TimeSlot.ID
		}
	case EntityObjective:
		if s.Objective != nil {
			return s.Objective.ID
		}
	case EntityFriend:
		if s.Friend != nil {
			return s.Friend.ID
		}
	}
	return ""
}

// Title returns the display title of the wrapped entity.
func (s Snapshot) Title() string {
	switch s.Type {
	case EntityTask:
		if s.Task != nil {
			return s.Task.Title
		}
	case EntityTimeSlot:
		if s.TimeSlot != nil {
			return s.TimeSlot.Title
		}
	case EntityObjective:
		if s.Objective != nil {
			return s.Objective.Title
		}
	case EntityFriend:
		if s.Friend != nil {
			return s.Friend.Name
		}
	}
	return ""
}

// ScheduledDate returns the scheduling date of the wrapped entity, or ""
// when the entity has no scheduling concept.
func (s Snapshot) ScheduledDate() string {
	switch s.Type {
	case EntityTask:
		if s.Task != nil {
			return s.Task.ScheduledDate
		}
	case EntityTimeSlot:
		if s.TimeSlot != nil {
			return s.TimeSlot.Date
		}
	case EntityObjective:
		if s.Objective != nil {
			return s.Objective.EndDate
		}
	}
	return ""
}

// Metadata returns the sync metadata attached to the wrapped entity.
func (s Snapshot) Metadata() *SyncMetadata {
	switch s.Type {
	case EntityTask:
		if s.Task != nil {
			return s.Task.Sync
		}
	case EntityTimeSlot:
		if s.TimeSlot != nil {
			return s.TimeSlot.Sync
		}
	case EntityObjective:
		if s.Objective != nil {
			return s.Objective.Sync
		}
	case EntityFriend:
		if s.Friend != nil {
			return s.Friend.Sync
		}
	}
	return nil
}

// SetMetadata attaches sync metadata to the wrapped entity.
func (s Snapshot) SetMetadata(meta *SyncMetadata) {
	switch s.Type {
	case EntityTask:
		if s.Task != nil {
			s.Task.Sync = meta
		}
	case EntityTimeSlot:
		if s.TimeSlot != nil {
			s.TimeSlot.Sync = meta
		}
	case EntityObjective:
		if s.Objective != nil {
			s.Objective.Sync = meta
		}
	case EntityFriend:
		if s.Friend != nil {
			s.Friend.Sync = meta
		}
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Type: s.Type}
	switch {
	case s.Task != nil:
		t := *s.Task
		if s.Task.Labels != nil {
			t.Labels = append([]string(nil), s.Task.Labels...)
		}
		if s.Task.Sync != nil {
			m := *s.Task.Sync
			t.Sync = &m
		}
		out.Task = &t
	case s.TimeSlot != nil:
		ts := *s.TimeSlot
		if s.TimeSlot.Recurring != nil {
			r := *s.TimeSlot.Recurring
			ts.Recurring = &r
		}
		if s.TimeSlot.Sync != nil {
			m := *s.TimeSlot.Sync
			ts.Sync = &m
		}
		out.TimeSlot = &ts
	case s.Objective != nil:
		o := *s.Objective
		if s.Objective.Sync != nil {
			m := *s.Objective.Sync
			o.Sync = &m
		}
		out.Objective = &o
	case s.Friend != nil:
		f := *s.Friend
		if s.Friend.Sync != nil {
			m := *s.Friend.Sync
			f.Sync = &m
		}
		out.Friend = &f
	}
	return out
}

// Field reads a named app-side field from the wrapped entity. The field
// names are the ones used by the conflict field mappings; the bool result
// reports whether the field exists for this entity type.
func (s Snapshot) Field(name string) (any, bool) {
	switch s.Type {
	case EntityTask:
		if s.Task == nil {
			return nil, false
		}
		switch name {
		case "title":
			return s.Task.Title, true
		case "description":
			return s.Task.Description, true
		case "tag":
			return s.Task.Tag, true
		case "completed":
			return s.Task.Completed, true
		case "priority":
			return s.Task.Priority, true
		case "scheduledDate":
			return s.Task.ScheduledDate, true
		case "scheduledTime":
			return s.Task.ScheduledTime, true
		case "labels":
			return s.Task.Labels, true
		}
	case EntityTimeSlot:
		if s.TimeSlot == nil {
			return nil, false
		}
		switch name {
		case "title":
			return s.TimeSlot.Title, true
		case "date":
			return s.TimeSlot.Date, true
		case "startTime":
			return s.TimeSlot.StartTime, true
		case "endTime":
			return s.TimeSlot.EndTime, true
		}
	case EntityObjective:
		if s.Objective == nil {
			return nil, false
		}
		switch name {
		case "title":
			return s.Objective.Title, true
		case "description":
			return s.Objective.Description, true
		case "status":
			return s.Objective.Status, true
		case "endDate":
			return s.Objective.EndDate, true
		}
	case EntityFriend:
		if s.Friend == nil {
			return nil, false
		}
		switch name {
		case "name", "title":
			return s.Friend.Name, true
		case "role":
			return s.Friend.Role, true
		case "email":
			return s.Friend.Email, true
		case "phone":
			return s.Friend.Phone, true
		}
	}
	return nil, false
}

// SetField writes a named app-side field on the wrapped entity. Unknown
// fields and type mismatches are ignored and reported as false.
func (s Snapshot) SetField(name string, value any) bool {
	switch s.Type {
	case EntityTask:
		if s.Task == nil {
			return false
		}
		switch name {
		case "title":
			return setString(&s.Task.Title, value)
		case "description":
			return setString(&s.Task.Description, value)
		case "tag":
			return setString(&s.Task.Tag, value)
		case "completed":
			return setBool(&s.Task.Completed, value)
		case "priority":
			return setBool(&s.Task.Priority, value)
		case "scheduledDate":
			return setString(&s.Task.ScheduledDate, value)
		case "scheduledTime":
			return setString(&s.Task.ScheduledTime, value)
		case "labels":
			return setStrings(&s.Task.Labels, value)
		}
	case EntityTimeSlot:
		if s.TimeSlot == nil {
			return false
		}
		switch name {
		case "title":
			return setString(&s.TimeSlot.Title, value)
		case "date":
			return setString(&s.TimeSlot.Date, value)
		case "startTime":
			return setString(&s.TimeSlot.StartTime, value)
		case "endTime":
			return setString(&s.TimeSlot.EndTime, value)
		}
	case EntityObjective:
		if s.Objective == nil {
			return false
		}
		switch name {
		case "title":
			return setString(&s.Objective.Title, value)
		case "description":
			return setString(&s.Objective.Description, value)
		case "status":
			return setString(&s.Objective.Status, value)
		case "endDate":
			return setString(&s.Objective.EndDate, value)
		}
	case EntityFriend:
		if s.Friend == nil {
			return false
		}
		switch name {
		case "name", "title":
			return setString(&s.Friend.Name, value)
		case "role":
			return setString(&s.Friend.Role, value)
		case "email":
			return setString(&s.Friend.Email, value)
		case "phone":
			return setString(&s.Friend.Phone, value)
		}
	}
	return false
}

func setString(dst *string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	*dst = s
	return true
}

func setBool(dst *bool, value any) bool {
	b, ok := value.(bool)
	if !ok {
		return false
	}
	*dst = b
	return true
}

func setStrings(dst *[]string, value any) bool {
	switch v := value.(type) {
	case []string:
		*dst = v
		return true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return false
			}
			out = append(out, s)
		}
		*dst = out
		return true
	}
	return false
}
