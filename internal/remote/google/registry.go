package google

import (
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// NewRegistry wires every entity type to its Google adapter. Time slots
// and objective deadlines share the calendar adapter.
func NewRegistry() remote.Registry {
	cal := NewCalendarAdapter()
	return remote.Registry{
		model.EntityTask:      NewTasksAdapter(),
		model.EntityTimeSlot:  cal,
		model.EntityObjective: cal,
		model.EntityFriend:    NewContactsAdapter(),
	}
}
