package model

import (
	"testing"
	"time"
)

func TestParseEntityType(t *testing.T) {
	for _, want := range AllEntityTypes() {
		got, err := ParseEntityType(string(want))
		if err != nil || got != want {
			t.Errorf("ParseEntityType(%q) = %v, %v", want, got, err)
		}
	}
	if _, err := ParseEntityType("note"); err == nil {
		t.Error("ParseEntityType(note) should fail")
	}
}

func TestSnapshotAccessors(t *testing.T) {
	tests := []struct {
		name     string
		snap     Snapshot
		wantID   string
		wantName string
		wantDate string
	}{
		{
			name:     "task",
			snap:     TaskSnapshot(&Task{ID: "t1", Title: "Task", ScheduledDate: "2026-04-01"}),
			wantID:   "t1",
			wantName: "Task",
			wantDate: "2026-04-01",
		},
		{
			name:     "time slot",
			snap:     TimeSlotSnapshot(&TimeSlot{ID: "s1", Title: "Focus", Date: "2026-04-02"}),
			wantID:   "s1",
			wantName: "Focus",
			wantDate: "2026-04-02",
		},
		{
			name:     "objective",
			snap:     ObjectiveSnapshot(&Objective{ID: "o1", Title: "Ship", EndDate: "2026-06-30"}),
			wantID:   "o1",
			wantName: "Ship",
			wantDate: "2026-06-30",
		},
		{
			name:     "friend",
			snap:     FriendSnapshot(&Friend{ID: "f1", Name: "Sam"}),
			wantID:   "f1",
			wantName: "Sam",
			wantDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.EntityID(); got != tt.wantID {
				t.Errorf("EntityID() = %q, want %q", got, tt.wantID)
			}
			if got := tt.snap.Title(); got != tt.wantName {
				t.Errorf("Title() = %q, want %q", got, tt.wantName)
			}
			if got := tt.snap.ScheduledDate(); got != tt.wantDate {
				t.Errorf("ScheduledDate() = %q, want %q", got, tt.wantDate)
			}
			if tt.snap.IsZero() {
				t.Error("IsZero() = true for a populated snapshot")
			}
		})
	}

	if !(Snapshot{}).IsZero() {
		t.Error("empty snapshot should be zero")
	}
}

func TestSnapshotFieldRoundTrip(t *testing.T) {
	snap := TaskSnapshot(&Task{Title: "Old", Completed: false})

	if !snap.SetField("title", "New") {
		t.Fatal("SetField(title) = false")
	}
	if !snap.SetField("completed", true) {
		t.Fatal("SetField(completed) = false")
	}
	if snap.SetField("completed", "yes") {
		t.Error("type mismatch should be rejected")
	}
	if snap.SetField("nonexistent", "x") {
		t.Error("unknown field should be rejected")
	}

	if v, ok := snap.Field("title"); !ok || v != "New" {
		t.Errorf("Field(title) = %v, %v", v, ok)
	}
	if v, ok := snap.Field("completed"); !ok || v != true {
		t.Errorf("Field(completed) = %v, %v", v, ok)
	}
	if _, ok := snap.Field("nonexistent"); ok {
		t.Error("unknown field should not resolve")
	}
}

func TestSnapshotSetFieldLabels(t *testing.T) {
	snap := TaskSnapshot(&Task{})

	if !snap.SetField("labels", []any{"a", "b"}) {
		t.Fatal("SetField(labels, []any) = false")
	}
	if got := snap.Task.Labels; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Labels = %v", got)
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	meta := &SyncMetadata{
		LastSyncedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       StatusSynced,
		ExternalID:   "gt-1",
	}
	snap := TaskSnapshot(&Task{
		ID:     "t1",
		Title:  "Original",
		Labels: []string{"one"},
		Sync:   meta,
	})

	clone := snap.Clone()
	clone.Task.Title = "Changed"
	clone.Task.Labels[0] = "mutated"
	clone.Task.Sync.ExternalID = "other"

	if snap.Task.Title != "Original" {
		t.Error("clone shares the entity struct")
	}
	if snap.Task.Labels[0] != "one" {
		t.Error("clone shares the labels slice")
	}
	if snap.Task.Sync.ExternalID != "gt-1" {
		t.Error("clone shares the sync metadata")
	}
}

func TestServiceFor(t *testing.T) {
	tests := []struct {
		t    EntityType
		want Service
	}{
		{EntityTask, ServiceGoogleTasks},
		{EntityTimeSlot, ServiceGoogleCalendar},
		{EntityObjective, ServiceGoogleCalendar},
		{EntityFriend, ServiceGoogleContacts},
	}
	for _, tt := range tests {
		if got := ServiceFor(tt.t); got != tt.want {
			t.Errorf("ServiceFor(%s) = %s, want %s", tt.t, got, tt.want)
		}
	}
}

func TestSyncMetadataLifecycle(t *testing.T) {
	var meta *SyncMetadata
	if !meta.NeverSynced() {
		t.Error("nil metadata should read as never synced")
	}

	meta = &SyncMetadata{}
	if !meta.NeverSynced() {
		t.Error("zero LastSyncedAt should read as never synced")
	}

	meta.MarkConflict("c-9")
	if meta.Status != StatusConflict || meta.ConflictID != "c-9" {
		t.Errorf("after MarkConflict: %+v", meta)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta.MarkSynced(at)
	if meta.Status != StatusSynced || meta.ConflictID != "" {
		t.Errorf("after MarkSynced: %+v", meta)
	}
	if !meta.LastSyncedAt.Equal(at) {
		t.Errorf("LastSyncedAt = %v, want %v", meta.LastSyncedAt, at)
	}
	if meta.NeverSynced() {
		t.Error("synced metadata should not read as never synced")
	}
}
