package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/sync"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "orbitsync.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEntityRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := model.TaskSnapshot(&model.Task{
		ID:            "task-1",
		Title:         "Buy groceries",
		ScheduledDate: "2026-03-05",
		Labels:        []string{"errand"},
		Sync: &model.SyncMetadata{
			LastSyncedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Status:          model.StatusSynced,
			ExternalID:      "gt-1",
			ExternalService: model.ServiceGoogleTasks,
		},
	})
	if err := s.Add(ctx, task); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, ok, err := s.Get(ctx, model.EntityTask, "task-1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.Task.Title != "Buy groceries" || got.Task.Labels[0] != "errand" {
		t.Errorf("loaded task = %+v", got.Task)
	}
	meta := got.Metadata()
	if meta == nil || meta.ExternalID != "gt-1" || meta.Status != model.StatusSynced {
		t.Errorf("loaded metadata = %+v", meta)
	}

	// Update overwrites in place.
	got.Task.Title = "Buy groceries and fruit"
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _, _ := s.Get(ctx, model.EntityTask, "task-1")
	if again.Task.Title != "Buy groceries and fruit" {
		t.Errorf("title after update = %q", again.Task.Title)
	}

	list, err := s.List(ctx, model.EntityTask)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %d entities, %v", len(list), err)
	}

	if err := s.Delete(ctx, model.EntityTask, "task-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, model.EntityTask, "task-1"); ok {
		t.Error("entity still present after delete")
	}
}

func TestGetMissingEntity(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get(context.Background(), model.EntityTask, "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() reported a missing entity as present")
	}
}

func TestEntityTypesDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, model.TaskSnapshot(&model.Task{ID: "x", Title: "A task"})); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, model.TimeSlotSnapshot(&model.TimeSlot{ID: "x", Title: "A slot", Date: "2026-03-05"})); err != nil {
		t.Fatal(err)
	}

	task, ok, _ := s.Get(ctx, model.EntityTask, "x")
	slot, ok2, _ := s.Get(ctx, model.EntityTimeSlot, "x")
	if !ok || !ok2 {
		t.Fatal("entities sharing an id across types must coexist")
	}
	if task.Task == nil || slot.TimeSlot == nil {
		t.Errorf("wrong variants loaded: %+v / %+v", task, slot)
	}
}

func TestRejectsEmptyEntity(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(context.Background(), model.Snapshot{}); err == nil {
		t.Error("Add(empty) should fail")
	}
	if err := s.Add(context.Background(), model.TaskSnapshot(&model.Task{Title: "no id"})); err == nil {
		t.Error("Add without an id should fail")
	}
}

func TestQueueRoundTripPreservesOrder(t *testing.T) {
	s := openTestStore(t)

	entity := model.TaskSnapshot(&model.Task{ID: "task-2", Title: "Payload"})
	items := []sync.Item{
		{ID: "q-b", Type: model.EntityTask, Action: sync.ActionUpdate, EntityID: "task-2", Entity: &entity, Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Retries: 1, LastError: "boom"},
		{ID: "q-a", Type: model.EntityTask, Action: sync.ActionCreate, EntityID: "task-1", Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	if err := s.SaveQueue(items); err != nil {
		t.Fatalf("SaveQueue() error = %v", err)
	}

	loaded, err := s.LoadQueue()
	if err != nil {
		t.Fatalf("LoadQueue() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d items, want 2", len(loaded))
	}
	// Order is positional, not alphabetical or chronological.
	if loaded[0].ID != "q-b" || loaded[1].ID != "q-a" {
		t.Errorf("order = %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Retries != 1 || loaded[0].LastError != "boom" {
		t.Errorf("retry state lost: %+v", loaded[0])
	}
	if loaded[0].Entity == nil || loaded[0].Entity.Task.Title != "Payload" {
		t.Error("entity payload lost in round trip")
	}
	if loaded[1].Entity != nil {
		t.Error("nil payload became non-nil")
	}

	// Saving replaces, never appends.
	if err := s.SaveQueue(items[:1]); err != nil {
		t.Fatalf("SaveQueue() error = %v", err)
	}
	loaded, _ = s.LoadQueue()
	if len(loaded) != 1 {
		t.Errorf("loaded %d items after replace, want 1", len(loaded))
	}

	if err := s.SaveQueue(nil); err != nil {
		t.Fatalf("SaveQueue(nil) error = %v", err)
	}
	loaded, _ = s.LoadQueue()
	if len(loaded) != 0 {
		t.Errorf("loaded %d items after clearing, want 0", len(loaded))
	}
}

func TestConflictRoundTrip(t *testing.T) {
	s := openTestStore(t)

	app := model.TaskSnapshot(&model.Task{ID: "task-1", Title: "Local"})
	ext := model.TaskSnapshot(&model.Task{ID: "task-1", Title: "Remote"})
	later := &sync.Conflict{
		ID:            "c-later",
		EntityType:    model.EntityTask,
		EntityID:      "task-1",
		Service:       model.ServiceGoogleTasks,
		AppValue:      app,
		ExternalValue: ext,
		ConflictFields: []sync.FieldDifference{
			{Field: "title", AppValue: "Local", ExternalValue: "Remote", FieldType: sync.FieldString, CanMerge: true},
		},
		DetectedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Priority:   sync.PriorityHigh,
	}
	earlier := &sync.Conflict{
		ID:         "c-earlier",
		EntityType: model.EntityTask,
		EntityID:   "task-2",
		Service:    model.ServiceGoogleTasks,
		AppValue:   app,
		DetectedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Priority:   sync.PriorityLow,
	}

	if err := s.SaveConflict(later); err != nil {
		t.Fatalf("SaveConflict() error = %v", err)
	}
	if err := s.SaveConflict(earlier); err != nil {
		t.Fatalf("SaveConflict() error = %v", err)
	}

	loaded, err := s.LoadConflicts()
	if err != nil {
		t.Fatalf("LoadConflicts() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d conflicts, want 2", len(loaded))
	}
	if loaded[0].ID != "c-earlier" || loaded[1].ID != "c-later" {
		t.Errorf("order = %s, %s, want detection order", loaded[0].ID, loaded[1].ID)
	}
	if got := loaded[1].ConflictFields; len(got) != 1 || got[0].Field != "title" {
		t.Errorf("conflict fields lost: %+v", got)
	}
	if loaded[1].AppValue.Task == nil || loaded[1].AppValue.Task.Title != "Local" {
		t.Error("app snapshot lost in round trip")
	}

	if err := s.DeleteConflict("c-later"); err != nil {
		t.Fatalf("DeleteConflict() error = %v", err)
	}
	loaded, _ = s.LoadConflicts()
	if len(loaded) != 1 || loaded[0].ID != "c-earlier" {
		t.Errorf("conflicts after delete = %d", len(loaded))
	}
}
