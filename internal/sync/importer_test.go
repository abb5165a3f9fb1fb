package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/orbitapp/orbitsync/internal/config"
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

func TestImportCreatesUnmatchedRemote(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.adapter.objects = []remote.Object{{
		"id":     "gt-7",
		"title":  "Pick up package",
		"status": "needsAction",
		"due":    "2026-03-10T00:00:00.000Z",
	}}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Imported != 1 || res.Updated != 0 || res.Conflicts != 0 {
		t.Fatalf("ImportResult = %+v, want 1 imported", res)
	}

	tasks, _ := f.entities.List(context.Background(), model.EntityTask)
	if len(tasks) != 1 {
		t.Fatalf("got %d local tasks, want 1", len(tasks))
	}
	created := tasks[0]
	if created.Task.Title != "Pick up package" {
		t.Errorf("title = %q", created.Task.Title)
	}
	if created.Task.ScheduledDate != "2026-03-10" {
		t.Errorf("scheduledDate = %q, want 2026-03-10", created.Task.ScheduledDate)
	}
	if created.EntityID() == "" {
		t.Error("created entity has no local id")
	}
	meta := created.Metadata()
	if meta == nil {
		t.Fatal("created entity has no sync metadata")
	}
	if meta.ExternalID != "gt-7" || meta.Status != model.StatusSynced {
		t.Errorf("metadata = %+v", meta)
	}
	if !meta.LastSyncedAt.Equal(laterStill) {
		t.Errorf("LastSyncedAt = %v, want clock time", meta.LastSyncedAt)
	}
}

func TestImportMatchesByExternalID(t *testing.T) {
	f := newOrchFixture(t, nil)

	local := testTask()
	local.Task.Description = ""
	local.SetMetadata(testMeta(beforeSync, afterSync))
	f.entities.put(local)

	obj := testRemoteTask()
	obj["title"] = "Renamed remotely"
	f.adapter.objects = []remote.Object{obj}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Updated != 1 || res.Imported != 0 || res.Conflicts != 0 {
		t.Fatalf("ImportResult = %+v, want 1 updated", res)
	}

	// Matched by external id even though the titles no longer agree; the
	// empty description gets filled from the remote side.
	stored, _, _ := f.entities.Get(context.Background(), model.EntityTask, "task-1")
	if got := stored.Task.Description; got != "milk, eggs" {
		t.Errorf("description = %q, want filled from remote", got)
	}
}

func TestImportMatchesByTitleAndDate(t *testing.T) {
	f := newOrchFixture(t, nil)

	// Never exported, so no external id to match on.
	local := testTask()
	f.entities.put(local)

	f.adapter.objects = []remote.Object{testRemoteTask()}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Updated != 1 || res.Imported != 0 {
		t.Fatalf("ImportResult = %+v, want 1 updated via title+date match", res)
	}

	stored, _, _ := f.entities.Get(context.Background(), model.EntityTask, "task-1")
	meta := stored.Metadata()
	if meta == nil || meta.ExternalID != "gt-1" {
		t.Errorf("external id not backfilled: %+v", meta)
	}
	if meta != nil && meta.Status != model.StatusSynced {
		t.Errorf("Status = %s, want synced", meta.Status)
	}
}

func TestImportMatchesByTitleAlone(t *testing.T) {
	f := newOrchFixture(t, nil)

	local := testTask()
	local.Task.ScheduledDate = ""
	f.entities.put(local)

	obj := testRemoteTask()
	obj["title"] = "  BUY GROCERIES " // matching is case- and space-insensitive
	f.adapter.objects = []remote.Object{obj}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Updated != 1 || res.Imported != 0 {
		t.Fatalf("ImportResult = %+v, want 1 updated via title match", res)
	}
}

func TestImportEachLocalMatchesOnce(t *testing.T) {
	f := newOrchFixture(t, nil)

	local := testTask()
	local.Task.ScheduledDate = ""
	f.entities.put(local)

	a := testRemoteTask()
	b := testRemoteTask()
	b["id"] = "gt-2"
	f.adapter.objects = []remote.Object{a, b}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	// The first object claims the local task; the second becomes a new
	// entity instead of double-matching.
	if res.Updated != 1 || res.Imported != 1 {
		t.Errorf("ImportResult = %+v, want 1 updated and 1 imported", res)
	}
}

func TestImportRegistersConflictAndKeepsLocal(t *testing.T) {
	f := newOrchFixture(t, nil)

	local := testTask()
	local.Task.Title = "Buy groceries and supplies"
	local.SetMetadata(testMeta(afterSync, afterSync))
	f.entities.put(local)

	obj := testRemoteTask()
	obj["title"] = "Buy groceries"
	f.adapter.objects = []remote.Object{obj}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Conflicts != 1 || res.Updated != 0 || res.Imported != 0 {
		t.Fatalf("ImportResult = %+v, want 1 conflict", res)
	}

	stored, _, _ := f.entities.Get(context.Background(), model.EntityTask, "task-1")
	if got := stored.Task.Title; got != "Buy groceries and supplies" {
		t.Errorf("local title = %q, conflicting import must not modify the entity", got)
	}
	if len(f.orch.Conflicts()) != 1 {
		t.Error("conflict not registered in the open set")
	}
}

func TestImportIsIdempotent(t *testing.T) {
	f := newOrchFixture(t, nil)

	local := testTask()
	local.SetMetadata(testMeta(beforeSync, beforeSync))
	f.entities.put(local)

	f.adapter.objects = []remote.Object{testRemoteTask()}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Imported != 0 || res.Updated != 0 || res.Conflicts != 0 {
		t.Errorf("ImportResult = %+v, want all zero for converged state", res)
	}
}

func TestImportFetchFailureAborts(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.adapter.importErr = errors.New("rate limited")

	res, err := f.orch.Import(context.Background())
	if err == nil {
		t.Fatal("Import() error = nil, want fetch failure")
	}
	if res.Imported != 0 || res.Updated != 0 || res.Conflicts != 0 {
		t.Errorf("ImportResult = %+v, want zeros on abort", res)
	}
}

func TestImportRequiresAuth(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.tokens.authed = false

	if _, err := f.orch.Import(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Import() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestImportSkipsDisabledCategories(t *testing.T) {
	f := newOrchFixture(t, func(s *config.SyncConfig) { s.SyncTasks = false })
	f.adapter.objects = []remote.Object{testRemoteTask()}

	res, err := f.orch.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Imported != 0 {
		t.Errorf("Imported = %d, want 0 for disabled category", res.Imported)
	}
}

func TestPreferComplete(t *testing.T) {
	tests := []struct {
		name       string
		local      func() model.Snapshot
		obj        remote.Object
		wantChange bool
		check      func(t *testing.T, merged model.Snapshot)
	}{
		{
			name: "remote completion sticks",
			local: func() model.Snapshot {
				return testTask()
			},
			obj:        remote.Object{"id": "gt-1", "title": "Buy groceries", "status": "completed"},
			wantChange: true,
			check: func(t *testing.T, merged model.Snapshot) {
				if !merged.Task.Completed {
					t.Error("completion from either side should survive the merge")
				}
			},
		},
		{
			name: "local completion survives remote reopen",
			local: func() model.Snapshot {
				s := testTask()
				s.Task.Completed = true
				return s
			},
			obj:        remote.Object{"id": "gt-1", "title": "Buy groceries", "status": "needsAction"},
			wantChange: false,
			check: func(t *testing.T, merged model.Snapshot) {
				if !merged.Task.Completed {
					t.Error("merge must not uncomplete the local task")
				}
			},
		},
		{
			name: "remote scheduling wins",
			local: func() model.Snapshot {
				return testTask()
			},
			obj:        remote.Object{"id": "gt-1", "title": "Buy groceries", "due": "2026-03-07T00:00:00.000Z"},
			wantChange: true,
			check: func(t *testing.T, merged model.Snapshot) {
				if got := merged.Task.ScheduledDate; got != "2026-03-07" {
					t.Errorf("scheduledDate = %q, want remote date", got)
				}
			},
		},
		{
			name: "non-empty local text kept",
			local: func() model.Snapshot {
				return testTask()
			},
			obj:        remote.Object{"id": "gt-1", "title": "Buy groceries", "notes": "different remote notes"},
			wantChange: false,
			check: func(t *testing.T, merged model.Snapshot) {
				if got := merged.Task.Description; got != "milk, eggs" {
					t.Errorf("description = %q, want local value kept", got)
				}
			},
		},
		{
			name: "empty local text filled",
			local: func() model.Snapshot {
				s := testTask()
				s.Task.Description = ""
				return s
			},
			obj:        remote.Object{"id": "gt-1", "title": "Buy groceries", "notes": "remote notes"},
			wantChange: true,
			check: func(t *testing.T, merged model.Snapshot) {
				if got := merged.Task.Description; got != "remote notes" {
					t.Errorf("description = %q, want filled from remote", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, changed := preferComplete(tt.local(), model.ServiceGoogleTasks, tt.obj)
			if changed != tt.wantChange {
				t.Errorf("changed = %v, want %v", changed, tt.wantChange)
			}
			tt.check(t, merged)
		})
	}
}

func TestLocalIndexTiers(t *testing.T) {
	linked := testTask()
	linked.SetMetadata(testMeta(beforeSync, beforeSync))
	dated := model.TaskSnapshot(&model.Task{ID: "task-2", Title: "Dentist", ScheduledDate: "2026-03-09"})
	plain := model.TaskSnapshot(&model.Task{ID: "task-3", Title: "Laundry"})

	idx := indexLocals([]model.Snapshot{linked, dated, plain})

	if m, ok := idx.match("gt-1", "something else", ""); !ok || m.EntityID() != "task-1" {
		t.Errorf("external id tier matched %q", m.EntityID())
	}
	if m, ok := idx.match("", "dentist", "2026-03-09"); !ok || m.EntityID() != "task-2" {
		t.Errorf("title+date tier matched %q", m.EntityID())
	}
	if m, ok := idx.match("", "Laundry", ""); !ok || m.EntityID() != "task-3" {
		t.Errorf("title tier matched %q", m.EntityID())
	}
	if _, ok := idx.match("", "laundry", ""); ok {
		t.Error("a claimed entity matched a second time")
	}
	if _, ok := idx.match("gt-404", "unknown", ""); ok {
		t.Error("matched with nothing to match on")
	}
}
