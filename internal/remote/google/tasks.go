package google

import (
	"context"
	"fmt"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// defaultTaskList is the Tasks API alias for the user's default list.
const defaultTaskList = "@default"

// TasksAdapter mirrors tasks into Google Tasks.
type TasksAdapter struct {
	listID     string
	newService func(ctx context.Context, token string) (*tasks.Service, error)
}

// NewTasksAdapter creates an adapter targeting the default task list.
func NewTasksAdapter() *TasksAdapter {
	return &TasksAdapter{
		listID: defaultTaskList,
		newService: func(ctx context.Context, token string) (*tasks.Service, error) {
			return tasks.NewService(ctx, tokenOption(token))
		},
	}
}

// Export creates or updates the Google Tasks counterpart of a task.
func (a *TasksAdapter) Export(ctx context.Context, snap model.Snapshot, remoteID, token string) (remote.ExportResult, error) {
	if snap.Task == nil {
		return remote.ExportResult{}, fmt.Errorf("google tasks adapter received a %s snapshot", snap.Type)
	}

	svc, err := a.newService(ctx, token)
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("creating tasks service: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	body := buildTask(snap.Task)
	var saved *tasks.Task
	if remoteID == "" {
		saved, err = svc.Tasks.Insert(a.listID, body).Context(ctx).Do()
	} else {
		body.Id = remoteID
		saved, err = svc.Tasks.Update(a.listID, remoteID, body).Context(ctx).Do()
	}
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("exporting task %q: %w", snap.Task.Title, err)
	}

	return remote.ExportResult{RemoteID: saved.Id}, nil
}

// ImportPending lists the full task collection, completed and hidden
// tasks included.
func (a *TasksAdapter) ImportPending(ctx context.Context, token string) ([]remote.Object, error) {
	svc, err := a.newService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("creating tasks service: %w", err)
	}

	var out []remote.Object
	err = svc.Tasks.List(a.listID).
		ShowCompleted(true).
		ShowHidden(true).
		MaxResults(100).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, t := range page.Items {
				out = append(out, taskObject(t))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing google tasks: %w", err)
	}
	return out, nil
}

// buildTask converts a task into its Tasks API representation. The due
// field is pinned to midnight UTC; the API discards any time component.
func buildTask(t *model.Task) *tasks.Task {
	body := &tasks.Task{
		Title:  t.Title,
		Notes:  t.Description,
		Status: "needsAction",
	}
	if t.Completed {
		body.Status = "completed"
	}
	if t.ScheduledDate != "" {
		body.Due = t.ScheduledDate + "T00:00:00.000Z"
	}
	return body
}

func taskObject(t *tasks.Task) remote.Object {
	obj := remote.Object{
		"id":     t.Id,
		"title":  t.Title,
		"status": t.Status,
	}
	if t.Notes != "" {
		obj["notes"] = t.Notes
	}
	if t.Due != "" {
		obj["due"] = t.Due
	}
	if t.Updated != "" {
		obj["updated"] = t.Updated
	}
	return obj
}
