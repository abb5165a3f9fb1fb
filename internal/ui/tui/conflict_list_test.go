package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/sync"
)

func browsableConflicts() []*sync.Conflict {
	first := &sync.Conflict{
		ID:         "c-1",
		EntityType: model.EntityTask,
		EntityID:   "task-1",
		Service:    model.ServiceGoogleTasks,
		AppValue:   model.TaskSnapshot(&model.Task{ID: "task-1", Title: "Write the quarterly report for finance"}),
		ConflictFields: []sync.FieldDifference{
			{Field: "title", AppValue: "a", ExternalValue: "b", FieldType: sync.FieldString, CanMerge: true},
			{Field: "description", AppValue: "c", ExternalValue: "d", FieldType: sync.FieldString, CanMerge: true},
		},
		DetectedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Priority:   sync.PriorityHigh,
	}
	second := &sync.Conflict{
		ID:         "c-2",
		EntityType: model.EntityFriend,
		EntityID:   "friend-1",
		Service:    model.ServiceGoogleContacts,
		AppValue:   model.FriendSnapshot(&model.Friend{ID: "friend-1", Name: "Sam"}),
		ConflictFields: []sync.FieldDifference{
			{Field: "email", AppValue: "a@x", ExternalValue: "b@x", FieldType: sync.FieldString},
		},
		DetectedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		Priority:   sync.PriorityLow,
	}
	return []*sync.Conflict{first, second}
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func asModel(t *testing.T, m tea.Model) ConflictListModel {
	t.Helper()
	cm, ok := m.(ConflictListModel)
	if !ok {
		t.Fatalf("unexpected model type %T", m)
	}
	return cm
}

func TestBuildConflictRow(t *testing.T) {
	c := browsableConflicts()[0]

	row := buildConflictRow(c, "")
	if row[0] != "○" || row[5] != "-" {
		t.Errorf("undecided row = %v", row)
	}
	if row[1] != "Write the quarterly..." {
		t.Errorf("entity column = %q, want truncated title", row[1])
	}
	if row[2] != "task" || row[3] != "high" {
		t.Errorf("type/priority = %q/%q", row[2], row[3])
	}
	if row[4] != "title, description" {
		t.Errorf("fields column = %q", row[4])
	}

	chosen := buildConflictRow(c, "app_wins")
	if chosen[0] != "✓" || chosen[5] != "app_wins" {
		t.Errorf("decided row = %v", chosen)
	}
}

func TestConflictListChooseAndConfirm(t *testing.T) {
	m := NewConflictListModel(browsableConflicts())

	// Pick "keep local" for the first conflict, then apply.
	next, _ := m.Update(keyPress('a'))
	m = asModel(t, next)
	next, _ = m.Update(keyPress('y'))
	m = asModel(t, next)
	next, cmd := m.Update(keyPress('y'))
	m = asModel(t, next)

	if cmd == nil {
		t.Fatal("confirming should quit the program")
	}
	result := m.Result()
	if result.Action != ConflictActionResolve {
		t.Fatalf("Action = %v, want resolve", result.Action)
	}
	if len(result.Strategies) != 1 || result.Strategies["c-1"] != sync.StrategyAppWins {
		t.Errorf("Strategies = %v", result.Strategies)
	}
}

func TestConflictListSkipClearsChoice(t *testing.T) {
	m := NewConflictListModel(browsableConflicts())

	next, _ := m.Update(keyPress('e'))
	m = asModel(t, next)
	if len(m.strategies) != 1 {
		t.Fatalf("strategies = %v after choosing", m.strategies)
	}

	next, _ = m.Update(keyPress('x'))
	m = asModel(t, next)
	if len(m.strategies) != 0 {
		t.Errorf("strategies = %v after skip, want none", m.strategies)
	}

	// With nothing chosen there is nothing to confirm.
	next, _ = m.Update(keyPress('y'))
	m = asModel(t, next)
	if m.confirmMode {
		t.Error("confirm prompt shown with no choices")
	}
}

func TestConflictListConfirmDecline(t *testing.T) {
	m := NewConflictListModel(browsableConflicts())

	next, _ := m.Update(keyPress('m'))
	m = asModel(t, next)
	next, _ = m.Update(keyPress('y'))
	m = asModel(t, next)
	if !m.confirmMode {
		t.Fatal("expected the confirm prompt")
	}

	next, _ = m.Update(keyPress('n'))
	m = asModel(t, next)
	if m.confirmMode {
		t.Error("declining should return to the list")
	}
	if m.Result().Action != ConflictActionNone {
		t.Error("declining must not produce a result")
	}
}

func TestConflictListCancel(t *testing.T) {
	m := NewConflictListModel(browsableConflicts())

	next, cmd := m.Update(keyPress('b'))
	m = asModel(t, next)

	if cmd == nil {
		t.Fatal("cancelling should quit the program")
	}
	if m.Result().Action != ConflictActionCancel {
		t.Errorf("Action = %v, want cancel", m.Result().Action)
	}
}

func TestConflictListNumberKeysAlias(t *testing.T) {
	m := NewConflictListModel(browsableConflicts())

	next, _ := m.Update(keyPress('3'))
	m = asModel(t, next)

	if got := m.strategies["c-1"]; got != sync.StrategyLastWriteWins {
		t.Errorf("strategy = %q, want last_write_wins via the number alias", got)
	}
	rows := m.table.Rows()
	if rows[0][0] != "✓" || rows[0][5] != "last_write_wins" {
		t.Errorf("row not updated: %v", rows[0])
	}
}

func TestDetailContentWrapsLongValues(t *testing.T) {
	conflicts := browsableConflicts()
	conflicts[0].ConflictFields[1].AppValue =
		"a fairly long local description that cannot fit on one line"

	m := NewConflictListModel(conflicts)
	m.cursor = 0
	m.viewport = viewport.New(40, 10)

	content := m.buildDetailContent()
	want := "a fairly long local\n" +
		"            description that cannot fit\n" +
		"            on one line"
	if !strings.Contains(content, want) {
		t.Errorf("detail content missing wrapped value, got:\n%s", content)
	}
}

func TestBrowseConflictsEmpty(t *testing.T) {
	strategies, err := BrowseConflicts(nil)
	if err != nil {
		t.Fatalf("BrowseConflicts(nil) error = %v", err)
	}
	if strategies != nil {
		t.Errorf("strategies = %v, want nil without conflicts", strategies)
	}
}
