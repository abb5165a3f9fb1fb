package google

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"

	"github.com/orbitapp/orbitsync/internal/model"
)

func TestAuthenticated(t *testing.T) {
	dir := t.TempDir()
	clientPath := filepath.Join(dir, "oauth_client.json")
	tokenPath := filepath.Join(dir, "token.json")

	auth := NewAuth(clientPath, tokenPath)
	if auth.Authenticated() {
		t.Error("Authenticated() = true with no credentials on disk")
	}

	if err := os.WriteFile(clientPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if auth.Authenticated() {
		t.Error("Authenticated() = true with only the client configuration")
	}

	if err := os.WriteFile(tokenPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !auth.Authenticated() {
		t.Error("Authenticated() = false with both files present")
	}
}

func TestSaveToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	if err := SaveToken(path, &oauth2.Token{AccessToken: "secret", RefreshToken: "refresh"}); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 0600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("token file is empty")
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	for _, typ := range model.AllEntityTypes() {
		if reg.For(typ) == nil {
			t.Errorf("no adapter registered for %s", typ)
		}
	}

	// Time slots and objective deadlines land on the same calendar.
	if reg.For(model.EntityTimeSlot) != reg.For(model.EntityObjective) {
		t.Error("time slots and objectives should share the calendar adapter")
	}
	if _, ok := reg.For(model.EntityTask).(*TasksAdapter); !ok {
		t.Error("tasks should use the tasks adapter")
	}
	if _, ok := reg.For(model.EntityFriend).(*ContactsAdapter); !ok {
		t.Error("friends should use the contacts adapter")
	}
}
