package remote

import "testing"

func TestObjectAt(t *testing.T) {
	obj := Object{
		"id":      "evt-1",
		"summary": "Focus",
		"start":   map[string]any{"dateTime": "2026-03-05T09:00:00Z"},
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"summary", "Focus", true},
		{"start.dateTime", "2026-03-05T09:00:00Z", true},
		{"start.date", nil, false},
		{"start.dateTime.zone", nil, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := obj.At(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("At(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if tt.wantOK && got != tt.want {
				t.Errorf("At(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"id field", Object{"id": "gt-1"}, "gt-1"},
		{"resource name fallback", Object{"resourceName": "people/c1"}, "people/c1"},
		{"id wins over resource name", Object{"id": "gt-1", "resourceName": "people/c1"}, "gt-1"},
		{"neither", Object{"title": "x"}, ""},
		{"non-string id", Object{"id": 7}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}
