package sync

import (
	_ "embed"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

//go:embed mappings.toml
var mappingsTOML string

// FieldMapping relates an app-side field name to the remote service's
// field path (dotted for nested values).
type FieldMapping struct {
	App    string `toml:"app"`
	Remote string `toml:"remote"`
}

type serviceMappings struct {
	Fields []FieldMapping `toml:"fields"`
}

var fieldMappings map[string]serviceMappings

func init() {
	if err := toml.Unmarshal([]byte(mappingsTOML), &fieldMappings); err != nil {
		panic("sync: invalid embedded field mappings: " + err.Error())
	}
}

// MappingsFor returns the field mappings for a service, in declaration
// order. Unknown services map nothing.
func MappingsFor(service model.Service) []FieldMapping {
	return fieldMappings[string(service)].Fields
}

// criticalFields are the fields whose divergence makes a conflict high
// priority.
var criticalFields = map[string]bool{
	"title":         true,
	"completed":     true,
	"scheduledDate": true,
	"startTime":     true,
	"endTime":       true,
	"date":          true,
	"status":        true,
}

// importantFields make a conflict medium priority when no critical field
// is involved.
var importantFields = map[string]bool{
	"description": true,
	"tag":         true,
	"priority":    true,
}

// nonMergeableFields can never be combined; one side must win.
var nonMergeableFields = map[string]bool{
	"id":           true,
	"completed":    true,
	"status":       true,
	"syncMetadata": true,
}

// priorityFor derives the conflict priority from the differing fields.
func priorityFor(diffs []FieldDifference) Priority {
	for _, d := range diffs {
		if criticalFields[d.Field] {
			return PriorityHigh
		}
	}
	for _, d := range diffs {
		if importantFields[d.Field] {
			return PriorityMedium
		}
	}
	return PriorityLow
}

// canMergeField decides whether the merge strategy may combine the two
// values of a field instead of picking one side.
func canMergeField(field string, appValue, externalValue any) bool {
	if nonMergeableFields[field] {
		return false
	}

	if isArray(appValue) && isArray(externalValue) {
		return true
	}

	if _, ok := appValue.(string); ok {
		if _, ok := externalValue.(string); ok {
			return strings.Contains(field, "description") ||
				strings.Contains(field, "notes") ||
				strings.Contains(field, "title")
		}
	}

	return false
}

func isArray(v any) bool {
	switch v.(type) {
	case []string, []any:
		return true
	default:
		return false
	}
}

// fieldTypeOf classifies a value for FieldDifference reporting.
func fieldTypeOf(v any) FieldType {
	switch val := v.(type) {
	case time.Time:
		return FieldDate
	case bool:
		return FieldBoolean
	case int, int64, float64:
		return FieldNumber
	case []string, []any:
		return FieldArray
	case string:
		if isDateString(val) {
			return FieldDate
		}
		return FieldString
	case nil:
		return FieldString
	default:
		return FieldObject
	}
}

// isDateString reports whether s starts with a YYYY-MM-DD date.
func isDateString(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i, r := range s[:10] {
		switch i {
		case 4, 7:
			if r != '-' {
				return false
			}
		default:
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// normalizeRemoteValue converts a raw remote value into the app-side
// representation for the given field, so both sides compare like for
// like.
func normalizeRemoteValue(service model.Service, appField string, raw any) any {
	switch service {
	case model.ServiceGoogleTasks:
		switch appField {
		case "completed":
			// Google Tasks encodes completion as a status string.
			if s, ok := raw.(string); ok {
				return s == "completed"
			}
		case "scheduledDate":
			// The due field is a date pinned to midnight UTC.
			if s, ok := raw.(string); ok && len(s) >= 10 {
				return s[:10]
			}
		}
	case model.ServiceGoogleCalendar:
		switch appField {
		case "startTime", "endTime":
			// Event boundaries arrive as full timestamps; time slots keep
			// wall-clock HH:MM.
			if s, ok := raw.(string); ok && len(s) >= 16 && s[10] == 'T' {
				return s[11:16]
			}
		}
	}
	return raw
}

// MapRemoteOnto projects the remote object onto a copy of the local
// snapshot: every mapped remote field overwrites the local value, fields
// the remote does not carry keep their local values. The result is the
// remote state expressed in local shape.
func MapRemoteOnto(local model.Snapshot, service model.Service, obj remote.Object) model.Snapshot {
	out := local.Clone()
	for _, m := range MappingsFor(service) {
		raw, ok := obj.At(m.Remote)
		if !ok {
			continue
		}
		out.SetField(m.App, normalizeRemoteValue(service, m.App, raw))
	}
	return out
}
