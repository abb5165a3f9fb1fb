package sync

import (
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orbitapp/orbitsync/internal/logging"
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// DetectionEngine decides whether a local entity and its remote
// counterpart have genuinely diverged, and describes how.
type DetectionEngine struct {
	now func() time.Time
}

// NewDetectionEngine creates a detection engine. A nil clock defaults to
// time.Now.
func NewDetectionEngine(now func() time.Time) *DetectionEngine {
	if now == nil {
		now = time.Now
	}
	return &DetectionEngine{now: now}
}

// Detect compares a local entity against its remote snapshot and returns
// a Conflict when both sides changed since the last sync and at least one
// mapped field differs. It returns nil in every other case:
//
//   - the entity has never been synced (nothing to compare against),
//   - only one side changed (the unilateral edit simply wins),
//   - timestamps disagree but every mapped field converged.
func (e *DetectionEngine) Detect(local model.Snapshot, obj remote.Object, meta *model.SyncMetadata) *Conflict {
	if meta.NeverSynced() {
		return nil
	}

	appModified := !meta.AppLastModified.IsZero() && meta.AppLastModified.After(meta.LastSyncedAt)
	externalModified := !meta.ExternalLastModified.IsZero() && meta.ExternalLastModified.After(meta.LastSyncedAt)
	if !appModified || !externalModified {
		return nil
	}

	diffs := e.compareFields(local, obj, meta.ExternalService)
	if len(diffs) == 0 {
		return nil
	}

	conflict := &Conflict{
		ID:                   uuid.NewString(),
		EntityType:           local.Type,
		EntityID:             local.EntityID(),
		Service:              meta.ExternalService,
		AppValue:             local.Clone(),
		ExternalValue:        MapRemoteOnto(local, meta.ExternalService, obj),
		ConflictFields:       diffs,
		AppLastModified:      meta.AppLastModified,
		ExternalLastModified: meta.ExternalLastModified,
		DetectedAt:           e.now(),
		Priority:             priorityFor(diffs),
	}

	logging.Debug("conflict detected",
		logging.Conflict(conflict.ID),
		logging.Entity(conflict.EntityID),
		logging.EntityType(string(conflict.EntityType)),
		logging.Service(string(conflict.Service)),
		logging.Count(len(diffs)),
		slog.String("priority", string(conflict.Priority)),
	)

	return conflict
}

// DetectAll runs detection over a batch of local entities. Remote
// snapshots are keyed by external id and metadata by local entity id;
// entities without an external id or without a remote counterpart are
// skipped.
func (e *DetectionEngine) DetectAll(
	entities []model.Snapshot,
	remoteByID map[string]remote.Object,
	metaByEntity map[string]*model.SyncMetadata,
) []*Conflict {
	var conflicts []*Conflict
	for _, entity := range entities {
		meta := metaByEntity[entity.EntityID()]
		if meta == nil || meta.ExternalID == "" {
			continue
		}
		obj, ok := remoteByID[meta.ExternalID]
		if !ok {
			continue
		}
		if c := e.Detect(entity, obj, meta); c != nil {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// compareFields extracts both sides of every mapped field and reports the
// ones holding unequal values.
func (e *DetectionEngine) compareFields(local model.Snapshot, obj remote.Object, service model.Service) []FieldDifference {
	var diffs []FieldDifference
	for _, m := range MappingsFor(service) {
		appValue, ok := local.Field(m.App)
		if !ok {
			continue
		}

		var externalValue any
		if raw, ok := obj.At(m.Remote); ok {
			externalValue = normalizeRemoteValue(service, m.App, raw)
		}

		if valuesEqual(appValue, externalValue) {
			continue
		}

		diffs = append(diffs, FieldDifference{
			Field:         m.App,
			AppValue:      appValue,
			ExternalValue: externalValue,
			FieldType:     fieldTypeOf(appValue),
			CanMerge:      canMergeField(m.App, appValue, externalValue),
		})
	}
	return diffs
}

// valuesEqual compares an app value and a normalized remote value.
// Timestamps are compared by instant, date-only strings lexicographically,
// and composite values structurally. An absent value equals an empty one.
func valuesEqual(a, b any) bool {
	if isEmptyValue(a) && isEmptyValue(b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return stringValuesEqual(as, bs)
		}
	}

	if an, ok := asFloat(a); ok {
		if bn, ok := asFloat(b); ok {
			return an == bn
		}
	}

	return reflect.DeepEqual(a, b)
}

func stringValuesEqual(a, b string) bool {
	// Full timestamps compare by instant so differing zone notations of
	// the same moment do not count as divergence.
	if strings.Contains(a, "T") && strings.Contains(b, "T") {
		at, errA := time.Parse(time.RFC3339, a)
		bt, errB := time.Parse(time.RFC3339, b)
		if errA == nil && errB == nil {
			return at.Equal(bt)
		}
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}
