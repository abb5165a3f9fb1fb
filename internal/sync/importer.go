package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/orbitapp/orbitsync/internal/logging"
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// Import pulls remote state for every enabled category and reconciles it
// with the local entities. Remote items without a local counterpart are
// created locally; matched items either merge (preferring the more
// complete side) or, when both sides diverged since the last sync,
// register a conflict and leave the local entity untouched. A fetch
// failure aborts the whole cycle with an empty result.
func (o *Orchestrator) Import(ctx context.Context) (ImportResult, error) {
	var result ImportResult

	if o.tokens == nil || !o.tokens.Authenticated() {
		return result, ErrNotAuthenticated
	}
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	stop := logging.Timer("import")
	defer stop()

	cfg := o.cfg.Sync()
	for _, t := range model.AllEntityTypes() {
		if !categoryEnabled(cfg, t) {
			continue
		}
		adapter := o.adapters.For(t)
		if adapter == nil {
			continue
		}

		objects, err := adapter.ImportPending(ctx, token)
		if err != nil {
			return ImportResult{}, fmt.Errorf("fetching %s state: %w", t, err)
		}

		locals, err := o.entities.List(ctx, t)
		if err != nil {
			return ImportResult{}, fmt.Errorf("listing %s entities: %w", t, err)
		}

		partial, err := o.importType(ctx, t, locals, objects)
		result.Imported += partial.Imported
		result.Updated += partial.Updated
		result.Conflicts += partial.Conflicts
		if err != nil {
			return result, err
		}
	}

	logging.Info("import cycle complete",
		logging.Count(result.Imported),
		slog.Int("updated", result.Updated),
		slog.Int("conflicts", result.Conflicts),
	)
	return result, nil
}

// importType reconciles the remote objects of one entity type against the
// local entities of that type.
func (o *Orchestrator) importType(ctx context.Context, t model.EntityType, locals []model.Snapshot, objects []remote.Object) (ImportResult, error) {
	var result ImportResult
	service := model.ServiceFor(t)
	index := indexLocals(locals)

	for _, obj := range objects {
		projected := MapRemoteOnto(emptySnapshot(t, ""), service, obj)

		local, ok := index.match(obj.ID(), projected.Title(), projected.ScheduledDate())
		if !ok {
			if err := o.createFromRemote(ctx, t, service, obj); err != nil {
				logging.Warn("failed to create imported entity",
					logging.EntityType(string(t)),
					logging.Err(err),
				)
				continue
			}
			result.Imported++
			continue
		}

		meta := local.Metadata()
		if c := o.detect.Detect(local, obj, meta); c != nil {
			o.registerConflict(ctx, c)
			result.Conflicts++
			continue
		}

		merged, changed := preferComplete(local, service, obj)
		if meta == nil {
			meta = &model.SyncMetadata{
				ExternalService: service,
				Direction:       model.DirectionBidirectional,
			}
		}
		if meta.ExternalID == "" && obj.ID() != "" {
			meta.ExternalID = obj.ID()
			changed = true
		}
		if !changed {
			continue
		}
		meta.MarkSynced(o.now())
		merged.SetMetadata(meta)
		if err := o.entities.Update(ctx, merged); err != nil {
			logging.Warn("failed to update imported entity",
				logging.Entity(local.EntityID()),
				logging.Err(err),
			)
			continue
		}
		result.Updated++
	}

	return result, nil
}

// createFromRemote materializes a remote object as a new local entity
// with synced metadata.
func (o *Orchestrator) createFromRemote(ctx context.Context, t model.EntityType, service model.Service, obj remote.Object) error {
	snap := MapRemoteOnto(emptySnapshot(t, uuid.NewString()), service, obj)
	snap.SetMetadata(&model.SyncMetadata{
		LastSyncedAt:    o.now(),
		Status:          model.StatusSynced,
		ExternalID:      obj.ID(),
		ExternalService: service,
		Direction:       model.DirectionBidirectional,
	})
	return o.entities.Add(ctx, snap)
}

// localIndex matches remote objects to local entities in three tiers:
// external id, then title plus scheduled date, then title alone. Each
// local entity matches at most one remote object.
type localIndex struct {
	byExternalID map[string]model.Snapshot
	byTitleDate  map[string]model.Snapshot
	byTitle      map[string]model.Snapshot
	used         map[string]bool
}

func indexLocals(locals []model.Snapshot) *localIndex {
	idx := &localIndex{
		byExternalID: make(map[string]model.Snapshot),
		byTitleDate:  make(map[string]model.Snapshot),
		byTitle:      make(map[string]model.Snapshot),
		used:         make(map[string]bool),
	}
	for _, l := range locals {
		if meta := l.Metadata(); meta != nil && meta.ExternalID != "" {
			idx.byExternalID[meta.ExternalID] = l
		}
		title := normalizeTitle(l.Title())
		if title == "" {
			continue
		}
		if date := l.ScheduledDate(); date != "" {
			idx.byTitleDate[title+"\x00"+date] = l
		}
		if _, dup := idx.byTitle[title]; !dup {
			idx.byTitle[title] = l
		}
	}
	return idx
}

func (idx *localIndex) match(externalID, title, date string) (model.Snapshot, bool) {
	title = normalizeTitle(title)

	if externalID != "" {
		if l, ok := idx.byExternalID[externalID]; ok && idx.claim(l) {
			return l, true
		}
	}
	if title != "" && date != "" {
		if l, ok := idx.byTitleDate[title+"\x00"+date]; ok && idx.claim(l) {
			return l, true
		}
	}
	if title != "" {
		if l, ok := idx.byTitle[title]; ok && idx.claim(l) {
			return l, true
		}
	}
	return model.Snapshot{}, false
}

func (idx *localIndex) claim(l model.Snapshot) bool {
	id := l.EntityID()
	if idx.used[id] {
		return false
	}
	idx.used[id] = true
	return true
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// preferComplete merges a remote object into a copy of the local entity,
// keeping whichever side carries more information: completion is true if
// either side completed it, scheduling fields take the imported value
// when the remote carries one, and other fields are only filled in where
// the local side is empty.
func preferComplete(local model.Snapshot, service model.Service, obj remote.Object) (model.Snapshot, bool) {
	out := local.Clone()
	changed := false

	for _, m := range MappingsFor(service) {
		raw, ok := obj.At(m.Remote)
		if !ok {
			continue
		}
		value := normalizeRemoteValue(service, m.App, raw)
		current, _ := out.Field(m.App)

		switch {
		case m.App == "completed":
			remoteDone, _ := value.(bool)
			localDone, _ := current.(bool)
			if remoteDone && !localDone {
				out.SetField(m.App, true)
				changed = true
			}
		case isSchedulingField(m.App):
			if !isEmptyValue(value) && !valuesEqual(current, value) {
				if out.SetField(m.App, value) {
					changed = true
				}
			}
		default:
			if isEmptyValue(current) && !isEmptyValue(value) {
				if out.SetField(m.App, value) {
					changed = true
				}
			}
		}
	}

	return out, changed
}

func isSchedulingField(field string) bool {
	switch field {
	case "scheduledDate", "date", "startTime", "endTime":
		return true
	default:
		return false
	}
}

// emptySnapshot returns a zero-valued entity of the given type with the
// given id.
func emptySnapshot(t model.EntityType, id string) model.Snapshot {
	switch t {
	case model.EntityTask:
		return model.TaskSnapshot(&model.Task{ID: id})
	case model.EntityTimeSlot:
		return model.TimeSlotSnapshot(&model.TimeSlot{ID: id})
	case model.EntityObjective:
		return model.ObjectiveSnapshot(&model.Objective{ID: id})
	case model.EntityFriend:
		return model.FriendSnapshot(&model.Friend{ID: id})
	default:
		return model.Snapshot{}
	}
}
