package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"
	"time"

	"github.com/orbitapp/orbitsync/internal/config"
	"github.com/orbitapp/orbitsync/internal/logging"
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// defaultItemDelay paces consecutive exports within one drain pass so the
// remote APIs are not hammered.
const defaultItemDelay = 200 * time.Millisecond

// Store persists sync state across restarts: the outbound queue and the
// set of open conflicts.
type Store interface {
	LoadQueue() ([]Item, error)
	SaveQueue(items []Item) error
	LoadConflicts() ([]*Conflict, error)
	SaveConflict(c *Conflict) error
	DeleteConflict(id string) error
}

// EntityStore is the orchestrator's contract with the application's
// entity storage. The orchestrator reads entities to detect conflicts
// and writes them back when a resolution or an import changes them.
type EntityStore interface {
	List(ctx context.Context, t model.EntityType) ([]model.Snapshot, error)
	Get(ctx context.Context, t model.EntityType, id string) (model.Snapshot, bool, error)
	Add(ctx context.Context, snap model.Snapshot) error
	Update(ctx context.Context, snap model.Snapshot) error
}

// Options configures an Orchestrator.
type Options struct {
	// Config supplies and persists sync and conflict settings.
	Config *config.Store

	// Store persists the queue and open conflicts.
	Store Store

	// Entities is the application's entity storage.
	Entities EntityStore

	// Adapters maps entity types to their remote service adapters.
	Adapters remote.Registry

	// Tokens supplies remote access tokens.
	Tokens remote.TokenSource

	// Clock overrides time.Now, for tests.
	Clock func() time.Time

	// ItemDelay overrides the pause between consecutive exports in one
	// drain pass. Negative disables the pause; zero means the default.
	ItemDelay time.Duration
}

// Orchestrator owns the outbound queue, the drain loop, inbound imports,
// and the open conflict set. All state transitions go through it.
type Orchestrator struct {
	cfg      *config.Store
	store    Store
	entities EntityStore
	adapters remote.Registry
	tokens   remote.TokenSource
	detect   *DetectionEngine
	resolve  *ResolutionEngine
	now      func() time.Time
	delay    time.Duration

	mu        gosync.Mutex
	queue     []Item
	draining  bool
	conflicts map[string]*Conflict

	background *loop
	autoImport *loop
}

// NewOrchestrator builds an orchestrator and restores the persisted queue
// and open conflicts from the store.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Config == nil || opts.Store == nil || opts.Entities == nil {
		return nil, fmt.Errorf("sync: config, store, and entities are required")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	delay := opts.ItemDelay
	if delay == 0 {
		delay = defaultItemDelay
	}
	if delay < 0 {
		delay = 0
	}

	o := &Orchestrator{
		cfg:       opts.Config,
		store:     opts.Store,
		entities:  opts.Entities,
		adapters:  opts.Adapters,
		tokens:    opts.Tokens,
		detect:    NewDetectionEngine(now),
		resolve:   NewResolutionEngine(opts.Config.Conflicts, now),
		now:       now,
		delay:     delay,
		conflicts: make(map[string]*Conflict),
	}

	queue, err := opts.Store.LoadQueue()
	if err != nil {
		return nil, fmt.Errorf("loading sync queue: %w", err)
	}
	o.queue = queue

	open, err := opts.Store.LoadConflicts()
	if err != nil {
		return nil, fmt.Errorf("loading open conflicts: %w", err)
	}
	for _, c := range open {
		if c.Open() {
			o.conflicts[c.ID] = c
		}
	}

	// A changed interval takes effect by restarting the ticker.
	o.cfg.OnChange(func(config.Config) { o.restartBackground() })

	return o, nil
}

// Enqueue records an outbound change for the entity, replacing any
// still-pending item for the same (type, entityId) pair. It is a no-op
// when sync is disabled globally or for the entity's category. When
// auto-sync on change is configured, a drain pass starts in the
// background.
func (o *Orchestrator) Enqueue(t model.EntityType, action Action, entityID string, entity *model.Snapshot) {
	cfg := o.cfg.Sync()
	if !cfg.Enabled || !categoryEnabled(cfg, t) {
		logging.Debug("sync disabled, skipping enqueue",
			logging.EntityType(string(t)),
			logging.Entity(entityID),
		)
		return
	}

	now := o.now()
	item := Item{
		ID:        newItemID(t, entityID, now),
		Type:      t,
		Action:    action,
		EntityID:  entityID,
		Timestamp: now,
	}
	if entity != nil {
		clone := entity.Clone()
		item.Entity = &clone
	}

	o.mu.Lock()
	o.queue = dedupe(o.queue, t, entityID)
	o.queue = append(o.queue, item)
	o.persistQueueLocked()
	length := len(o.queue)
	o.mu.Unlock()

	logging.Debug("change queued",
		logging.EntityType(string(t)),
		logging.Entity(entityID),
		logging.Operation(string(action)),
		logging.Count(length),
	)

	if cfg.AutoSyncOnChange {
		go func() {
			if _, err := o.Drain(context.Background()); err != nil {
				logging.Warn("auto drain failed", logging.Err(err))
			}
		}()
	}
}

// Drain processes the queued items in order, exporting each through its
// adapter. At most one pass runs at a time; a call while a pass is in
// flight returns immediately with an empty result. An unauthenticated
// session skips the pass without error. Failed items stay queued with an
// incremented retry count until they exhaust the configured retries, at
// which point they are dropped with the last error recorded.
func (o *Orchestrator) Drain(ctx context.Context) (DrainResult, error) {
	var result DrainResult

	o.mu.Lock()
	if o.draining || len(o.queue) == 0 {
		o.mu.Unlock()
		return result, nil
	}
	o.draining = true
	snapshot := make([]Item, len(o.queue))
	copy(snapshot, o.queue)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.draining = false
		o.mu.Unlock()
	}()

	if o.tokens == nil || !o.tokens.Authenticated() {
		logging.Debug("drain skipped, not authenticated", logging.Count(len(snapshot)))
		return result, nil
	}
	token, err := o.tokens.Token(ctx)
	if err != nil {
		logging.Warn("drain skipped, token unavailable", logging.Err(err))
		return result, nil
	}

	stop := logging.Timer("queue drain")
	defer stop()

	maxRetries := o.cfg.Sync().MaxRetries
	snapshotIDs := make(map[string]bool, len(snapshot))
	var failed []Item

	for i, item := range snapshot {
		snapshotIDs[item.ID] = true

		if ctx.Err() != nil {
			// Unprocessed items keep their queue positions for the next
			// pass.
			for _, rest := range snapshot[i:] {
				snapshotIDs[rest.ID] = true
				failed = append(failed, rest)
			}
			break
		}

		if err := o.exportItem(ctx, item, token); err != nil {
			item.Retries++
			item.LastError = err.Error()
			if item.Retries < maxRetries {
				failed = append(failed, item)
				result.Failed++
				logging.Warn("export failed, will retry",
					logging.EntityType(string(item.Type)),
					logging.Entity(item.EntityID),
					logging.Retries(item.Retries),
					logging.Err(err),
				)
			} else {
				result.Dropped++
				o.markExportError(ctx, item)
				logging.Error("export failed, dropping item",
					logging.EntityType(string(item.Type)),
					logging.Entity(item.EntityID),
					logging.Retries(item.Retries),
					logging.Err(err),
				)
			}
		} else {
			result.Processed++
		}

		if o.delay > 0 && i < len(snapshot)-1 {
			select {
			case <-time.After(o.delay):
			case <-ctx.Done():
			}
		}
	}

	o.mu.Lock()
	o.queue = rebuildQueue(o.queue, snapshotIDs, failed)
	o.persistQueueLocked()
	o.mu.Unlock()

	logging.Info("drain pass complete",
		logging.Count(result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("dropped", result.Dropped),
	)
	return result, nil
}

// exportItem pushes one queued change to its remote service and updates
// the entity's sync metadata on success.
func (o *Orchestrator) exportItem(ctx context.Context, item Item, token string) error {
	if item.Action == ActionDelete {
		// Remote deletion is acknowledged but not propagated; the local
		// entity is already gone.
		logging.Debug("delete acknowledged without remote call",
			logging.EntityType(string(item.Type)),
			logging.Entity(item.EntityID),
		)
		return nil
	}
	if item.Entity == nil {
		return fmt.Errorf("queue item %s has no entity payload", item.ID)
	}

	adapter := o.adapters.For(item.Type)
	if adapter == nil {
		return fmt.Errorf("no adapter registered for %s", item.Type)
	}

	remoteID := ""
	if meta := item.Entity.Metadata(); meta != nil {
		remoteID = meta.ExternalID
	}
	if current, ok, err := o.entities.Get(ctx, item.Type, item.EntityID); err == nil && ok {
		if meta := current.Metadata(); meta != nil && meta.ExternalID != "" {
			remoteID = meta.ExternalID
		}
	}

	res, err := adapter.Export(ctx, *item.Entity, remoteID, token)
	if err != nil {
		return err
	}

	o.markExported(ctx, item, res.RemoteID)
	return nil
}

// markExported stamps the entity's metadata after a successful export:
// external id backfilled, status synced, lastSyncedAt refreshed.
func (o *Orchestrator) markExported(ctx context.Context, item Item, remoteID string) {
	current, ok, err := o.entities.Get(ctx, item.Type, item.EntityID)
	if err != nil || !ok {
		return
	}
	meta := current.Metadata()
	if meta == nil {
		meta = &model.SyncMetadata{
			ExternalService: model.ServiceFor(item.Type),
			Direction:       model.DirectionBidirectional,
		}
	}
	if remoteID != "" {
		meta.ExternalID = remoteID
	}
	meta.MarkSynced(o.now())
	current.SetMetadata(meta)
	if err := o.entities.Update(ctx, current); err != nil {
		logging.Warn("failed to record export metadata",
			logging.Entity(item.EntityID),
			logging.Err(err),
		)
	}
}

// markExportError stamps the entity's metadata when its item is dropped
// after exhausting retries.
func (o *Orchestrator) markExportError(ctx context.Context, item Item) {
	current, ok, err := o.entities.Get(ctx, item.Type, item.EntityID)
	if err != nil || !ok {
		return
	}
	meta := current.Metadata()
	if meta == nil {
		return
	}
	meta.Status = model.StatusError
	current.SetMetadata(meta)
	if err := o.entities.Update(ctx, current); err != nil {
		logging.Warn("failed to record export error",
			logging.Entity(item.EntityID),
			logging.Err(err),
		)
	}
}

// Status returns a redacted view of the queue: item identifiers and retry
// state, never entity payloads.
func (o *Orchestrator) Status() QueueStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := QueueStatus{
		Length:   len(o.queue),
		Draining: o.draining,
		Items:    make([]ItemStatus, 0, len(o.queue)),
	}
	for _, item := range o.queue {
		status.Items = append(status.Items, ItemStatus{
			ID:        item.ID,
			Type:      item.Type,
			Action:    item.Action,
			EntityID:  item.EntityID,
			Timestamp: item.Timestamp,
			Retries:   item.Retries,
			LastError: item.LastError,
		})
	}
	return status
}

// ClearQueue discards all pending items.
func (o *Orchestrator) ClearQueue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = nil
	o.persistQueueLocked()
}

func (o *Orchestrator) persistQueueLocked() {
	if err := o.store.SaveQueue(o.queue); err != nil {
		logging.Warn("failed to persist sync queue", logging.Err(err))
	}
}

// Conflicts returns the open conflicts ordered by detection time.
func (o *Orchestrator) Conflicts() []*Conflict {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*Conflict, 0, len(o.conflicts))
	for _, c := range o.conflicts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return out
}

// ConflictByID looks up an open conflict.
func (o *Orchestrator) ConflictByID(id string) (*Conflict, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.conflicts[id]
	return c, ok
}

// DetectConflicts fetches remote state for every enabled category and
// runs divergence detection against the local entities. Newly found
// conflicts are registered in the open set, persisted, and reflected in
// the entities' sync metadata.
func (o *Orchestrator) DetectConflicts(ctx context.Context) ([]*Conflict, error) {
	if o.tokens == nil || !o.tokens.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	cfg := o.cfg.Sync()
	var found []*Conflict

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
			return found, fmt.Errorf("fetching %s state: %w", t, err)
		}
		remoteByID := make(map[string]remote.Object, len(objects))
		for _, obj := range objects {
			if id := obj.ID(); id != "" {
				remoteByID[id] = obj
			}
		}

		entities, err := o.entities.List(ctx, t)
		if err != nil {
			return found, fmt.Errorf("listing %s entities: %w", t, err)
		}
		metaByEntity := make(map[string]*model.SyncMetadata, len(entities))
		for _, e := range entities {
			metaByEntity[e.EntityID()] = e.Metadata()
		}

		conflicts := o.detect.DetectAll(entities, remoteByID, metaByEntity)
		for _, c := range conflicts {
			o.registerConflict(ctx, c)
		}
		found = append(found, conflicts...)
	}

	return found, nil
}

// registerConflict adds a conflict to the open set, persists it, and
// flags the entity.
func (o *Orchestrator) registerConflict(ctx context.Context, c *Conflict) {
	o.mu.Lock()
	o.conflicts[c.ID] = c
	o.mu.Unlock()

	if err := o.store.SaveConflict(c); err != nil {
		logging.Warn("failed to persist conflict", logging.Conflict(c.ID), logging.Err(err))
	}

	current, ok, err := o.entities.Get(ctx, c.EntityType, c.EntityID)
	if err != nil || !ok {
		return
	}
	meta := current.Metadata()
	if meta == nil {
		return
	}
	meta.MarkConflict(c.ID)
	current.SetMetadata(meta)
	if err := o.entities.Update(ctx, current); err != nil {
		logging.Warn("failed to flag conflicted entity",
			logging.Entity(c.EntityID),
			logging.Err(err),
		)
	}
}

// ResolveConflict resolves one open conflict, applying the override
// strategy when given and the configured policy otherwise. On success the
// reconciled value is written back to the entity store, the entity's
// metadata returns to synced, the conflict leaves the open set, and the
// reconciled value is queued for export.
func (o *Orchestrator) ResolveConflict(ctx context.Context, id string, override Strategy) (*Resolution, error) {
	o.mu.Lock()
	conflict, ok := o.conflicts[id]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}

	resolution, err := o.resolve.Resolve(conflict, override)
	if err != nil {
		return nil, err
	}

	final := resolution.FinalValue.Clone()
	meta := final.Metadata()
	if meta == nil {
		meta = &model.SyncMetadata{
			ExternalService: conflict.Service,
			Direction:       model.DirectionBidirectional,
		}
	}
	meta.MarkSynced(o.now())
	final.SetMetadata(meta)

	if err := o.entities.Update(ctx, final); err != nil {
		return nil, fmt.Errorf("applying resolution: %w", err)
	}

	resolvedAt := resolution.ResolvedAt
	conflict.ResolvedAt = &resolvedAt
	conflict.Resolution = resolution

	o.mu.Lock()
	delete(o.conflicts, id)
	o.mu.Unlock()
	if err := o.store.DeleteConflict(id); err != nil {
		logging.Warn("failed to remove resolved conflict", logging.Conflict(id), logging.Err(err))
	}

	logging.Info("conflict resolved",
		logging.Conflict(id),
		logging.Entity(conflict.EntityID),
		logging.Strategy(string(resolution.Strategy)),
	)

	// The reconciled value still has to reach the remote side.
	o.Enqueue(conflict.EntityType, ActionUpdate, conflict.EntityID, &final)

	return resolution, nil
}

// AutoResolveConflicts resolves every open conflict under the configured
// policy. Conflicts whose policy is manual, or whose application fails,
// are left open; the count of resolved conflicts is returned.
func (o *Orchestrator) AutoResolveConflicts(ctx context.Context) int {
	resolved := 0
	for _, c := range o.Conflicts() {
		if _, err := o.ResolveConflict(ctx, c.ID, ""); err != nil {
			logging.Debug("conflict left open",
				logging.Conflict(c.ID),
				logging.Err(err),
			)
			continue
		}
		resolved++
	}
	return resolved
}

// categoryEnabled reports whether the configuration allows syncing the
// entity type.
func categoryEnabled(cfg config.SyncConfig, t model.EntityType) bool {
	switch t {
	case model.EntityTask:
		return cfg.SyncTasks
	case model.EntityTimeSlot:
		return cfg.SyncTimeSlots
	case model.EntityObjective:
		return cfg.SyncObjectives
	case model.EntityFriend:
		return cfg.SyncFriends
	default:
		return false
	}
}
