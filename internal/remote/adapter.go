// Package remote defines the contract between the sync core and the
// concrete external-service adapters. The core never talks to a remote
// API directly; it only sees this package.
package remote

import (
	"context"
	"strings"

	"github.com/orbitapp/orbitsync/internal/model"
)

// Object is a raw remote entity as returned by an adapter, keyed by the
// remote service's own field names.
type Object map[string]any

// At resolves a dotted path (e.g. "start.dateTime") inside the object.
// The bool result reports whether every segment of the path was present.
func (o Object) At(path string) (any, bool) {
	var current any = map[string]any(o)
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ID returns the remote identifier of the object, or "".
func (o Object) ID() string {
	if v, ok := o["id"].(string); ok {
		return v
	}
	// Google People API uses resourceName instead of id.
	if v, ok := o["resourceName"].(string); ok {
		return v
	}
	return ""
}

// ExportResult is the outcome of a successful export call.
type ExportResult struct {
	// RemoteID is the identifier of the created or updated remote
	// counterpart.
	RemoteID string
}

// Adapter performs the actual create/update/read calls against one
// external service for one entity type. Implementations live outside the
// sync core.
type Adapter interface {
	// Export creates or updates the remote counterpart of the snapshot.
	// remoteID is the already-known external id, or "" for a first
	// export; when set, the call must be idempotent with respect to it.
	Export(ctx context.Context, snap model.Snapshot, remoteID, token string) (ExportResult, error)

	// ImportPending returns the current remote collection for
	// reconciliation.
	ImportPending(ctx context.Context, token string) ([]Object, error)
}

// TokenSource supplies authentication state to the core. The core never
// manages OAuth flows itself.
type TokenSource interface {
	// Authenticated reports whether a valid token is currently available.
	Authenticated() bool

	// Token returns an opaque bearer token for adapter calls.
	Token(ctx context.Context) (string, error)
}

// Registry maps entity types to their adapters.
type Registry map[model.EntityType]Adapter

// For returns the adapter registered for an entity type, or nil.
func (r Registry) For(t model.EntityType) Adapter {
	return r[t]
}
