package cli

import (
	"fmt"

	"github.com/orbitapp/orbitsync/internal/config"
	"github.com/orbitapp/orbitsync/internal/remote/google"
	"github.com/orbitapp/orbitsync/internal/store"
	"github.com/orbitapp/orbitsync/internal/sync"
	"github.com/orbitapp/orbitsync/internal/util"
)

// env bundles the long-lived pieces a command needs: configuration, the
// local database, and the sync orchestrator wired to the Google adapters.
type env struct {
	cfg   *config.Store
	store *store.SQLite
	auth  *google.Auth
	orch  *sync.Orchestrator
}

// newEnv opens the configuration and database under ~/.orbitsync and
// builds the orchestrator around them.
func newEnv() (*env, error) {
	if err := util.EnsureConfigDir(); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	cfg := config.NewStore(util.ConfigFilePath())

	db, err := store.Open(util.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	auth := google.NewAuth(util.OAuthClientPath(), util.TokenPath())

	orch, err := sync.NewOrchestrator(sync.Options{
		Config:   cfg,
		Store:    db,
		Entities: db,
		Adapters: google.NewRegistry(),
		Tokens:   auth,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &env{cfg: cfg, store: db, auth: auth, orch: orch}, nil
}

// close releases the environment's resources.
func (e *env) close() {
	e.orch.Close()
	if err := e.store.Close(); err != nil {
		fmt.Printf("Warning: closing database: %v\n", err)
	}
}
