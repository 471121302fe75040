// Package batch maps batch names onto isolated stores. Every batch owns its
// own database, so rosters, matches and history never mix across cohorts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gosimple/slug"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/config"
	"github.com/mauv0809/chess-club/internal/database"
	"github.com/mauv0809/chess-club/internal/ledger"
	"github.com/mauv0809/chess-club/internal/roster"
)

const (
	filePrefix = "batch_"
	fileSuffix = ".db"
)

// NewRegistry creates a Registry backed by local files in cfg.DataDir, or by
// remote libSQL databases when cfg.Turso.URLTemplate is set.
func NewRegistry(cfg config.Config) *Registry {
	return &Registry{
		dataDir:     cfg.DataDir,
		urlTemplate: cfg.Turso.URLTemplate,
		authToken:   cfg.Turso.AuthToken,
		handles:     make(map[string]*Handle),
	}
}

// Key derives the store key of a batch name.
func Key(name string) (string, error) {
	key := slug.Make(strings.TrimSpace(name))
	if key == "" {
		return "", fmt.Errorf("%w: batch name %q has no usable characters", club.ErrValidation, name)
	}
	return key, nil
}

func (r *Registry) remote() bool {
	return r.urlTemplate != ""
}

func (r *Registry) path(key string) string {
	return filepath.Join(r.dataDir, filePrefix+key+fileSuffix)
}

// Open returns the handle of an existing batch. Local batches must have been
// created first; remote databases are provisioned outside this service.
func (r *Registry) Open(ctx context.Context, name string) (*Handle, error) {
	return r.open(ctx, name, false)
}

// Create opens the batch, creating and migrating its store when missing.
func (r *Registry) Create(ctx context.Context, name string) (*Handle, error) {
	return r.open(ctx, name, true)
}

func (r *Registry) open(ctx context.Context, name string, create bool) (*Handle, error) {
	key, err := Key(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[key]; ok {
		return h, nil
	}

	dbPath, primaryURL := r.path(key), ""
	if r.remote() {
		primaryURL = fmt.Sprintf(r.urlTemplate, key)
	} else {
		_, err := os.Stat(dbPath)
		switch {
		case errors.Is(err, os.ErrNotExist) && !create:
			return nil, fmt.Errorf("batch %q: %w", key, club.ErrNotFound)
		case errors.Is(err, os.ErrNotExist):
			if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir %s: %w", r.dataDir, err)
			}
		case err != nil:
			return nil, fmt.Errorf("failed to stat batch %q: %w", key, err)
		}
	}

	db, teardown, err := database.InitDB(dbPath, primaryURL, r.authToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch %q: %w", key, err)
	}
	if err := db.PingContext(ctx); err != nil {
		teardown()
		return nil, fmt.Errorf("failed to reach batch %q: %w", key, err)
	}

	h := &Handle{
		ID:       strings.TrimSpace(name),
		Key:      key,
		DB:       db,
		Roster:   roster.New(db),
		Ledger:   ledger.New(db, key),
		teardown: teardown,
	}
	r.handles[key] = h
	log.Info("Opened batch", "batch", key, "remote", r.remote(), "created", create)
	return h, nil
}

// List returns the keys of the known batches, sorted. Local batches are
// discovered from the data dir; for remote stores only the batches opened
// by this process are known.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.handles))
	for key := range r.handles {
		seen[key] = struct{}{}
	}

	if !r.remote() {
		files, err := filepath.Glob(filepath.Join(r.dataDir, filePrefix+"*"+fileSuffix))
		if err != nil {
			return nil, fmt.Errorf("failed to scan data dir: %w", err)
		}
		for _, f := range files {
			key := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(f), filePrefix), fileSuffix)
			if key != "" {
				seen[key] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes every open batch store.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, h := range r.handles {
		h.teardown()
		delete(r.handles, key)
	}
}
