// Package manager keeps a bounded set of project stores open. Each project
// is one directory under the data root holding a Badger quad store; the
// REST API and the status CLI go through the manager instead of opening
// stores directly.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/graph"
)

// ProjectMetadata is the project information exposed by the API.
type ProjectMetadata struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const (
	MaxOpenStores  = 10
	ProjectListTTL = 1 * time.Minute
)

// StoreManager opens project stores on demand and keeps the most recently
// used ones cached; eviction closes the store.
type StoreManager struct {
	baseDir  string
	readOnly bool

	stores *lru.Cache[string, *graph.Store]

	mu            sync.RWMutex
	cachedList    []ProjectMetadata
	lastListBuild time.Time
}

// NewStoreManager creates a manager rooted at baseDir.
func NewStoreManager(baseDir string, readOnly bool) *StoreManager {
	cache, _ := lru.NewWithEvict[string, *graph.Store](MaxOpenStores, func(key string, s *graph.Store) {
		_ = s.Close()
	})
	return &StoreManager{
		baseDir:  baseDir,
		readOnly: readOnly,
		stores:   cache,
	}
}

// GetStore returns the store for a project, opening it if necessary.
func (sm *StoreManager) GetStore(projectID string) (*graph.Store, error) {
	if s, ok := sm.stores.Get(projectID); ok {
		return s, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.stores.Get(projectID); ok {
		return s, nil
	}

	projectDir := filepath.Join(sm.baseDir, projectID)
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: project %s", errors.ErrNotFound, projectID)
	}

	cfg := graph.DefaultConfig(projectDir)
	cfg.ReadOnly = sm.readOnly
	// Allow inspecting a store an indexing run still holds open.
	cfg.BypassLockGuard = sm.readOnly

	s, err := graph.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store for project %s: %w", projectID, err)
	}

	sm.stores.Add(projectID, s)
	return s, nil
}

// ListProjects lists the project directories under the data root. The list
// is cached for a short TTL since the API polls it.
func (sm *StoreManager) ListProjects() ([]ProjectMetadata, error) {
	sm.mu.RLock()
	if time.Since(sm.lastListBuild) < ProjectListTTL && sm.cachedList != nil {
		list := make([]ProjectMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		sm.mu.RUnlock()
		return list, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastListBuild) < ProjectListTTL && sm.cachedList != nil {
		list := make([]ProjectMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		return list, nil
	}

	entries, err := os.ReadDir(sm.baseDir)
	if err != nil {
		return nil, err
	}

	var projects []ProjectMetadata
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, ProjectMetadata{ID: entry.Name(), Name: entry.Name()})
		}
	}

	sm.cachedList = projects
	sm.lastListBuild = time.Now()
	return projects, nil
}

// CloseAll closes every open store.
func (sm *StoreManager) CloseAll() {
	sm.stores.Purge()
}
