package manager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/graph"
)

func setupProjects(t *testing.T, ids ...string) string {
	t.Helper()
	baseDir := t.TempDir()
	for _, id := range ids {
		dir := filepath.Join(baseDir, id)
		require.NoError(t, os.MkdirAll(dir, 0755))
		s, err := graph.Open(graph.DefaultConfig(dir))
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
	return baseDir
}

func TestGetStoreCachesInstances(t *testing.T) {
	baseDir := setupProjects(t, "p1", "p2")

	sm := NewStoreManager(baseDir, false)
	defer sm.CloseAll()

	s1, err := sm.GetStore("p1")
	require.NoError(t, err)
	require.NotNil(t, s1)

	s1Again, err := sm.GetStore("p1")
	require.NoError(t, err)
	assert.Same(t, s1, s1Again)
}

func TestGetStoreUnknownProject(t *testing.T) {
	sm := NewStoreManager(setupProjects(t), false)
	defer sm.CloseAll()

	_, err := sm.GetStore("ghost")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListProjectsCaching(t *testing.T) {
	baseDir := setupProjects(t)
	require.NoError(t, os.Mkdir(filepath.Join(baseDir, "p1"), 0755))

	sm := NewStoreManager(baseDir, false)
	defer sm.CloseAll()

	projects, err := sm.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)

	// A new project inside the TTL window is not visible yet.
	require.NoError(t, os.Mkdir(filepath.Join(baseDir, "p2"), 0755))
	projects, err = sm.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	// Expire the cache.
	sm.mu.Lock()
	sm.lastListBuild = time.Now().Add(-2 * time.Minute)
	sm.mu.Unlock()

	projects, err = sm.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}
