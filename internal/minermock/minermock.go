// Package minermock is a test double for the pause/resume coordination
// protocol between the indexing service instances. It models two named
// endpoints: Mock1 starts running, Mock2 starts paused. Nothing in the
// extraction pipeline depends on this package; it exists so status-level
// tests have a second collaborator to talk to.
package minermock

import (
	"fmt"
	"sync"

	"fsminer/pkg/common/errors"
)

const (
	Miner1 = "org.fsminer.Miner.Mock1"
	Miner2 = "org.fsminer.Miner.Mock2"
)

type pause struct {
	cookie int
	reason string
}

// Mock holds the in-memory state of the two miner endpoints.
type Mock struct {
	mu         sync.Mutex
	nextCookie int
	paused     map[string][]pause
}

// New returns the mock in its initial state: Mock1 running, Mock2 paused.
func New() *Mock {
	m := &Mock{
		nextCookie: 1,
		paused:     map[string][]pause{Miner1: nil, Miner2: nil},
	}
	m.paused[Miner2] = []pause{{cookie: 0, reason: "initial"}}
	return m
}

// Miners lists the known endpoints.
func (m *Mock) Miners() []string {
	return []string{Miner1, Miner2}
}

// Pause suspends a miner and returns the cookie needed to resume that
// particular pause. A miner stays paused while any cookie is outstanding.
func (m *Mock) Pause(miner, reason string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.paused[miner]; !ok {
		return 0, fmt.Errorf("%w: miner %s", errors.ErrNotFound, miner)
	}
	cookie := m.nextCookie
	m.nextCookie++
	m.paused[miner] = append(m.paused[miner], pause{cookie: cookie, reason: reason})
	return cookie, nil
}

// Resume drops the pause identified by cookie. Resuming an unknown cookie
// is an error; resuming the same cookie twice is, too.
func (m *Mock) Resume(miner string, cookie int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pauses, ok := m.paused[miner]
	if !ok {
		return fmt.Errorf("%w: miner %s", errors.ErrNotFound, miner)
	}
	for i, p := range pauses {
		if p.cookie == cookie {
			m.paused[miner] = append(pauses[:i], pauses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: pause cookie %d", errors.ErrNotFound, cookie)
}

// IsPaused reports whether a miner currently holds any pause.
func (m *Mock) IsPaused(miner string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paused[miner]) > 0
}

// PauseReasons returns the reasons of the outstanding pauses for a miner.
func (m *Mock) PauseReasons(miner string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reasons []string
	for _, p := range m.paused[miner] {
		reasons = append(reasons, p.reason)
	}
	return reasons
}
