package extract

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
)

// ErrNoModule is returned by Lookup when no module handles a mimetype.
var ErrNoModule = stderrors.New("extract: no module for mimetype")

// Module is the interface implemented by format-specific extractors. A
// module reads the carrier's identity fields, inspects the subject file and
// attaches exactly one result resource via SetResource.
type Module interface {
	ExtractMetadata(ctx context.Context, info *Info) error
}

// Registry maps mimetypes to extractor modules. A module may be registered
// under an exact type ("image/png") or a wildcard family ("image/*").
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register binds a module to a mimetype. Later registrations for the same
// mimetype replace earlier ones.
func (r *Registry) Register(mimetype string, m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[mimetype] = m
}

// Lookup resolves the module for a mimetype: exact match first, then the
// "family/*" wildcard. A failed lookup suggests the closest registered
// mimetype in the error when one is reasonably near.
func (r *Registry) Lookup(mimetype string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.modules[mimetype]; ok {
		return m, nil
	}
	if family, _, ok := strings.Cut(mimetype, "/"); ok {
		if m, ok := r.modules[family+"/*"]; ok {
			return m, nil
		}
	}

	if suggestion := r.closest(mimetype); suggestion != "" {
		return nil, fmt.Errorf("%w: %q (closest handled type: %s)", ErrNoModule, mimetype, suggestion)
	}
	return nil, fmt.Errorf("%w: %q", ErrNoModule, mimetype)
}

// Mimetypes returns the registered mimetypes, wildcards included.
func (r *Registry) Mimetypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.modules))
	for mt := range r.modules {
		types = append(types, mt)
	}
	return types
}

func (r *Registry) closest(mimetype string) string {
	best := ""
	bestDist := 5 // beyond this the suggestion is noise
	for mt := range r.modules {
		if d := levenshtein.Distance(mimetype, mt, nil); d < bestDist {
			best, bestDist = mt, d
		}
	}
	return best
}
