// Package extract defines the carrier threaded through the metadata
// extraction pipeline. The driver constructs one Info per extraction
// attempt, hands it to the module matching the file's mimetype, and the
// persistence layer reads the attached resource once the module is done.
// The carrier itself does no extraction; it is a reference-counted envelope
// whose identity fields are fixed at construction.
package extract

import (
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/resource"
)

// ErrResourceAttached is returned by SetResource when a result resource has
// already been attached. The first attach wins; a second attach is a module
// bug, not a replace operation.
var ErrResourceAttached = stderrors.New("extract: resource already attached")

// Info carries the identity of one file-extraction attempt and, once a
// module has run, its result resource.
//
// Identity fields are immutable after construction and safe to read from
// any goroutine holding a reference. The reference count is the only
// concurrency-sensitive state: every holder must pair one Ref with one
// Unref, and the count reaching zero tears the carrier down exactly once.
type Info struct {
	subject   *Subject
	contentID string
	mimetype  string
	graph     string
	maxText   int

	res  atomic.Pointer[resource.Resource]
	refs atomic.Int32
}

// New creates a carrier with a reference count of 1 and no attached result.
// The subject and a non-empty content id are required; mimetype and graph
// may be empty when unknown.
func New(subject *Subject, contentID, mimetype, graph string, maxText int) (*Info, error) {
	if subject == nil || subject.path == "" {
		return nil, fmt.Errorf("%w: extraction subject is required", errors.ErrInvalidInput)
	}
	if contentID == "" {
		return nil, fmt.Errorf("%w: content id is required", errors.ErrInvalidInput)
	}
	if maxText < 0 {
		return nil, fmt.Errorf("%w: max text must be non-negative", errors.ErrInvalidInput)
	}

	info := &Info{
		subject:   subject,
		contentID: contentID,
		mimetype:  mimetype,
		graph:     graph,
		maxText:   maxText,
	}
	info.refs.Store(1)
	return info, nil
}

// Ref takes an additional reference and returns the same carrier.
func (i *Info) Ref() *Info {
	if i.refs.Add(1) <= 1 {
		panic("extract: Ref on a destroyed Info")
	}
	return i
}

// Unref drops one reference. The holder that drops the last reference
// releases the subject hold and the carrier's share of the attached
// resource; that transition happens exactly once even under concurrent
// Unref calls.
func (i *Info) Unref() {
	n := i.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("extract: unbalanced Unref")
	}
	i.res.Store(nil)
	i.subject.released()
}

func (i *Info) live() {
	if i.refs.Load() <= 0 {
		panic("extract: use of destroyed Info")
	}
}

// File returns the subject under extraction. Never nil for a live carrier.
func (i *Info) File() *Subject {
	i.live()
	return i.subject
}

// ContentID returns the carrier's content id, or with a non-empty suffix a
// stable derived id for a logical sub-resource of the same file, e.g.
// ContentID("track-3") for one track inside an audio container.
func (i *Info) ContentID(suffix string) string {
	i.live()
	if suffix == "" {
		return i.contentID
	}
	return i.contentID + "/" + suffix
}

// Mimetype returns the advisory mimetype; empty when unknown at construction.
func (i *Info) Mimetype() string {
	i.live()
	return i.mimetype
}

// Graph returns the target graph partition for the eventual store write;
// may be empty.
func (i *Info) Graph() string {
	i.live()
	return i.graph
}

// MaxText returns the upper bound on embedded text. Modules are expected to
// honor it; the carrier does not enforce it.
func (i *Info) MaxText() int {
	i.live()
	return i.maxText
}

// Resource returns the attached result resource, or nil if no module has
// attached one yet.
func (i *Info) Resource() *resource.Resource {
	i.live()
	return i.res.Load()
}

// SetResource attaches the module's result. The slot is exchange-once: the
// first call wins and any later call fails with ErrResourceAttached.
func (i *Info) SetResource(r *resource.Resource) error {
	i.live()
	if r == nil {
		return fmt.Errorf("%w: nil resource", errors.ErrInvalidInput)
	}
	if !i.res.CompareAndSwap(nil, r) {
		return ErrResourceAttached
	}
	return nil
}
