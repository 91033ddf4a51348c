package extract

import (
	"net/url"
	"path/filepath"
)

// Subject is a reference to the file being inspected. It carries no open
// descriptor; extractor modules open the file themselves. A carrier takes a
// durable hold on its subject so the reference stays valid for the carrier's
// whole lifetime, independent of the driver's own handle.
type Subject struct {
	path      string
	onRelease func()
}

// NewSubject creates a subject for the given filesystem path.
func NewSubject(path string) *Subject {
	return &Subject{path: path}
}

// OnRelease registers fn to run when a carrier drops its hold on the subject.
// Used by the driver to observe carrier teardown.
func (s *Subject) OnRelease(fn func()) {
	s.onRelease = fn
}

// Path returns the filesystem path of the subject.
func (s *Subject) Path() string {
	return s.path
}

// URI returns the file:// URI form of the subject path.
func (s *Subject) URI() string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		abs = s.path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func (s *Subject) released() {
	if s.onRelease != nil {
		s.onRelease()
	}
}
