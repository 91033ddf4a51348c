// Package extractors holds the format-specific modules the driver
// dispatches to by mimetype. Every module reads the subject file, builds a
// resource rooted at the carrier's content id and attaches it.
package extractors

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"fsminer/pkg/extract"
	"fsminer/pkg/resource"
)

// newImageResource builds the root resource shared by the image modules.
func newImageResource(info *extract.Info) *resource.Resource {
	res := resource.New(info.ContentID(""))
	res.AddType("nfo:Image")
	res.AddType("nmm:Photo")
	return res
}

// guaranteeTitle sets nie:title from the explicit value, falling back to
// the file name without extension.
func guaranteeTitle(res *resource.Resource, info *extract.Info, title string) {
	if title == "" {
		base := filepath.Base(info.File().Path())
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title != "" {
		res.SetString("nie:title", title)
	}
}

// guaranteeContentCreated sets nie:contentCreated from the explicit ISO
// date, falling back to the file's modification time.
func guaranteeContentCreated(res *resource.Resource, info *extract.Info, date string) {
	if date != "" {
		res.SetString("nie:contentCreated", date)
		return
	}
	if fi, err := os.Stat(info.File().Path()); err == nil {
		res.SetTime("nie:contentCreated", fi.ModTime())
	}
}

// truncateText clamps s to at most max bytes without splitting a UTF-8
// sequence at the cut. Bytes before the cut are kept as read, valid UTF-8
// or not. A max of zero means no text may be embedded.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for i := len(s) - 1; i >= 0 && len(s)-i < utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(s[i:]); r == utf8.RuneError {
			s = s[:i]
		}
		break
	}
	return s
}

// isoDate formats t in the ISO 8601 form used across resource properties.
func isoDate(t time.Time) string {
	return t.Format(time.RFC3339)
}
