package extractors

import "fsminer/pkg/extract"

// rawMimetypes are the TIFF-based formats served by the RAW module.
var rawMimetypes = []string{
	"image/tiff",
	"image/x-canon-cr2",
	"image/x-nikon-nef",
	"image/x-sony-arw",
	"image/x-adobe-dng",
	"image/x-panasonic-raw",
	"image/x-pentax-pef",
	"image/x-olympus-orf",
}

// DefaultRegistry returns a registry with every built-in module bound to
// its mimetypes.
func DefaultRegistry() *extract.Registry {
	r := extract.NewRegistry()
	r.Register("image/png", PNG{})
	r.Register("image/jpeg", JPEG{})
	r.Register("image/gif", GIF{})
	for _, mt := range rawMimetypes {
		r.Register(mt, RAW{})
	}
	r.Register("text/plain", Text{})
	r.Register("text/*", Text{})
	return r
}
