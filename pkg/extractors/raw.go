package extractors

import (
	"context"
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/extract"
)

// RAW extracts metadata from TIFF-based camera raw formats. All metadata
// comes from the embedded EXIF block; title and creation date fall back to
// the file itself.
type RAW struct{}

func (RAW) ExtractMetadata(ctx context.Context, info *extract.Info) error {
	f, err := os.Open(info.File().Path())
	if err != nil {
		return err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return fmt.Errorf("%w: no EXIF block: %v", errors.ErrInvalidInput, err)
	}

	res := newImageResource(info)

	if v, ok := exifInt(x, exif.PixelXDimension); ok {
		res.SetInt64("nfo:width", v)
	} else if v, ok := exifInt(x, exif.ImageWidth); ok {
		res.SetInt64("nfo:width", v)
	}
	if v, ok := exifInt(x, exif.PixelYDimension); ok {
		res.SetInt64("nfo:height", v)
	} else if v, ok := exifInt(x, exif.ImageLength); ok {
		res.SetInt64("nfo:height", v)
	}

	applyExif(res, x)

	if !res.Has("nie:title") {
		guaranteeTitle(res, info, "")
	}
	if !res.Has("nie:contentCreated") {
		guaranteeContentCreated(res, info, "")
	}

	return info.SetResource(res)
}
