package extractors

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image/jpeg"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/extract"
)

// JPEG extracts image dimensions, the COM comment segment and EXIF fields
// from JPEG files.
type JPEG struct{}

func (JPEG) ExtractMetadata(ctx context.Context, info *extract.Info) error {
	data, err := os.ReadFile(info.File().Path())
	if err != nil {
		return err
	}
	if len(data) < 18 {
		return fmt.Errorf("%w: file too small to be a JPEG", errors.ErrInvalidInput)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	res := newImageResource(info)
	res.SetInt64("nfo:width", int64(cfg.Width))
	res.SetInt64("nfo:height", int64(cfg.Height))

	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		applyExif(res, x)
	}

	if comment := jpegComment(data); comment != "" && !res.Has("nie:comment") {
		res.SetString("nie:comment", comment)
	}

	if !res.Has("nie:title") {
		guaranteeTitle(res, info, "")
	}
	if !res.Has("nie:contentCreated") {
		guaranteeContentCreated(res, info, "")
	}

	if profile, mime, ok := jpegDLNAProfile(cfg.Width, cfg.Height); ok {
		res.SetString("nmm:dlnaProfile", profile)
		res.SetString("nmm:dlnaMime", mime)
	}

	return info.SetResource(res)
}

// jpegComment scans the marker segments before start-of-scan for a COM
// (0xFFFE) segment and returns its payload.
func jpegComment(data []byte) string {
	// Skip SOI.
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return ""
	}
	rest := data[2:]
	for len(rest) >= 4 {
		if rest[0] != 0xFF {
			return ""
		}
		// Fill bytes are allowed between segments.
		for len(rest) >= 4 && rest[1] == 0xFF {
			rest = rest[1:]
		}
		if len(rest) < 4 || rest[1] == 0xFF {
			return ""
		}
		marker := rest[1]
		if marker == 0xDA || marker == 0xD9 { // SOS / EOI
			return ""
		}
		length := int(binary.BigEndian.Uint16(rest[2:4]))
		if length < 2 || len(rest) < 2+length {
			return ""
		}
		if marker == 0xFE {
			return string(rest[4 : 2+length])
		}
		rest = rest[2+length:]
	}
	return ""
}

func jpegDLNAProfile(width, height int) (string, string, bool) {
	var profile string
	switch {
	case width <= 640 && height <= 480:
		profile = "JPEG_SM"
	case width <= 1024 && height <= 768:
		profile = "JPEG_MED"
	case width <= 4096 && height <= 4096:
		profile = "JPEG_LRG"
	default:
		return "", "", false
	}
	return profile, "image/jpeg", true
}
