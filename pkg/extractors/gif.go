package extractors

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"os"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/extract"
)

// GIF extracts logical screen dimensions and the comment extension block
// from GIF files.
type GIF struct{}

func (GIF) ExtractMetadata(ctx context.Context, info *extract.Info) error {
	data, err := os.ReadFile(info.File().Path())
	if err != nil {
		return err
	}

	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	res := newImageResource(info)
	res.SetInt64("nfo:width", int64(cfg.Width))
	res.SetInt64("nfo:height", int64(cfg.Height))

	if comment := gifComment(data); comment != "" {
		res.SetString("nie:comment", comment)
	}

	guaranteeTitle(res, info, "")
	guaranteeContentCreated(res, info, "")

	return info.SetResource(res)
}

// gifComment walks the GIF block stream and returns the first comment
// extension (0x21 0xFE) payload.
func gifComment(data []byte) string {
	if len(data) < 13 || (!bytes.HasPrefix(data, []byte("GIF87a")) && !bytes.HasPrefix(data, []byte("GIF89a"))) {
		return ""
	}

	// Logical screen descriptor, then the global color table if flagged.
	packed := data[10]
	pos := 13
	if packed&0x80 != 0 {
		pos += 3 * (2 << (packed & 0x07))
	}

	for pos < len(data) {
		switch data[pos] {
		case 0x3B: // trailer
			return ""
		case 0x21: // extension
			if pos+2 > len(data) {
				return ""
			}
			label := data[pos+1]
			pos += 2
			var comment []byte
			for pos < len(data) && data[pos] != 0 {
				size := int(data[pos])
				if pos+1+size > len(data) {
					return ""
				}
				if label == 0xFE {
					comment = append(comment, data[pos+1:pos+1+size]...)
				}
				pos += 1 + size
			}
			pos++ // block terminator
			if label == 0xFE && len(comment) > 0 {
				return string(comment)
			}
		case 0x2C: // image descriptor
			if pos+10 > len(data) {
				return ""
			}
			packed := data[pos+9]
			pos += 10
			if packed&0x80 != 0 {
				pos += 3 * (2 << (packed & 0x07))
			}
			pos++ // LZW minimum code size
			for pos < len(data) && data[pos] != 0 {
				pos += 1 + int(data[pos])
			}
			pos++
		default:
			return ""
		}
	}
	return ""
}
