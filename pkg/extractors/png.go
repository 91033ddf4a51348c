package extractors

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/extract"
)

// rfc1123DateLayout matches the "Creation Time" text chunk convention,
// e.g. "22 May 1997 18:07:10 -0600".
const rfc1123DateLayout = "2 January 2006 15:04:05 -0700"

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNG extracts image dimensions, textual chunks and a DLNA profile guess
// from PNG files.
type PNG struct{}

type pngData struct {
	width    int64
	height   int64
	bitDepth int
	text     map[string]string
}

func (PNG) ExtractMetadata(ctx context.Context, info *extract.Info) error {
	data, err := os.ReadFile(info.File().Path())
	if err != nil {
		return err
	}
	if len(data) < 64 {
		return fmt.Errorf("%w: file too small to be a PNG", errors.ErrInvalidInput)
	}

	pd, err := parsePNG(data)
	if err != nil {
		return err
	}

	res := newImageResource(info)
	res.SetInt64("nfo:width", pd.width)
	res.SetInt64("nfo:height", pd.height)

	var creationTime string
	if v := pd.text["Creation Time"]; v != "" {
		if t, err := time.Parse(rfc1123DateLayout, v); err == nil {
			creationTime = isoDate(t)
		}
	}
	if v := pd.text["Comment"]; v != "" {
		res.SetString("nie:comment", v)
	}
	if v := pd.text["Disclaimer"]; v != "" {
		res.SetString("nie:license", v)
	}
	if v := pd.text["Description"]; v != "" {
		res.SetString("nie:description", v)
	}
	if v := pd.text["Copyright"]; v != "" {
		res.SetString("nie:copyright", v)
	}
	if creator := firstNonEmpty(pd.text["Creator"], pd.text["Author"]); creator != "" {
		res.SetRelation("nco:creator", newContact(creator))
	}
	if pd.text["Software"] == "gnome-screenshot" {
		res.AddURI("nie:isLogicalPartOf", "nfo:image-category-screenshot")
	}

	guaranteeTitle(res, info, pd.text["Title"])
	guaranteeContentCreated(res, info, creationTime)

	if profile, mime, ok := pngDLNAProfile(pd.bitDepth, pd.width, pd.height); ok {
		res.SetString("nmm:dlnaProfile", profile)
		res.SetString("nmm:dlnaMime", mime)
	}

	return info.SetResource(res)
}

// parsePNG walks the chunk stream collecting IHDR and the tEXt/iTXt pairs.
func parsePNG(data []byte) (*pngData, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("%w: not a PNG stream", errors.ErrInvalidInput)
	}
	pd := &pngData{text: make(map[string]string)}
	rest := data[len(pngSignature):]
	sawIHDR := false

	for len(rest) >= 8 {
		length := binary.BigEndian.Uint32(rest[:4])
		ctype := string(rest[4:8])
		// length + type + payload + crc
		total := 8 + uint64(length) + 4
		if uint64(len(rest)) < total {
			return nil, fmt.Errorf("%w: truncated PNG chunk %s", errors.ErrInvalidInput, ctype)
		}
		payload := rest[8 : 8+length]

		switch ctype {
		case "IHDR":
			if len(payload) < 13 {
				return nil, fmt.Errorf("%w: short IHDR", errors.ErrInvalidInput)
			}
			pd.width = int64(binary.BigEndian.Uint32(payload[0:4]))
			pd.height = int64(binary.BigEndian.Uint32(payload[4:8]))
			pd.bitDepth = int(payload[8])
			sawIHDR = true
		case "tEXt":
			if key, val, ok := bytes.Cut(payload, []byte{0}); ok && len(val) > 0 {
				pd.text[string(key)] = string(val)
			}
		case "iTXt":
			if key, val, ok := parseITXt(payload); ok {
				pd.text[key] = val
			}
		case "IEND":
			if !sawIHDR {
				return nil, fmt.Errorf("%w: PNG stream has no IHDR", errors.ErrInvalidInput)
			}
			return pd, nil
		}

		rest = rest[total:]
	}
	return nil, fmt.Errorf("%w: PNG stream has no IEND", errors.ErrInvalidInput)
}

// parseITXt handles uncompressed international text chunks:
// keyword 0 compflag compmethod lang 0 translated 0 text.
func parseITXt(payload []byte) (string, string, bool) {
	key, rest, ok := bytes.Cut(payload, []byte{0})
	if !ok || len(rest) < 2 {
		return "", "", false
	}
	if rest[0] != 0 { // compressed, not handled
		return "", "", false
	}
	rest = rest[2:]
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return "", "", false
	}
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return "", "", false
	}
	if len(rest) == 0 {
		return "", "", false
	}
	return string(key), string(rest), true
}

func pngDLNAProfile(depth int, width, height int64) (string, string, bool) {
	var profile string
	switch {
	case width == 120 && height == 120:
		profile = "PNG_LRG_ICO"
	case width == 48 && height == 48:
		profile = "PNG_SM_ICO"
	case width <= 160 && height <= 160:
		profile = "PNG_TN"
	case depth <= 32 && width <= 4096 && height <= 4096:
		profile = "PNG_LRG"
	default:
		return "", "", false
	}
	return profile, "image/png", true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
