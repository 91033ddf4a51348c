package extractors

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsminer/pkg/extract"
)

// encodeJPEG renders an image and optionally splices a COM segment right
// after SOI.
func encodeJPEG(t *testing.T, width, height int, comment string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	data := buf.Bytes()

	if comment == "" {
		return data
	}

	seg := []byte{0xFF, 0xFE}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(comment)+2))
	seg = append(seg, comment...)

	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	out = append(out, data[2:]...)
	return out
}

func TestJPEGDimensionsAndTypes(t *testing.T) {
	path := writeTempFile(t, "photo.jpeg", encodeJPEG(t, 320, 240, ""))
	info := runModule(t, JPEG{}, path, "image/jpeg")

	res := info.Resource()
	require.NotNil(t, res)
	assert.Contains(t, res.Types(), "nfo:Image")
	assert.Contains(t, res.Types(), "nmm:Photo")

	w, _ := res.First("nfo:width")
	h, _ := res.First("nfo:height")
	assert.Equal(t, int64(320), w)
	assert.Equal(t, int64(240), h)
}

func TestJPEGComment(t *testing.T) {
	path := writeTempFile(t, "photo.jpeg", encodeJPEG(t, 64, 64, "low tide"))
	info := runModule(t, JPEG{}, path, "image/jpeg")

	comment, ok := info.Resource().First("nie:comment")
	require.True(t, ok)
	assert.Equal(t, "low tide", comment)
}

func TestJPEGDLNAProfiles(t *testing.T) {
	cases := []struct {
		width, height int
		profile       string
	}{
		{640, 480, "JPEG_SM"},
		{1024, 768, "JPEG_MED"},
		{2048, 1536, "JPEG_LRG"},
	}
	for _, tc := range cases {
		path := writeTempFile(t, "img.jpeg", encodeJPEG(t, tc.width, tc.height, ""))
		info := runModule(t, JPEG{}, path, "image/jpeg")
		profile, ok := info.Resource().First("nmm:dlnaProfile")
		require.True(t, ok)
		assert.Equal(t, tc.profile, profile)
		mime, _ := info.Resource().First("nmm:dlnaMime")
		assert.Equal(t, "image/jpeg", mime)
	}
}

func TestJPEGFallbacks(t *testing.T) {
	path := writeTempFile(t, "beach.jpeg", encodeJPEG(t, 32, 32, ""))
	info := runModule(t, JPEG{}, path, "image/jpeg")

	title, _ := info.Resource().First("nie:title")
	assert.Equal(t, "beach", title)
	assert.True(t, info.Resource().Has("nie:contentCreated"))
}

func TestJPEGRejectsGarbage(t *testing.T) {
	path := writeTempFile(t, "noise.jpeg", bytes.Repeat([]byte{0xAB}, 64))
	info, err := extract.New(extract.NewSubject(path), "id", "image/jpeg", "", 0)
	require.NoError(t, err)
	defer info.Unref()

	assert.Error(t, JPEG{}.ExtractMetadata(context.Background(), info))
}

func TestJPEGCommentScanner(t *testing.T) {
	assert.Equal(t, "", jpegComment([]byte{0xFF, 0xD8}))
	assert.Equal(t, "", jpegComment(nil))

	data := encodeJPEG(t, 8, 8, "hello")
	assert.Equal(t, "hello", jpegComment(data))
}

func TestJPEGCommentSkipsFillBytes(t *testing.T) {
	data := encodeJPEG(t, 8, 8, "")

	// Fill bytes are legal padding in front of any marker.
	seg := []byte{0xFF, 0xFF, 0xFF, 0xFE}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len("padded")+2))
	seg = append(seg, "padded"...)

	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	out = append(out, data[2:]...)
	assert.Equal(t, "padded", jpegComment(out))
}
