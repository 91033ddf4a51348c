package extractors

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/extract"
)

// encodePNG renders a width x height image and splices the given tEXt
// chunks in before IEND.
func encodePNG(t *testing.T, width, height int, text map[string]string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	data := buf.Bytes()

	if len(text) == 0 {
		return data
	}

	iend := bytes.Index(data, []byte("IEND"))
	require.Greater(t, iend, 0)
	cut := iend - 4 // back up over the length field

	var chunks bytes.Buffer
	for key, val := range text {
		payload := append(append([]byte(key), 0), []byte(val)...)
		binary.Write(&chunks, binary.BigEndian, uint32(len(payload)))
		chunks.WriteString("tEXt")
		chunks.Write(payload)
		crc := crc32.NewIEEE()
		crc.Write([]byte("tEXt"))
		crc.Write(payload)
		binary.Write(&chunks, binary.BigEndian, crc.Sum32())
	}

	out := append([]byte{}, data[:cut]...)
	out = append(out, chunks.Bytes()...)
	out = append(out, data[cut:]...)
	return out
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func runModule(t *testing.T, m extract.Module, path, mimetype string) *extract.Info {
	t.Helper()
	info, err := extract.New(extract.NewSubject(path), "urn:uuid:test", mimetype, "photos", 1024)
	require.NoError(t, err)
	t.Cleanup(info.Unref)
	require.NoError(t, m.ExtractMetadata(context.Background(), info))
	return info
}

func TestPNGDimensionsAndTypes(t *testing.T) {
	path := writeTempFile(t, "shot.png", encodePNG(t, 200, 100, nil))
	info := runModule(t, PNG{}, path, "image/png")

	res := info.Resource()
	require.NotNil(t, res)
	assert.Equal(t, "urn:uuid:test", res.Identifier())
	assert.Contains(t, res.Types(), "nfo:Image")
	assert.Contains(t, res.Types(), "nmm:Photo")

	w, _ := res.First("nfo:width")
	h, _ := res.First("nfo:height")
	assert.Equal(t, int64(200), w)
	assert.Equal(t, int64(100), h)
}

func TestPNGTextChunks(t *testing.T) {
	data := encodePNG(t, 64, 64, map[string]string{
		"Title":       "Sunset",
		"Author":      "Ada",
		"Comment":     "from the pier",
		"Copyright":   "CC-BY",
		"Description": "evening light",
	})
	path := writeTempFile(t, "sunset.png", data)
	info := runModule(t, PNG{}, path, "image/png")

	res := info.Resource()
	require.NotNil(t, res)

	title, _ := res.First("nie:title")
	assert.Equal(t, "Sunset", title)
	comment, _ := res.First("nie:comment")
	assert.Equal(t, "from the pier", comment)
	copyright, _ := res.First("nie:copyright")
	assert.Equal(t, "CC-BY", copyright)
	desc, _ := res.First("nie:description")
	assert.Equal(t, "evening light", desc)

	creator := res.FirstRelation("nco:creator")
	require.NotNil(t, creator)
	name, _ := creator.First("nco:fullname")
	assert.Equal(t, "Ada", name)
}

func TestPNGCreationTimeParsed(t *testing.T) {
	data := encodePNG(t, 64, 64, map[string]string{
		"Creation Time": "22 May 2007 18:07:10 +0000",
	})
	path := writeTempFile(t, "dated.png", data)
	info := runModule(t, PNG{}, path, "image/png")

	created, ok := info.Resource().First("nie:contentCreated")
	require.True(t, ok)
	assert.Equal(t, "2007-05-22T18:07:10Z", created)
}

func TestPNGScreenshotCategory(t *testing.T) {
	data := encodePNG(t, 64, 64, map[string]string{"Software": "gnome-screenshot"})
	path := writeTempFile(t, "screen.png", data)
	info := runModule(t, PNG{}, path, "image/png")

	v, ok := info.Resource().First("nie:isLogicalPartOf")
	require.True(t, ok)
	assert.Equal(t, "nfo:image-category-screenshot", v)
}

func TestPNGDLNAProfiles(t *testing.T) {
	cases := []struct {
		width, height int
		profile       string
	}{
		{120, 120, "PNG_LRG_ICO"},
		{48, 48, "PNG_SM_ICO"},
		{150, 150, "PNG_TN"},
		{800, 600, "PNG_LRG"},
	}
	for _, tc := range cases {
		path := writeTempFile(t, "img.png", encodePNG(t, tc.width, tc.height, nil))
		info := runModule(t, PNG{}, path, "image/png")
		profile, ok := info.Resource().First("nmm:dlnaProfile")
		require.True(t, ok, "no profile for %dx%d", tc.width, tc.height)
		assert.Equal(t, tc.profile, profile)
	}
}

func TestPNGTitleFallsBackToFileName(t *testing.T) {
	path := writeTempFile(t, "holiday-2024.png", encodePNG(t, 32, 32, nil))
	info := runModule(t, PNG{}, path, "image/png")

	title, _ := info.Resource().First("nie:title")
	assert.Equal(t, "holiday-2024", title)
}

func TestPNGTruncatedChunkCRCReturnsError(t *testing.T) {
	// A download cut off inside a chunk's CRC: the payload is complete,
	// the trailing 4 CRC bytes are not.
	data := encodePNG(t, 8, 8, nil)
	iend := bytes.Index(data, []byte("IEND"))
	require.Greater(t, iend, 0)
	data = data[:iend-4]

	payload := append(append([]byte("Comment"), 0), "cut short"...)
	var chunk bytes.Buffer
	binary.Write(&chunk, binary.BigEndian, uint32(len(payload)))
	chunk.WriteString("tEXt")
	chunk.Write(payload)
	chunk.Write([]byte{0xAA, 0xBB}) // half a CRC
	data = append(data, chunk.Bytes()...)

	path := writeTempFile(t, "cut.png", data)
	info, err := extract.New(extract.NewSubject(path), "id", "image/png", "", 0)
	require.NoError(t, err)
	defer info.Unref()

	err = PNG{}.ExtractMetadata(context.Background(), info)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Nil(t, info.Resource())
}

func TestPNGRejectsTruncatedFile(t *testing.T) {
	path := writeTempFile(t, "tiny.png", []byte("not a png"))
	info, err := extract.New(extract.NewSubject(path), "id", "image/png", "", 0)
	require.NoError(t, err)
	defer info.Unref()

	assert.Error(t, PNG{}.ExtractMetadata(context.Background(), info))
	assert.Nil(t, info.Resource())
}
