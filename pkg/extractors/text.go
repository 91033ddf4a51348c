package extractors

import (
	"context"
	"io"
	"os"

	"fsminer/pkg/extract"
	"fsminer/pkg/resource"
)

// Text extracts a plain-text excerpt. The excerpt length honors the
// carrier's max text bound.
type Text struct{}

func (Text) ExtractMetadata(ctx context.Context, info *extract.Info) error {
	f, err := os.Open(info.File().Path())
	if err != nil {
		return err
	}
	defer f.Close()

	max := info.MaxText()
	res := resource.New(info.ContentID(""))
	res.AddType("nfo:PlainTextDocument")
	res.AddType("nfo:TextDocument")

	if max > 0 {
		// One byte extra so truncation can back off a split rune.
		buf := make([]byte, max+1)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return err
		}
		if text := truncateText(string(buf[:n]), max); text != "" {
			res.SetString("nie:plainTextContent", text)
		}
	}

	guaranteeTitle(res, info, "")
	guaranteeContentCreated(res, info, "")

	return info.SetResource(res)
}
