// Package pdf extracts text lines and embedded images from digest PDFs with
// github.com/ledongthuc/pdf and splits the text into article blocks.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"digest-extractor/internal/usecase/ingest"
)

var pdfMagic = []byte("%PDF-")

// maxImagePixels bounds the declared size of an image converted to PNG.
const maxImagePixels = 64 << 20

// Stream encodings whose bytes already form a complete image file.
var passthroughImages = map[string]struct {
	contentType string
	ext         string
	magic       []byte
}{
	"DCTDecode": {contentType: "image/jpeg", ext: "jpg", magic: []byte{0xff, 0xd8}},
	"JPXDecode": {contentType: "image/jp2", ext: "jp2"},
}

// Extractor implements ingest.Parser.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

var _ ingest.Parser = (*Extractor)(nil)

// Parse reads every page of data. The library panics on some malformed
// inputs, so each call runs under recover and reports ErrParseFailed.
func (e *Extractor) Parse(ctx context.Context, data []byte) (digest *ingest.ParsedDigest, err error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%w: missing %%PDF- header", ingest.ErrParseFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			digest = nil
			err = fmt.Errorf("%w: %v", ingest.ErrParseFailed, r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrParseFailed, err)
	}

	pages := make([][]string, 0, reader.NumPage())
	var images []ingest.DigestImage
	for n := 1; n <= reader.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ingest.ErrParseFailed, n, err)
		}
		pages = append(pages, lines)
		images = append(images, e.pageImages(data, page, n)...)
	}

	digest = &ingest.ParsedDigest{Blocks: SplitBlocks(pages), Images: images}
	if len(digest.Blocks) == 0 && len(digest.Images) == 0 {
		return nil, fmt.Errorf("%w: no articles or images found", ingest.ErrParseFailed)
	}
	return digest, nil
}

// pageLines returns the page text top to bottom. A vertical gap wider than
// 1.5 times the median line spacing becomes an empty line.
func pageLines(page lpdf.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	type line struct {
		y    int64
		text string
	}
	var ls []line
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			ls = append(ls, line{y: row.Position, text: text})
		}
	}

	gaps := make([]int64, 0, len(ls))
	for i := 1; i < len(ls); i++ {
		gaps = append(gaps, ls[i-1].y-ls[i].y)
	}
	threshold := int64(-1)
	if len(gaps) >= 2 {
		sorted := append([]int64(nil), gaps...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		threshold = sorted[len(sorted)/2] * 3 / 2
	}

	out := make([]string, 0, len(ls)+len(gaps))
	for i, l := range ls {
		if i > 0 && threshold > 0 && gaps[i-1] > threshold {
			out = append(out, "")
		}
		out = append(out, l.text)
	}
	return out, nil
}

// pageImages collects the image XObjects of a page. JPEG and JPEG 2000
// streams are copied out of data unchanged; other streams are decoded and
// converted to PNG when the color space allows it.
func (e *Extractor) pageImages(data []byte, page lpdf.Page, pageNum int) []ingest.DigestImage {
	xobjects := page.Resources().Key("XObject")
	names := xobjects.Keys()
	sort.Strings(names)

	var images []ingest.DigestImage
	for _, name := range names {
		obj := xobjects.Key(name)
		if obj.Key("Subtype").Name() != "Image" {
			continue
		}
		img := ingest.DigestImage{Page: pageNum, Index: len(images)}

		if enc, ok := passthroughImages[imageFilter(obj)]; ok {
			raw, err := rawStream(data, obj)
			if err == nil && !bytes.HasPrefix(raw, enc.magic) {
				err = errors.New("unexpected image header")
			}
			if err != nil {
				e.logger.Warn("skipping unreadable image",
					slog.Int("page", pageNum),
					slog.String("name", name),
					slog.Any("error", err))
				continue
			}
			img.Data, img.ContentType, img.Ext = raw, enc.contentType, enc.ext
			images = append(images, img)
			continue
		}

		raw, err := readStream(obj)
		if err != nil {
			e.logger.Warn("skipping undecodable image",
				slog.Int("page", pageNum),
				slog.String("name", name),
				slog.String("filter", obj.Key("Filter").String()),
				slog.Any("error", err))
			continue
		}
		if encoded, ok := encodePNG(obj, raw); ok {
			img.Data, img.ContentType, img.Ext = encoded, "image/png", "png"
		} else {
			img.Data, img.ContentType, img.Ext = raw, "application/octet-stream", "bin"
		}
		images = append(images, img)
	}
	return images
}

// imageFilter returns the single filter applied to obj, or "" when there is
// none or more than one.
func imageFilter(obj lpdf.Value) string {
	f := obj.Key("Filter")
	switch f.Kind() {
	case lpdf.Name:
		return f.Name()
	case lpdf.Array:
		if f.Len() == 1 {
			return f.Index(0).Name()
		}
	}
	return ""
}

// rawStream returns the undecoded bytes of a stream. The library formats a
// stream value as "<<header>>@offset", offset being where its data starts.
func rawStream(data []byte, obj lpdf.Value) ([]byte, error) {
	if obj.Kind() != lpdf.Stream {
		return nil, errors.New("not a stream")
	}
	s := obj.String()
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return nil, errors.New("stream offset unavailable")
	}
	off, err := strconv.ParseInt(s[at+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stream offset: %w", err)
	}
	n := obj.Key("Length").Int64()
	if off < 0 || n <= 0 || off+n > int64(len(data)) {
		return nil, fmt.Errorf("stream range %d+%d outside document", off, n)
	}
	return bytes.Clone(data[off : off+n]), nil
}

func readStream(v lpdf.Value) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode stream: %v", r)
		}
	}()
	rc := v.Reader()
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// encodePNG converts 8-bit DeviceRGB or DeviceGray samples to PNG.
func encodePNG(obj lpdf.Value, raw []byte) ([]byte, bool) {
	w := int(obj.Key("Width").Int64())
	h := int(obj.Key("Height").Int64())
	if w <= 0 || h <= 0 || obj.Key("BitsPerComponent").Int64() != 8 {
		return nil, false
	}
	if w > maxImagePixels || h > maxImagePixels || w*h > maxImagePixels {
		return nil, false
	}

	var img image.Image
	switch obj.Key("ColorSpace").Name() {
	case "DeviceRGB":
		if len(raw) < w*h*3 {
			return nil, false
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			rgba.Set(i%w, i/w, color.RGBA{R: raw[3*i], G: raw[3*i+1], B: raw[3*i+2], A: 0xff})
		}
		img = rgba
	case "DeviceGray":
		if len(raw) < w*h {
			return nil, false
		}
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, raw[:w*h])
		img = gray
	default:
		return nil, false
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
