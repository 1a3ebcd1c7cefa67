package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digest-extractor/internal/infra/pdf"
	"digest-extractor/internal/usecase/ingest"
)

/* ───────────────────────────── ヘルパ ───────────────────────────── */

type textLine struct {
	y    int
	text string
}

// xobjectImage is an image XObject: dict entries besides /Type, /Subtype and
// /Length, plus the raw stream bytes.
type xobjectImage struct {
	dict string
	data []byte
}

var rgbImage = &xobjectImage{
	dict: "/Width 2 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8",
	data: []byte("\xff\x00\x00\x00\x00\xff"),
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Set(i%4, i/4, color.RGBA{R: 0x20, G: 0x80, B: 0xc0, A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// buildPDF writes a single-page PDF with positioned text lines and an
// optional image XObject.
func buildPDF(lines []textLine, img *xobjectImage) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "1 0 0 1 72 %d Tm (%s) Tj\n", l.y, l.text)
	}
	content.WriteString("ET\n")

	xobject := ""
	if img != nil {
		xobject = " /XObject << /Im1 6 0 R >>"
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >>" + xobject + " >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	if img != nil {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /XObject /Subtype /Image %s /Length %d >>\nstream\n%s\nendstream",
			img.dict, len(img.data), img.data))
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

/* ───────────────────────────── テスト ───────────────────────────── */

func TestExtractor_Parse(t *testing.T) {
	data := buildPDF([]textLine{
		{700, "SUPREME COURT"},
		{680, "Ruling on water rights"},
		{666, "The court upheld the decision."},
		{630, "Appeal dismissed"},
		{616, "No costs."},
	}, rgbImage)

	digest, err := pdf.NewExtractor(nil).Parse(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, digest.Blocks, 2)
	assert.Equal(t, ingest.Block{Section: "SUPREME COURT", Title: "Ruling on water rights", Summary: "The court upheld the decision."}, digest.Blocks[0])
	assert.Equal(t, "Appeal dismissed", digest.Blocks[1].Title)

	require.Len(t, digest.Images, 1)
	img := digest.Images[0]
	assert.Equal(t, 1, img.Page)
	assert.Equal(t, 0, img.Index)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, "image/png", img.ContentType)
	assert.True(t, bytes.HasPrefix(img.Data, []byte("\x89PNG")))
}

func TestExtractor_Parse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not a pdf", data: []byte("<html>oops</html>")},
		{name: "truncated", data: []byte("%PDF-1.4\n1 0 obj\n<<")},
		{name: "no content", data: buildPDF(nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pdf.NewExtractor(nil).Parse(context.Background(), tt.data)
			assert.True(t, errors.Is(err, ingest.ErrParseFailed), "got %v", err)
		})
	}
}

func TestExtractor_Parse_JPEGImageKeptAsIs(t *testing.T) {
	photo := jpegBytes(t)
	data := buildPDF([]textLine{
		{700, "CITY"},
		{680, "New bridge opens"},
	}, &xobjectImage{
		dict: "/Width 4 /Height 4 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode",
		data: photo,
	})

	digest, err := pdf.NewExtractor(nil).Parse(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, digest.Blocks, 1)
	require.Len(t, digest.Images, 1)
	img := digest.Images[0]
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, "jpg", img.Ext)
	assert.Equal(t, photo, img.Data)
}

func TestExtractor_Parse_JPEGFilterArray(t *testing.T) {
	photo := jpegBytes(t)
	data := buildPDF([]textLine{{700, "CITY"}, {680, "Market day"}}, &xobjectImage{
		dict: "/Width 4 /Height 4 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter [/DCTDecode]",
		data: photo,
	})

	digest, err := pdf.NewExtractor(nil).Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, digest.Images, 1)
	assert.Equal(t, "jpg", digest.Images[0].Ext)
}

func TestExtractor_Parse_OversizedImageDoesNotFailDigest(t *testing.T) {
	data := buildPDF([]textLine{{700, "WORLD"}, {680, "Summit ends"}}, &xobjectImage{
		dict: "/Width 4000000000 /Height 4000000000 /ColorSpace /DeviceRGB /BitsPerComponent 8",
		data: []byte("\x00\x00\x00"),
	})

	digest, err := pdf.NewExtractor(nil).Parse(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, digest.Blocks, 1)
	require.Len(t, digest.Images, 1)
	assert.Equal(t, "bin", digest.Images[0].Ext)
}
