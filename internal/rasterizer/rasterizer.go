package rasterizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

// RenderDPI renders at 4x the 72 dpi PDF user space.
const RenderDPI = 72 * 4

const contentTypePNG = "image/png"

var (
	// ErrConversion wraps every failure to open or render the document.
	ErrConversion = errors.New("failed to convert PDF")
	// ErrEmptyImage is returned when encoding yields no bytes.
	ErrEmptyImage = errors.New("failed to create image blob")
)

// Result is the outcome of a rasterization. Failures are carried in Err.
type Result struct {
	Image       []byte
	Name        string
	ContentType string
	Width       int
	Height      int
	Err         error
}

// OK reports whether an image was produced.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Image) > 0
}

// Encoder writes img to w.
type Encoder func(w io.Writer, img image.Image) error

// Rasterizer renders page 1 of PDF documents to PNG.
type Rasterizer struct {
	loader *Loader
	encode Encoder
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithEncoder overrides the PNG encoder.
func WithEncoder(enc Encoder) Option {
	return func(r *Rasterizer) { r.encode = enc }
}

// New constructs a Rasterizer backed by loader.
func New(loader *Loader, opts ...Option) *Rasterizer {
	r := &Rasterizer{loader: loader, encode: encodePNG}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize renders the first page of data. It never returns an error
// directly and never panics; inspect Result.Err.
func (r *Rasterizer) Rasterize(ctx context.Context, name string, data []byte) (res Result) {
	res = Result{Name: ImageName(name), ContentType: contentTypePNG}

	defer func() {
		if p := recover(); p != nil {
			res.Image = nil
			res.Err = fmt.Errorf("%w: %v", ErrConversion, p)
		}
	}()

	if len(data) == 0 {
		res.Err = fmt.Errorf("%w: empty document", ErrConversion)
		return res
	}

	backend, err := r.loader.EnsureLoaded(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: backend unavailable: %v", ErrConversion, err)
		return res
	}

	doc, err := backend.Open(data)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrConversion, err)
		return res
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		res.Err = fmt.Errorf("%w: document has no pages", ErrConversion)
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrConversion, err)
		return res
	}

	img, err := doc.RenderPage(0, RenderDPI)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrConversion, err)
		return res
	}

	var buf bytes.Buffer
	if err := r.encode(&buf, img); err != nil {
		res.Err = fmt.Errorf("%w: encode png: %v", ErrConversion, err)
		return res
	}
	if buf.Len() == 0 {
		res.Err = ErrEmptyImage
		return res
	}

	bounds := img.Bounds()
	res.Image = buf.Bytes()
	res.Width = bounds.Dx()
	res.Height = bounds.Dy()
	return res
}

// ImageName drops a trailing ".pdf" (any case) from name and appends ".png".
func ImageName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-len(".pdf")]
	}
	return name + ".png"
}

func encodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}
