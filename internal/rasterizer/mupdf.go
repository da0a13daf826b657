package rasterizer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gen2brain/go-fitz"

	"resumeai-backend/internal/documents"
	"resumeai-backend/internal/shared/telemetry"
)

type fitzBackend struct{}

func (fitzBackend) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d fitzDocument) RenderPage(index int, dpi float64) (image.Image, error) {
	return d.doc.ImageDPI(index, dpi)
}

func (d fitzDocument) Close() error { return d.doc.Close() }

// InitMuPDF prepares the MuPDF backend by rendering a blank page, which
// loads the native library's fonts and colorspaces up front.
func InitMuPDF(ctx context.Context) (Backend, error) {
	start := time.Now()
	b := fitzBackend{}

	doc, err := b.Open(documents.BlankPDF(1))
	if err != nil {
		return nil, fmt.Errorf("mupdf warm-up open: %w", err)
	}
	defer doc.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := doc.RenderPage(0, 72); err != nil {
		return nil, fmt.Errorf("mupdf warm-up render: %w", err)
	}

	telemetry.Info("rasterizer.init", map[string]any{
		"backend":     "mupdf",
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return b, nil
}

var defaultLoader = sync.OnceValue(func() *Loader {
	return NewLoader(InitMuPDF)
})

// Default returns the process-wide loader for the MuPDF backend.
func Default() *Loader {
	return defaultLoader()
}
