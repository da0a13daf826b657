// Package rasterizer converts the first page of a PDF document into a PNG
// image using a lazily initialized rendering backend.
package rasterizer

import (
	"image"
)

// Backend opens documents for rendering.
type Backend interface {
	Open(data []byte) (Document, error)
}

// Document is an opened document. Page indexes are zero-based.
type Document interface {
	NumPage() int
	RenderPage(index int, dpi float64) (image.Image, error)
	Close() error
}
