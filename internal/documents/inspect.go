// Package documents inspects uploaded source documents before they enter the
// ingest pipeline.
package documents

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"resumeai-backend/internal/shared/telemetry"
)

const mimePDF = "application/pdf"

var (
	// ErrEmpty is returned for zero-length uploads.
	ErrEmpty = errors.New("document is empty")
	// ErrNotPDF is returned when the payload is not a PDF.
	ErrNotPDF = errors.New("only PDF documents are supported")
	// ErrNoPages is returned when the page tree parses but declares no pages.
	ErrNoPages = errors.New("document has no pages")
)

// Info describes an uploaded document.
type Info struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	// Pages is zero when the page tree could not be read.
	Pages int
}

// Inspect sniffs the payload type and counts pages. A page tree that cannot
// be read is logged and leaves Pages at zero; the rasterizer decides whether
// such a document renders. A readable tree with no pages is ErrNoPages.
func Inspect(fileName string, data []byte) (Info, error) {
	info := Info{
		FileName:  fileName,
		SizeBytes: int64(len(data)),
	}
	if len(data) == 0 {
		return info, ErrEmpty
	}

	info.MimeType = normalizeMimeType(http.DetectContentType(data), fileName)
	if info.MimeType != mimePDF {
		return info, fmt.Errorf("%w: detected %s", ErrNotPDF, info.MimeType)
	}

	pages, err := countPages(data)
	if err != nil {
		telemetry.Warn("documents.page_count_failed", map[string]any{
			"file_name": fileName,
			"err":       err,
		})
		return info, nil
	}
	if pages == 0 {
		return info, ErrNoPages
	}
	info.Pages = pages
	return info, nil
}

func countPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return reader.NumPage(), nil
}

// normalizeMimeType falls back to the extension when sniffing is inconclusive.
func normalizeMimeType(sniffed, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(sniffed, ";")[0]))
	if clean == "application/octet-stream" && strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return mimePDF
	}
	return clean
}
