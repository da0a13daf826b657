package respond

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSSEWriterFormatsEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatalf("NewSSEWriter: %v", err)
	}

	if err := w.WriteEvent("status", map[string]string{"stage": "uploading"}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	w.WriteError("upload_failed", "Failed to upload the file", nil)

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	body := rec.Body.String()
	want := "event: status\ndata: {\"stage\":\"uploading\"}\n\n" +
		"event: error\ndata: {\"error\":{\"code\":\"upload_failed\",\"message\":\"Failed to upload the file\"}}\n\n"
	if body != want {
		t.Fatalf("unexpected body:\n%q\nwant:\n%q", body, want)
	}
	if !rec.Flushed {
		t.Fatalf("expected writer to flush")
	}
	if strings.Count(body, "event:") != 2 {
		t.Fatalf("expected two events")
	}
}
