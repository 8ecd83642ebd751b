package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensandbox/codebroker/internal/session"
)

type fakeReader struct {
	result *session.Read
	err    *session.Error
}

func (f *fakeReader) Read(ctx context.Context, sessionID, path string) (*session.Read, *session.Error) {
	return f.result, f.err
}

func TestDownload_Success(t *testing.T) {
	r := &fakeReader{result: &session.Read{
		Filename:      "out.txt",
		MimeType:      "text/plain",
		SizeBytes:     2,
		ContentBase64: base64.StdEncoding.EncodeToString([]byte("ok")),
	}}
	srv := New(r)

	req := httptest.NewRequest(http.MethodGet, "/files/sess_abc/out.txt", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
	if rec.Header().Get("Content-Type") != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", rec.Header().Get("Content-Type"))
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="out.txt"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestDownload_SessionNotFoundMapsTo404(t *testing.T) {
	r := &fakeReader{err: &session.Error{Kind: session.KindSessionNotFound, Message: "no such session"}}
	srv := New(r)

	req := httptest.NewRequest(http.MethodGet, "/files/missing/out.txt", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownload_ArtifactTooLargeMapsTo413(t *testing.T) {
	r := &fakeReader{err: &session.Error{Kind: session.KindArtifactTooLarge, Message: "too big"}}
	srv := New(r)

	req := httptest.NewRequest(http.MethodGet, "/files/sess_abc/huge.bin", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestDownload_DockerErrorMapsTo500(t *testing.T) {
	r := &fakeReader{err: &session.Error{Kind: session.KindDockerError, Message: "boom"}}
	srv := New(r)

	req := httptest.NewRequest(http.MethodGet, "/files/sess_abc/f.txt", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := New(&fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
