package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	valid := "abc-123_XYZ"
	if err := validateSessionID(&valid); err != nil {
		t.Errorf("expected nil for valid id, got %v", err)
	}
	if err := validateSessionID(nil); err != nil {
		t.Errorf("expected nil for auto-generate, got %v", err)
	}
	invalid := "has a space"
	if err := validateSessionID(&invalid); err == nil || err.Kind != KindInvalidSessionID {
		t.Errorf("expected invalid_session_id, got %v", err)
	}
	tooLong := strings.Repeat("a", 65)
	if err := validateSessionID(&tooLong); err == nil || err.Kind != KindInvalidSessionID {
		t.Errorf("expected invalid_session_id for 65-char id, got %v", err)
	}
}

func TestValidateFilename(t *testing.T) {
	if err := validateFilename("report.csv"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := validateFilename("../etc/passwd"); err == nil {
		t.Error("expected an error for path traversal filename")
	}
	if err := validateFilename("weird name!.txt"); err == nil || err.Kind != KindInvalidFilename {
		t.Errorf("expected invalid_filename, got %v", err)
	}
}

func TestValidateCodeSize_MultiByteBoundary(t *testing.T) {
	// 3-byte UTF-8 character repeated so the byte count, not the rune
	// count, determines the limit.
	limit := 30
	code := strings.Repeat("€", limit/3) // exactly at the byte limit
	if err := validateCodeSize(code, limit); err != nil {
		t.Errorf("expected code at exactly the limit to pass, got %v", err)
	}
	over := code + "€"
	if err := validateCodeSize(over, limit); err == nil || err.Kind != KindCodeTooLarge {
		t.Errorf("expected code_too_large one character over, got %v", err)
	}
}

func TestValidateUploadSize_Boundary(t *testing.T) {
	// The true spec-mandated boundary is on decoded byte length, not on
	// base64 string length: encode exactly maxBytes and maxBytes+1 real
	// bytes and confirm validateUploadSize agrees with the decoded size,
	// not with its own cheap pre-filter formula.
	maxBytes := 12

	atLimit := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("A"), maxBytes))
	if err := validateUploadSize(atLimit, maxBytes); err != nil {
		t.Errorf("expected base64 decoding to exactly the limit to pass, got %v", err)
	}

	overLimit := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("A"), maxBytes+1))
	if err := validateUploadSize(overLimit, maxBytes); err == nil || err.Kind != KindUploadTooLarge {
		t.Errorf("expected upload_too_large one byte over the limit, got %v", err)
	}
}

func TestValidateUploadSize_PreFilterSlackCaughtByManager(t *testing.T) {
	// validateUploadSize's pre-filter rounds EncodedLen up to a 4-byte
	// quantum, so a base64 string can pass it while still decoding to more
	// than maxBytes. That slack is intentional here and is why
	// Manager.Upload re-checks len(content) after decoding.
	maxBytes := 10 // EncodedLen(10) == 16, but 16 base64 chars can decode to up to 12 bytes
	content := bytes.Repeat([]byte("B"), 12)
	encoded := base64.StdEncoding.EncodeToString(content)

	if len(encoded) > base64.StdEncoding.EncodedLen(maxBytes) {
		t.Fatalf("test setup invalid: encoded length %d exceeds pre-filter bound", len(encoded))
	}
	if err := validateUploadSize(encoded, maxBytes); err != nil {
		t.Fatalf("expected the pre-filter to let this through, got %v", err)
	}
	if decoded, _ := base64.StdEncoding.DecodeString(encoded); len(decoded) <= maxBytes {
		t.Fatalf("test setup invalid: decoded length %d does not exceed maxBytes %d", len(decoded), maxBytes)
	}

	cfg := testConfig()
	cfg.MaxUploadBytes = maxBytes
	m := NewManager(newFakeEngine(), cfg)
	if _, err := m.Upload(context.Background(), nil, "f.txt", encoded, false); err == nil || err.Kind != KindUploadTooLarge {
		t.Errorf("expected Manager.Upload to reject with upload_too_large, got %v", err)
	}
}
