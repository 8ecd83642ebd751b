package archive

import (
	"bytes"
	"testing"
)

func TestBuildAndExtractRoundTrip(t *testing.T) {
	want := []byte("hello")
	tarBytes, err := BuildSingleFile("hello.txt", want, 0o644)
	if err != nil {
		t.Fatalf("BuildSingleFile() error: %v", err)
	}

	name, got, err := ExtractFirstFile(bytes.NewReader(tarBytes))
	if err != nil {
		t.Fatalf("ExtractFirstFile() error: %v", err)
	}
	if name != "hello.txt" {
		t.Errorf("name = %q, want %q", name, "hello.txt")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestExtractFirstFile_EmptyStream(t *testing.T) {
	if _, _, err := ExtractFirstFile(bytes.NewReader(nil)); err == nil {
		t.Error("expected error extracting from empty stream, got nil")
	}
}

func TestBuildSingleFile_DefaultMode(t *testing.T) {
	tarBytes, err := BuildSingleFile("f.txt", []byte("x"), 0)
	if err != nil {
		t.Fatalf("BuildSingleFile() error: %v", err)
	}
	if len(tarBytes) == 0 {
		t.Fatal("expected non-empty tar bytes")
	}
}
