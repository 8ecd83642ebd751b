// Package archive is the Tar Codec: it builds a single-file in-memory TAR
// for uploads, and extracts the first regular member from a TAR stream for
// downloads. Grounded on the tar.NewReader header-scan pattern used to pull
// individual files back out of a container's CopyFromContainer stream.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
)

// BuildSingleFile returns a TAR stream containing exactly one regular file
// named name with the given content and mode.
func BuildSingleFile(name string, content []byte, mode int64) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	hdr := &tar.Header{
		Name: name,
		Mode: mode,
		Size: int64(len(content)),
	}
	if hdr.Mode == 0 {
		hdr.Mode = 0o644
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("archive: write header: %w", err)
	}
	if _, err := tw.Write(content); err != nil {
		return nil, fmt.Errorf("archive: write content: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("archive: close: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractFirstFile reads r as a TAR stream and returns the name and content
// of the first regular (non-directory) member it finds.
func ExtractFirstFile(r io.Reader) (name string, content []byte, err error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", nil, fmt.Errorf("archive: empty tar stream")
		}
		if err != nil {
			return "", nil, fmt.Errorf("archive: read header: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return "", nil, fmt.Errorf("archive: read content: %w", err)
		}
		return hdr.FileInfo().Name(), data, nil
	}
}
