package session

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var (
	sessionIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	filenameRE  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,255}$`)
)

// validateSessionID validates a caller-supplied session id. A nil id means
// auto-generate, which is always valid.
func validateSessionID(id *string) *Error {
	if id == nil {
		return nil
	}
	if !sessionIDRE.MatchString(*id) {
		return newError(KindInvalidSessionID,
			"invalid session_id %q: must be 1-64 characters: letters, numbers, hyphens, underscores", *id)
	}
	return nil
}

// validateFilename validates a filename against the allowlist and rejects
// path traversal.
func validateFilename(filename string) *Error {
	if !filenameRE.MatchString(filename) {
		return newError(KindInvalidFilename,
			"invalid filename %q: only letters, numbers, dots, hyphens, and underscores allowed (max 255 chars)", filename)
	}
	if strings.Contains(filename, "..") {
		return newError(KindInvalidPath, "path traversal not allowed")
	}
	return nil
}

// validateCodeSize rejects code exceeding maxCodeBytes, counted in UTF-8 bytes.
func validateCodeSize(code string, maxCodeBytes int) *Error {
	n := len(code)
	if n > maxCodeBytes {
		return newError(KindCodeTooLarge, "code is %d bytes, exceeds %d byte limit", n, maxCodeBytes)
	}
	return nil
}

// validateUploadSize rejects an upload whose base64 length implies a
// decoded size over maxUploadBytes, checked before decoding. This is a
// cheap pre-filter only: EncodedLen rounds up to the nearest 4-byte
// quantum, so it can pass base64 strings that decode (with padding) to a
// few bytes over the limit. Upload re-checks the exact decoded length.
func validateUploadSize(contentBase64 string, maxUploadBytes int) *Error {
	maxB64Len := base64.StdEncoding.EncodedLen(maxUploadBytes)
	if len(contentBase64) > maxB64Len {
		return newError(KindUploadTooLarge, "upload exceeds %dMB limit", maxUploadBytes/(1024*1024))
	}
	return nil
}
