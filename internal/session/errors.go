package session

import (
	"fmt"

	"github.com/opensandbox/codebroker/internal/engine"
)

// Kind is the closed set of machine-readable error kinds the Session
// Manager returns. Truncation is never an error; a timeout is a successful
// run with exit_code -1, not an error either.
type Kind string

const (
	KindInvalidSessionID  Kind = "invalid_session_id"
	KindInvalidFilename   Kind = "invalid_filename"
	KindInvalidPath       Kind = "invalid_path"
	KindInvalidContent    Kind = "invalid_content"
	KindCodeTooLarge      Kind = "code_too_large"
	KindUploadTooLarge    Kind = "upload_too_large"
	KindFileExists        Kind = "file_exists"
	KindSessionNotFound   Kind = "session_not_found"
	KindMaxSessions       Kind = "max_sessions"
	KindSessionBusy       Kind = "session_busy"
	KindNotFound          Kind = "not_found"
	KindArtifactTooLarge  Kind = "artifact_too_large"
	KindDockerError       Kind = "docker_error"
	KindDockerUnavailable Kind = "docker_unavailable"
	KindExecutionFailed   Kind = "execution_failed"
)

// Error is the single tagged-variant error type the Session Manager
// returns: a closed kind plus optional metadata, simpler than a type
// hierarchy and a direct JSON round-trip for the tool surface.
type Error struct {
	Kind        Kind
	Message     string
	SizeBytes   *int64
	DownloadURL string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// mapEngineError classifies an error from the Container Driver into the
// engine bucket of the taxonomy. It is the only place engine errors cross
// into session errors, mirroring the predecessor's single _map_docker_error.
func mapEngineError(err error, sessionID string) *Error {
	switch {
	case engine.IsNotFound(err):
		return newError(KindSessionNotFound, "container for session %s not found", sessionID)
	case engine.IsUnavailable(err):
		return newError(KindDockerUnavailable, "container engine unavailable: %v", err)
	default:
		return newError(KindDockerError, "container engine error: %v", err)
	}
}
