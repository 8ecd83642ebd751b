package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/opensandbox/codebroker/internal/archive"
	"github.com/opensandbox/codebroker/internal/engine"
	"github.com/opensandbox/codebroker/internal/metrics"
	"github.com/opensandbox/codebroker/internal/obslog"
)

const containerNamePrefix = "sandbox-"

// containerEngine is the subset of *engine.Client the Session Manager
// depends on. Declaring it as an interface (grounded on the predecessor's
// internal/sandbox/interface.go split between Manager and its Container
// Driver implementation) lets tests substitute a fake driver instead of a
// live Docker daemon.
type containerEngine interface {
	Create(ctx context.Context, cfg engine.Config) (engine.Handle, error)
	Start(ctx context.Context, h engine.Handle) error
	Remove(ctx context.Context, h engine.Handle) error
	Exec(ctx context.Context, h engine.Handle, argv []string, workdir string) (engine.ExecResult, error)
	PutArchive(ctx context.Context, h engine.Handle, destDir string, r io.Reader) error
	GetArchive(ctx context.Context, h engine.Handle, srcPath string) (io.ReadCloser, error)
	ListByLabel(ctx context.Context, key, value string) ([]engine.Handle, error)
}

// Config holds the Session Manager's tunables, all sourced from
// internal/config per spec.md §6.
type Config struct {
	Image                string
	Interpreter          string
	MemoryMB             int
	CPUs                 float64
	ExecTimeoutS         int
	MaxSessions          int
	MaxUploadBytes       int
	MaxArtifactReadBytes int
	MaxOutputBytes       int
	MaxCodeBytes         int
	// DownloadURLFmt, if non-empty, is used with fmt.Sprintf(format, sessionID, filename)
	// to populate Artifact.DownloadURL. Empty means the HTTP surface is not wired in.
	DownloadURLFmt string
}

// Manager is the Session Manager: the public core composing the Container
// Driver, Artifact Scanner, and Tar Codec.
type Manager struct {
	engine containerEngine
	reg    *registry
	cfg    Config
}

var _ containerEngine = (*engine.Client)(nil)

// NewManager creates a Session Manager bound to eng.
func NewManager(eng containerEngine, cfg Config) *Manager {
	return &Manager{
		engine: eng,
		reg:    newRegistry(cfg.MaxSessions),
		cfg:    cfg,
	}
}

// Upload validates filename, resolves (or creates) the session, and
// injects content at /mnt/data/<filename>.
func (m *Manager) Upload(ctx context.Context, sessionID *string, filename, contentBase64 string, overwrite bool) (*Upload, *Error) {
	if verr := validateSessionID(sessionID); verr != nil {
		return nil, verr
	}
	if verr := validateFilename(filename); verr != nil {
		return nil, verr
	}
	if verr := validateUploadSize(contentBase64, m.cfg.MaxUploadBytes); verr != nil {
		return nil, verr
	}
	content, err := base64.StdEncoding.DecodeString(contentBase64)
	if err != nil {
		return nil, newError(KindInvalidContent, "content is not valid base64: %v", err)
	}
	if len(content) > m.cfg.MaxUploadBytes {
		return nil, newError(KindUploadTooLarge, "upload is %d bytes, exceeds %d byte limit", len(content), m.cfg.MaxUploadBytes)
	}

	id, e, verr := m.getOrCreate(ctx, sessionID)
	if verr != nil {
		return nil, verr
	}

	destPath := path.Join(dataDir, filename)

	if !overwrite {
		res, err := m.engine.Exec(ctx, e.container, []string{"test", "-e", destPath}, dataDir)
		if err != nil {
			return nil, mapEngineError(err, id)
		}
		if res.ExitCode == 0 {
			return nil, newError(KindFileExists, "file %s already exists", filename)
		}
	}

	tarBytes, err := archive.BuildSingleFile(filename, content, 0o644)
	if err != nil {
		return nil, newError(KindExecutionFailed, "failed to build archive: %v", err)
	}
	if err := m.engine.PutArchive(ctx, e.container, dataDir, strings.NewReader(string(tarBytes))); err != nil {
		return nil, mapEngineError(err, id)
	}

	m.reg.touch(id)
	return &Upload{SessionID: id, Path: destPath}, nil
}

// Execute resolves the session, serializes against concurrent
// execute/close via a non-blocking mutex, and runs code inside the
// session's container with a timeout wrapper.
func (m *Manager) Execute(ctx context.Context, sessionID *string, code string) (*Run, *Error) {
	if verr := validateSessionID(sessionID); verr != nil {
		return nil, verr
	}
	if verr := validateCodeSize(code, m.cfg.MaxCodeBytes); verr != nil {
		return nil, verr
	}

	id, e, verr := m.getOrCreate(ctx, sessionID)
	if verr != nil {
		return nil, verr
	}

	if !e.mu.TryLock() {
		return nil, newError(KindSessionBusy, "session %s is busy running another execute", id)
	}
	defer e.mu.Unlock()

	log := obslog.WithSession(id)
	runID := generateRunID()

	before, err := m.takeSnapshot(ctx, e.container)
	if err != nil {
		return nil, mapEngineError(err, id)
	}

	start := time.Now()
	argv := []string{"timeout", strconv.Itoa(m.cfg.ExecTimeoutS), m.cfg.Interpreter, "-c", code}
	log.Info().Str("run_id", runID).Int("code_bytes", len(code)).Msg("container_exec_start")

	res, err := m.engine.Exec(ctx, e.container, argv, dataDir)
	if err != nil {
		return nil, mapEngineError(err, id)
	}
	duration := time.Since(start)

	exitCode := res.ExitCode
	stderr := res.Stderr
	result := "ok"
	if exitCode == 124 {
		exitCode = -1
		result = "timeout"
		stderr = append(stderr, []byte(fmt.Sprintf("\n[sandbox] command timed out after %ds", m.cfg.ExecTimeoutS))...)
	} else if exitCode != 0 {
		result = "error"
	}
	metrics.ExecDuration.WithLabelValues(result).Observe(duration.Seconds())

	stdoutBytes, stdoutTruncated := truncateBytes(res.Stdout, m.cfg.MaxOutputBytes)
	stderrBytes, stderrTruncated := truncateBytes(stderr, m.cfg.MaxOutputBytes)

	var artifacts []Artifact
	if exitCode == 0 {
		after, err := m.takeSnapshot(ctx, e.container)
		if err != nil {
			return nil, mapEngineError(err, id)
		}
		for _, name := range diffSnapshots(before, after) {
			artifacts = append(artifacts, m.describeArtifact(id, name, after[name].size))
		}
	}

	m.reg.touch(id)

	log.Info().Str("run_id", runID).Int("exit_code", exitCode).
		Int64("duration_ms", duration.Milliseconds()).Msg("container_exec_done")

	return &Run{
		SessionID:       id,
		RunID:           runID,
		ExitCode:        exitCode,
		Stdout:          strings.ToValidUTF8(string(stdoutBytes), "�"),
		Stderr:          strings.ToValidUTF8(string(stderrBytes), "�"),
		StdoutTruncated: stdoutTruncated,
		StderrTruncated: stderrTruncated,
		Artifacts:       artifacts,
		DurationMS:      duration.Milliseconds(),
	}, nil
}

// List requires an existing session and returns every file under the data
// directory as an artifact.
func (m *Manager) List(ctx context.Context, sessionID string) (*Listing, *Error) {
	e, ok := m.reg.get(sessionID)
	if !ok {
		return nil, newError(KindSessionNotFound, "no active session with id %s", sessionID)
	}

	snap, err := m.takeSnapshot(ctx, e.container)
	if err != nil {
		return nil, mapEngineError(err, sessionID)
	}

	artifacts := make([]Artifact, 0, len(snap))
	for name, stat := range snap {
		artifacts = append(artifacts, m.describeArtifact(sessionID, name, stat.size))
	}

	m.reg.touch(sessionID)
	return &Listing{Artifacts: artifacts}, nil
}

// Read requires an existing session and returns the decoded content of the
// file at path, which must resolve under the data directory.
func (m *Manager) Read(ctx context.Context, sessionID, reqPath string) (*Read, *Error) {
	e, ok := m.reg.get(sessionID)
	if !ok {
		return nil, newError(KindSessionNotFound, "no active session with id %s", sessionID)
	}

	filename := path.Base(reqPath)
	resolved := path.Join(dataDir, filename)
	if !strings.HasPrefix(resolved, dataDir+"/") {
		return nil, newError(KindInvalidPath, "path %s does not resolve under %s", reqPath, dataDir)
	}

	tarStream, err := m.engine.GetArchive(ctx, e.container, resolved)
	if err != nil {
		return nil, mapEngineError(err, sessionID)
	}
	defer tarStream.Close()

	name, content, extractErr := archive.ExtractFirstFile(tarStream)
	if extractErr != nil {
		return nil, newError(KindNotFound, "file %s not found in session %s", filename, sessionID)
	}

	if int64(len(content)) > int64(m.cfg.MaxArtifactReadBytes) {
		size := int64(len(content))
		tooLarge := &Error{
			Kind:      KindArtifactTooLarge,
			Message:   fmt.Sprintf("artifact %s is %d bytes, exceeds %d byte limit", filename, size, m.cfg.MaxArtifactReadBytes),
			SizeBytes: &size,
		}
		if m.cfg.DownloadURLFmt != "" {
			tooLarge.DownloadURL = fmt.Sprintf(m.cfg.DownloadURLFmt, sessionID, filename)
		}
		return nil, tooLarge
	}

	m.reg.touch(sessionID)
	return &Read{
		Path:          resolved,
		Filename:      name,
		MimeType:      mimeByExtension(name),
		SizeBytes:     int64(len(content)),
		ContentBase64: base64.StdEncoding.EncodeToString(content),
	}, nil
}

// Close destroys a session's container and forgets it.
func (m *Manager) Close(ctx context.Context, sessionID string) (*Close, *Error) {
	e, ok := m.reg.get(sessionID)
	if !ok {
		return nil, newError(KindSessionNotFound, "no active session with id %s", sessionID)
	}

	if !e.mu.TryLock() {
		return nil, newError(KindSessionBusy, "session %s is busy running another execute", sessionID)
	}
	defer e.mu.Unlock()

	m.reg.delete(sessionID)
	metrics.SessionsActive.Dec()

	if err := m.engine.Remove(ctx, e.container); err != nil {
		obslog.WithSession(sessionID).Error().Err(err).Msg("session_destroy_failed")
		return nil, mapEngineError(err, sessionID)
	}

	metrics.SessionsClosedTotal.WithLabelValues("client").Inc()
	obslog.WithSession(sessionID).Info().Msg("session_destroyed")
	return &Close{Status: "closed"}, nil
}

// getOrCreate resolves sessionID to a live container, creating one if the
// id is absent (explicit or auto-generated).
func (m *Manager) getOrCreate(ctx context.Context, sessionID *string) (string, *entry, *Error) {
	id := ""
	if sessionID != nil {
		id = *sessionID
	}
	if id == "" {
		id = generateSessionID()
	}

	if e, ok := m.reg.get(id); ok {
		m.reg.touch(id)
		return id, e, nil
	}

	log := obslog.WithSession(id)
	log.Info().Str("image", m.cfg.Image).Msg("session_creating")
	start := time.Now()

	cfg := engine.DefaultConfig(containerNamePrefix+id, m.cfg.Image)
	cfg.Labels[engine.SessionLabel] = id
	cfg.MemoryMB = m.cfg.MemoryMB
	cfg.CPUs = m.cfg.CPUs

	handle, err := m.engine.Create(ctx, cfg)
	if err != nil {
		return "", nil, mapEngineError(err, id)
	}
	if err := m.engine.Start(ctx, handle); err != nil {
		_ = m.engine.Remove(ctx, handle)
		return "", nil, mapEngineError(err, id)
	}

	e, verr := m.reg.create(id, handle)
	if verr != nil {
		_ = m.engine.Remove(ctx, handle)
		return "", nil, verr
	}
	metrics.SessionsActive.Inc()

	log.Info().Int64("duration_ms", time.Since(start).Milliseconds()).Msg("session_created")
	return id, e, nil
}

func (m *Manager) describeArtifact(sessionID, filename string, size int64) Artifact {
	a := Artifact{
		Path:      path.Join(dataDir, filename),
		Filename:  filename,
		SizeBytes: size,
		MimeType:  mimeByExtension(filename),
	}
	if m.cfg.DownloadURLFmt != "" {
		a.DownloadURL = fmt.Sprintf(m.cfg.DownloadURLFmt, sessionID, filename)
	}
	return a
}

// Sessions exposes the registry's current session count, for the reaper
// and for readiness checks. It mirrors the predecessor's inspectable
// sessions/last_accessed properties without widening the public contract.
func (m *Manager) Sessions() int {
	return m.reg.len()
}

// LastAccessed returns a snapshot of every live session's last-access
// time, for the reaper's TTL scan.
func (m *Manager) LastAccessed() map[string]time.Time {
	return m.reg.lastAccessed()
}

func truncateBytes(b []byte, limit int) ([]byte, bool) {
	if len(b) <= limit {
		return b, false
	}
	return b[:limit], true
}
