package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opensandbox/codebroker/internal/engine"
)

// fileStat is a file's size and mtime as seen at snapshot time.
type fileStat struct {
	size  int64
	mtime string // opaque mtime token; only equality is ever tested
}

// snapshot is an Artifact Scanner snapshot: filename -> (size, mtime) for
// every regular file directly under the data directory.
type snapshot map[string]fileStat

const dataDir = "/mnt/data"

// takeSnapshot lists the top-level regular files under the data directory
// via a single exec, grounded on the container contract's find+printf
// idiom (no shell is invoked — argv is passed directly to exec, so no
// filename can escape into a shell).
func (m *Manager) takeSnapshot(ctx context.Context, h engine.Handle) (snapshot, error) {
	res, err := m.engine.Exec(ctx, h, []string{
		"find", dataDir, "-maxdepth", "1", "-type", "f", "-printf", "%f\t%s\t%T@\n",
	}, dataDir)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("session: snapshot exec exited %d: %s", res.ExitCode, string(res.Stderr))
	}

	snap := make(snapshot)
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		snap[parts[0]] = fileStat{size: size, mtime: parts[2]}
	}
	return snap, nil
}

// diffSnapshots returns the filenames present in after that are either
// absent from before or have a different mtime. Deletions are never
// reported; equal-mtime-equal-size files are treated as unchanged even if
// content differs — an accepted limitation of mtime-based diffing (list
// remains authoritative).
func diffSnapshots(before, after snapshot) []string {
	var changed []string
	for name, afterStat := range after {
		beforeStat, existed := before[name]
		if !existed || beforeStat.mtime != afterStat.mtime {
			changed = append(changed, name)
		}
	}
	return changed
}
