package replicate

import (
	"fmt"
	"path/filepath"

	"github.com/zpdzap/replicant/internal/confine"
)

// spreadTo copies the replica content into mock host i's replica directory.
// Confinement is re-checked against the sandbox root (not the hosts root, to
// catch misconfiguration). One host's failure is recorded and skipped, never
// fatal to the other hosts or to the primary replica.
func (e *Engine) spreadTo(host, idx int, data []byte, payload bool) HostResult {
	paths := e.mgr.Paths()
	hostDir := paths.HostReplicaDir(host)
	dst := filepath.Join(hostDir, replicaName(idx))

	res := HostResult{Host: host, Dest: dst}

	ok, err := confine.Within(dst, paths.Root)
	if err != nil {
		res.Err = fmt.Errorf("resolving host destination: %w", err)
		e.log.Warn("host destination unresolvable, skipping", "host", host, "error", err)
		return res
	}
	if !ok {
		res.Err = &ConfinementError{Path: dst, Root: paths.Root}
		e.log.Warn("host path escaped sandbox, skipping", "host", host, "dest", dst)
		return res
	}

	if err := atomicWrite(dst, data); err != nil {
		res.Err = fmt.Errorf("writing host replica: %w", err)
		e.log.Warn("host replica write failed, skipping", "host", host, "error", err)
		return res
	}
	e.log.Info("simulated spread", "host", host, "dest", dst)

	if payload {
		if err := e.dropPayload(hostDir); err != nil {
			e.log.Warn("host payload write failed", "host", host, "error", err)
		}
	}
	return res
}
