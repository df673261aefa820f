// Package replicate implements the controlled self-copying demo: a single
// replication step gated by the kill-switch and the replica limit, with
// optional content mutation, simulated spread into mock hosts and a harmless
// payload note. All writes are confinement-checked and atomic.
package replicate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zpdzap/replicant/internal/confine"
	"github.com/zpdzap/replicant/internal/logging"
	"github.com/zpdzap/replicant/internal/sandbox"
)

// ErrNotInitialized is returned when the sandbox does not exist yet.
var ErrNotInitialized = errors.New("sandbox not initialized (run init first)")

// ConfinementError reports a write destination that resolved outside the
// sandbox. It is a security failure, distinct from plain I/O errors.
type ConfinementError struct {
	Path string
	Root string
}

func (e *ConfinementError) Error() string {
	return fmt.Sprintf("confinement violation: %s escapes %s", e.Path, e.Root)
}

// Options selects the optional extras for one replication step.
type Options struct {
	Mutate  bool // append an inert variant trailer (checksum changes)
	Spread  bool // also copy into each mock host
	Payload bool // drop the friendly note alongside replicas
}

// Outcome classifies a replication attempt. Blocked and LimitReached are
// expected no-ops, not errors.
type Outcome string

const (
	OutcomeReplicated   Outcome = "replicated"
	OutcomeBlocked      Outcome = "blocked"
	OutcomeLimitReached Outcome = "limit-reached"
)

// HostResult records the outcome of one simulated spread target.
type HostResult struct {
	Host int
	Dest string
	Err  error
}

// Result describes what a replication attempt did.
type Result struct {
	Outcome    Outcome
	Index      int
	Dest       string
	SourceSum  string
	DestSum    string
	Hosts      []HostResult
	PayloadErr error
}

// Engine performs replication steps inside a managed sandbox.
type Engine struct {
	mgr *sandbox.Manager
	log *logging.Logger

	// Source overrides the artifact being copied. Empty means the running
	// executable.
	Source string
}

// NewEngine creates an engine over an initialized (or to-be-initialized)
// sandbox.
func NewEngine(mgr *sandbox.Manager, log *logging.Logger) *Engine {
	return &Engine{mgr: mgr, log: log}
}

var replicaPattern = regexp.MustCompile(`^replica-[0-9]+$`)

func replicaName(idx int) string {
	return fmt.Sprintf("replica-%d", idx)
}

// nextIndex derives the next replica index from the directory listing alone;
// no counter is cached or persisted. Two invocations racing on the same
// sandbox can compute the same index — an accepted limitation of the
// single-actor demo, not corruption (writes stay atomic either way).
func (e *Engine) nextIndex() (int, error) {
	entries, err := os.ReadDir(e.mgr.Paths().Replicas)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("listing replicas: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && replicaPattern.MatchString(entry.Name()) {
			count++
		}
	}
	return count + 1, nil
}

func (e *Engine) sourcePath() (string, error) {
	if e.Source != "" {
		return e.Source, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating own executable: %w", err)
	}
	return exe, nil
}

// ReplicateOnce performs at most one replication step. Preconditions are
// checked in order: sandbox existence, kill-switch absence, limit headroom.
// The primary replica write is all-or-nothing; payload and spread failures
// never unwind it.
func (e *Engine) ReplicateOnce(opts Options) (*Result, error) {
	if !e.mgr.Exists() {
		return nil, ErrNotInitialized
	}
	if e.mgr.KillSwitchPresent() {
		e.log.Info("kill-switch present, replication blocked")
		return &Result{Outcome: OutcomeBlocked}, nil
	}

	idx, err := e.nextIndex()
	if err != nil {
		return nil, err
	}
	limit := e.mgr.Config().Limit
	if idx > limit {
		e.log.Info("replication limit reached, no action taken", "limit", limit)
		return &Result{Outcome: OutcomeLimitReached}, nil
	}

	src, err := e.sourcePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading source artifact: %w", err)
	}
	// Source checksum covers the artifact as read, before any mutation, so
	// the audit line shows the variance a mutated replica introduces.
	srcSum := checksumBytes(data)
	if opts.Mutate {
		data = mutate(data)
	}

	paths := e.mgr.Paths()
	dst := filepath.Join(paths.Replicas, replicaName(idx))
	ok, err := confine.Within(dst, paths.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}
	if !ok {
		err := &ConfinementError{Path: dst, Root: paths.Root}
		e.log.Error("replica destination escaped sandbox, replication aborted", "dest", dst)
		return nil, err
	}

	if err := atomicWrite(dst, data); err != nil {
		return nil, fmt.Errorf("writing replica: %w", err)
	}

	dstSum, err := checksumFile(dst)
	if err != nil {
		return nil, fmt.Errorf("verifying replica: %w", err)
	}
	e.log.Info("replicated", "dest", dst, "src_sha256", srcSum, "dst_sha256", dstSum)

	res := &Result{
		Outcome:   OutcomeReplicated,
		Index:     idx,
		Dest:      dst,
		SourceSum: srcSum,
		DestSum:   dstSum,
	}

	if opts.Payload {
		if err := e.dropPayload(paths.Replicas); err != nil {
			e.log.Warn("payload write failed", "dir", paths.Replicas, "error", err)
			res.PayloadErr = err
		}
	}

	if opts.Spread {
		for i := 1; i <= e.mgr.Config().HostCount; i++ {
			res.Hosts = append(res.Hosts, e.spreadTo(i, idx, data, opts.Payload))
		}
	}

	return res, nil
}

// atomicWrite writes data to a temporary file in dst's directory, then
// renames it onto dst. An observer never sees a partially written replica.
func atomicWrite(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-replica-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func checksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checksumFile recomputes a file's SHA-256 from disk; sums are never cached.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
