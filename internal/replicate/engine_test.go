package replicate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zpdzap/replicant/internal/config"
	"github.com/zpdzap/replicant/internal/logging"
	"github.com/zpdzap/replicant/internal/sandbox"
)

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *sandbox.Manager) {
	t.Helper()
	dir := t.TempDir()

	mgr, err := sandbox.NewManager(dir, cfg, logging.Default())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	src := filepath.Join(dir, "artifact")
	if err := os.WriteFile(src, []byte("#!/bin/true\nharmless demo artifact\n"), 0o755); err != nil {
		t.Fatalf("writing source artifact: %v", err)
	}

	e := NewEngine(mgr, logging.Default())
	e.Source = src
	return e, mgr
}

func TestReplicateNotInitialized(t *testing.T) {
	e, _ := newTestEngine(t, config.Default())
	_, err := e.ReplicateOnce(Options{})
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestReplicateBlockedByKillSwitch(t *testing.T) {
	e, mgr := newTestEngine(t, config.Default())
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, opts := range []Options{{}, {Mutate: true}, {Spread: true, Payload: true}} {
		res, err := e.ReplicateOnce(opts)
		if err != nil {
			t.Fatalf("ReplicateOnce(%+v): %v", opts, err)
		}
		if res.Outcome != OutcomeBlocked {
			t.Errorf("Outcome = %q, want %q", res.Outcome, OutcomeBlocked)
		}
	}

	entries, err := os.ReadDir(mgr.Paths().Replicas)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("blocked replication created %d files", len(entries))
	}
}

func TestReplicateUpToLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Limit = 2
	e, mgr := newTestEngine(t, cfg)
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := mgr.Disarm(); err != nil {
		t.Fatalf("Disarm: %v", err)
	}

	for want := 1; want <= cfg.Limit; want++ {
		res, err := e.ReplicateOnce(Options{})
		if err != nil {
			t.Fatalf("ReplicateOnce #%d: %v", want, err)
		}
		if res.Outcome != OutcomeReplicated {
			t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeReplicated)
		}
		if res.Index != want {
			t.Errorf("Index = %d, want %d", res.Index, want)
		}
		if filepath.Base(res.Dest) != replicaName(want) {
			t.Errorf("Dest = %q, want name %q", res.Dest, replicaName(want))
		}
	}

	res, err := e.ReplicateOnce(Options{})
	if err != nil {
		t.Fatalf("ReplicateOnce past limit: %v", err)
	}
	if res.Outcome != OutcomeLimitReached {
		t.Errorf("Outcome = %q, want %q", res.Outcome, OutcomeLimitReached)
	}

	entries, _ := os.ReadDir(mgr.Paths().Replicas)
	if len(entries) != cfg.Limit {
		t.Errorf("replica count = %d, want %d", len(entries), cfg.Limit)
	}
}

func TestChecksumsMatchDisk(t *testing.T) {
	e, mgr := newTestEngine(t, config.Default())
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	res, err := e.ReplicateOnce(Options{})
	if err != nil {
		t.Fatalf("ReplicateOnce: %v", err)
	}

	onDisk, err := checksumFile(res.Dest)
	if err != nil {
		t.Fatalf("checksumFile: %v", err)
	}
	if onDisk != res.DestSum {
		t.Errorf("disk checksum %s != logged checksum %s", onDisk, res.DestSum)
	}
	if res.SourceSum != res.DestSum {
		t.Errorf("unmutated replica checksum should equal source checksum")
	}
}

func TestMutateVariesChecksum(t *testing.T) {
	cfg := config.Default()
	cfg.Limit = 4
	e, mgr := newTestEngine(t, cfg)
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	run := func(opts Options) *Result {
		t.Helper()
		res, err := e.ReplicateOnce(opts)
		if err != nil {
			t.Fatalf("ReplicateOnce(%+v): %v", opts, err)
		}
		return res
	}

	plain1 := run(Options{})
	plain2 := run(Options{})
	if plain1.DestSum != plain2.DestSum {
		t.Error("unmutated replicas from the same source must have identical checksums")
	}

	mut1 := run(Options{Mutate: true})
	mut2 := run(Options{Mutate: true})
	if mut1.DestSum == mut2.DestSum {
		t.Error("mutated replicas must have different checksums")
	}
	if mut1.DestSum == plain1.DestSum {
		t.Error("mutated replica should differ from plain replica")
	}

	// The audit pair must expose the variance: source sum stays that of the
	// artifact on disk, destination sum reflects the mutated bytes.
	srcOnDisk, err := checksumFile(e.Source)
	if err != nil {
		t.Fatalf("checksumFile: %v", err)
	}
	if mut1.SourceSum != srcOnDisk {
		t.Errorf("SourceSum = %s, want artifact checksum %s", mut1.SourceSum, srcOnDisk)
	}
	if mut1.SourceSum == mut1.DestSum {
		t.Error("mutated replica checksum must differ from the source checksum")
	}

	// The mutation is a trailer: the original bytes are an exact prefix.
	src, _ := os.ReadFile(e.Source)
	got, _ := os.ReadFile(mut1.Dest)
	if len(got) <= len(src) || string(got[:len(src)]) != string(src) {
		t.Error("mutation must only append to the source bytes")
	}
}

func TestIndexRestartsAfterCleanup(t *testing.T) {
	e, mgr := newTestEngine(t, config.Default())
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	if _, err := e.ReplicateOnce(Options{}); err != nil {
		t.Fatalf("ReplicateOnce: %v", err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	mgr.Disarm()

	res, err := e.ReplicateOnce(Options{})
	if err != nil {
		t.Fatalf("ReplicateOnce after cleanup: %v", err)
	}
	if res.Index != 1 {
		t.Errorf("Index = %d, want 1 after cleanup", res.Index)
	}
}

func TestSpreadAndPayload(t *testing.T) {
	cfg := config.Default()
	cfg.HostCount = 2
	e, mgr := newTestEngine(t, cfg)
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	res, err := e.ReplicateOnce(Options{Spread: true, Payload: true})
	if err != nil {
		t.Fatalf("ReplicateOnce: %v", err)
	}
	if res.Outcome != OutcomeReplicated {
		t.Fatalf("Outcome = %q", res.Outcome)
	}
	if res.PayloadErr != nil {
		t.Errorf("PayloadErr = %v", res.PayloadErr)
	}
	if len(res.Hosts) != cfg.HostCount {
		t.Fatalf("spread to %d hosts, want %d", len(res.Hosts), cfg.HostCount)
	}

	p := mgr.Paths()
	if _, err := os.Stat(filepath.Join(p.Replicas, PayloadName)); err != nil {
		t.Error("payload note missing from replica dir")
	}
	for i := 1; i <= cfg.HostCount; i++ {
		if res.Hosts[i-1].Err != nil {
			t.Errorf("host %d: %v", i, res.Hosts[i-1].Err)
		}
		if _, err := os.Stat(filepath.Join(p.HostReplicaDir(i), replicaName(1))); err != nil {
			t.Errorf("host %d missing replica: %v", i, err)
		}
		if _, err := os.Stat(filepath.Join(p.HostReplicaDir(i), PayloadName)); err != nil {
			t.Errorf("host %d missing payload note: %v", i, err)
		}
	}
}

func TestSpreadPartialFailure(t *testing.T) {
	cfg := config.Default()
	cfg.HostCount = 2
	e, mgr := newTestEngine(t, cfg)
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	// Replace host 1's replica dir with a file so its write fails.
	p := mgr.Paths()
	if err := os.RemoveAll(p.HostReplicaDir(1)); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := os.WriteFile(p.HostReplicaDir(1), []byte("in the way"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := e.ReplicateOnce(Options{Spread: true})
	if err != nil {
		t.Fatalf("ReplicateOnce: %v", err)
	}
	if res.Outcome != OutcomeReplicated {
		t.Fatalf("primary replication must survive a host failure, got %q", res.Outcome)
	}
	if res.Hosts[0].Err == nil {
		t.Error("host 1 should have failed")
	}
	if res.Hosts[1].Err != nil {
		t.Errorf("host 2 should have succeeded: %v", res.Hosts[1].Err)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	e, mgr := newTestEngine(t, config.Default())
	if err := mgr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mgr.Disarm()

	if _, err := e.ReplicateOnce(Options{}); err != nil {
		t.Fatalf("ReplicateOnce: %v", err)
	}

	entries, _ := os.ReadDir(mgr.Paths().Replicas)
	for _, entry := range entries {
		if !replicaPattern.MatchString(entry.Name()) {
			t.Errorf("unexpected leftover in replica dir: %s", entry.Name())
		}
	}
}
