package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zpdzap/replicant/internal/config"
	"github.com/zpdzap/replicant/internal/logging"
)

// Manager owns the sandbox directory tree: creation, the kill-switch marker,
// the manifest record and the mock host directories. The tree is exclusively
// owned by this tool; nothing else may write there.
type Manager struct {
	cfg   *config.Config
	log   *logging.Logger
	paths Paths
}

// NewManager resolves the sandbox layout relative to baseDir. The config must
// already be validated.
func NewManager(baseDir string, cfg *config.Config, log *logging.Logger) (*Manager, error) {
	root, err := filepath.Abs(filepath.Join(baseDir, cfg.Sandbox))
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	return &Manager{
		cfg: cfg,
		log: log,
		paths: Paths{
			Root:      root,
			Replicas:  filepath.Join(root, cfg.ReplicaDir),
			Marker:    filepath.Join(root, cfg.Marker),
			HostsRoot: filepath.Join(root, cfg.HostsRoot),
			Log:       filepath.Join(root, cfg.LogFile),
		},
	}, nil
}

// Paths returns the resolved sandbox locations.
func (m *Manager) Paths() Paths { return m.paths }

// Config returns the validated configuration the manager was built with.
func (m *Manager) Config() *config.Config { return m.cfg }

// Exists reports whether the sandbox root is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.paths.Root)
	return err == nil
}

// KillSwitchPresent reports whether the marker file exists right now.
// Presence, not content, is what halts replication.
func (m *Manager) KillSwitchPresent() bool {
	_, err := os.Stat(m.paths.Marker)
	return err == nil
}

func (m *Manager) markerText() string {
	return fmt.Sprintf(
		"This %s file prevents replication. Remove it to allow up to %d harmless copies.\n",
		m.cfg.Marker, m.cfg.Limit)
}

// Init creates the sandbox tree. It is idempotent: an existing kill-switch is
// never overwritten, existing replicas are never deleted, and the manifest is
// rewritten with the current configuration. Re-running init while the marker
// is absent recreates it (re-arms the safety rail).
func (m *Manager) Init() error {
	if err := os.MkdirAll(m.paths.Replicas, 0o755); err != nil {
		return fmt.Errorf("creating replica dir: %w", err)
	}

	if !m.KillSwitchPresent() {
		if err := os.WriteFile(m.paths.Marker, []byte(m.markerText()), 0o644); err != nil {
			return fmt.Errorf("creating kill-switch: %w", err)
		}
	}

	if err := writeManifest(m.paths.Root, newManifest(m.cfg.Limit)); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for i := 1; i <= m.cfg.HostCount; i++ {
		if err := os.MkdirAll(m.paths.HostReplicaDir(i), 0o755); err != nil {
			return fmt.Errorf("creating host %d: %w", i, err)
		}
	}

	m.AttachLog()
	m.log.Info("sandbox ready", "root", m.paths.Root, "kill_switch", true, "hosts", m.cfg.HostCount)
	return nil
}

// AttachLog mirrors log lines into the sandbox's append-only logfile.
// Best-effort and idempotent: a no-op until the sandbox exists, and the demo
// keeps running on stderr alone if the file won't open.
func (m *Manager) AttachLog() {
	if !m.Exists() {
		return
	}
	if err := m.log.AttachFile(m.paths.Log); err != nil {
		m.log.Warn("file logger not attached", "error", err)
	}
}

// Cleanup resets an existing sandbox: the kill-switch is restored first so
// that even a partial cleanup leaves replication blocked, then replicas and
// host trees are removed. An empty hosts root is recreated so host slots
// survive for the next init. Cleaning up a sandbox that was never initialized
// is an error, not an excuse to create one.
func (m *Manager) Cleanup() error {
	if !m.Exists() {
		return fmt.Errorf("sandbox %s does not exist", m.paths.Root)
	}
	if err := os.WriteFile(m.paths.Marker, []byte(m.markerText()), 0o644); err != nil {
		return fmt.Errorf("restoring kill-switch: %w", err)
	}

	if err := os.RemoveAll(m.paths.Replicas); err != nil {
		return fmt.Errorf("removing replicas: %w", err)
	}
	if err := os.RemoveAll(m.paths.HostsRoot); err != nil {
		return fmt.Errorf("removing hosts: %w", err)
	}
	if err := os.MkdirAll(m.paths.HostsRoot, 0o755); err != nil {
		return fmt.Errorf("recreating hosts root: %w", err)
	}

	m.log.Info("cleanup done, kill-switch restored", "root", m.paths.Root)
	return nil
}

// Arm places the kill-switch marker, halting replication.
func (m *Manager) Arm() error {
	if m.KillSwitchPresent() {
		return nil
	}
	if err := os.WriteFile(m.paths.Marker, []byte(m.markerText()), 0o644); err != nil {
		return fmt.Errorf("arming kill-switch: %w", err)
	}
	m.log.Info("kill-switch armed", "marker", m.paths.Marker)
	return nil
}

// Disarm removes the kill-switch marker, permitting replication up to the
// configured limit.
func (m *Manager) Disarm() error {
	if err := os.Remove(m.paths.Marker); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disarming kill-switch: %w", err)
	}
	m.log.Info("kill-switch disarmed", "marker", m.paths.Marker)
	return nil
}
