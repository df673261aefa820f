package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the record written at the sandbox root on every init.
const ManifestFile = "manifest.json"

// Paths holds the resolved locations under the sandbox root. Every component
// gets these from Manager.Paths — nothing computes them independently.
type Paths struct {
	Root      string // sandbox root
	Replicas  string // replica directory
	Marker    string // kill-switch marker file
	HostsRoot string // mock host tree
	Log       string // append-only demo log
}

// HostDir returns the directory of mock host i (1-based).
func (p Paths) HostDir(i int) string {
	return filepath.Join(p.HostsRoot, fmt.Sprintf("host_%d", i))
}

// HostReplicaDir returns the replica directory of mock host i (1-based).
func (p Paths) HostReplicaDir(i int) string {
	return filepath.Join(p.HostDir(i), filepath.Base(p.Replicas))
}

// Safety is the manifest's safety-flags triple. All three are always false —
// the manifest documents what this demo will never do.
type Safety struct {
	Network             bool `json:"network"`
	Persistence         bool `json:"persistence"`
	PrivilegeEscalation bool `json:"privilege_escalation"`
}

// Manifest describes the sandbox's purpose and bounds.
type Manifest struct {
	Purpose string `json:"purpose"`
	Safety  Safety `json:"safety"`
	Limit   int    `json:"limit"`
	Created string `json:"created"`
}

func newManifest(limit int) Manifest {
	return Manifest{
		Purpose: "Training-only harmless self-replication demo",
		Limit:   limit,
		Created: time.Now().Format(time.RFC3339),
	}
}

func writeManifest(root string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(root, ManifestFile), data, 0o644)
}

// ReadManifest loads the manifest record from the sandbox root.
func ReadManifest(root string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}
