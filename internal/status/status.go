// Package status derives the sandbox's current state purely by re-reading
// the filesystem. Nothing is cached between calls, so the report always
// reflects on-disk truth, including manual edits like a hand-deleted marker.
package status

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/zpdzap/replicant/internal/sandbox"
)

var replicaPattern = regexp.MustCompile(`^replica-[0-9]+$`)

// Replica is one on-disk replica with its checksum recomputed from disk.
type Replica struct {
	Name   string
	SHA256 string
}

// Host summarizes one mock spread target.
type Host struct {
	Name  string
	Count int
}

// Report is a point-in-time snapshot of the sandbox.
type Report struct {
	Initialized bool
	Sandbox     string
	KillSwitch  bool
	Limit       int
	Replicas    []Replica
	Hosts       []Host
}

// Collect builds a fresh report from disk.
func Collect(paths sandbox.Paths, limit int) (*Report, error) {
	r := &Report{Sandbox: paths.Root, Limit: limit}

	if _, err := os.Stat(paths.Root); err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("checking sandbox: %w", err)
	}
	r.Initialized = true

	_, err := os.Stat(paths.Marker)
	r.KillSwitch = err == nil

	replicas, err := listReplicas(paths.Replicas)
	if err != nil {
		return nil, err
	}
	for _, name := range replicas {
		sum, err := checksumFile(filepath.Join(paths.Replicas, name))
		if err != nil {
			return nil, fmt.Errorf("checksumming %s: %w", name, err)
		}
		r.Replicas = append(r.Replicas, Replica{Name: name, SHA256: sum})
	}

	hosts, err := listHosts(paths)
	if err != nil {
		return nil, err
	}
	r.Hosts = hosts

	return r, nil
}

func listReplicas(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing replicas: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && replicaPattern.MatchString(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return replicaIndex(names[i]) < replicaIndex(names[j])
	})
	return names, nil
}

func replicaIndex(name string) int {
	n := 0
	fmt.Sscanf(name, "replica-%d", &n)
	return n
}

func listHosts(paths sandbox.Paths) ([]Host, error) {
	entries, err := os.ReadDir(paths.HostsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing hosts: %w", err)
	}
	var hosts []Host
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "host_") {
			continue
		}
		repDir := filepath.Join(paths.HostsRoot, entry.Name(), filepath.Base(paths.Replicas))
		replicas, err := listReplicas(repDir)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, Host{Name: entry.Name(), Count: len(replicas)})
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })
	return hosts, nil
}

// Render formats the report as plain, uncolored text. Styling is the
// presentation layer's job.
func (r *Report) Render() string {
	var b strings.Builder

	if !r.Initialized {
		b.WriteString("Status: sandbox not initialized.\n")
		return b.String()
	}

	b.WriteString("=== STATUS ===\n")
	fmt.Fprintf(&b, "sandbox: %s\n", r.Sandbox)
	fmt.Fprintf(&b, "kill-switch present: %v\n", r.KillSwitch)
	fmt.Fprintf(&b, "limit: %d\n", r.Limit)
	fmt.Fprintf(&b, "replicas: %d\n", len(r.Replicas))
	for _, rep := range r.Replicas {
		fmt.Fprintf(&b, " - %s  sha256=%s\n", rep.Name, rep.SHA256)
	}
	if len(r.Hosts) > 0 {
		b.WriteString("hosts:\n")
		for _, h := range r.Hosts {
			fmt.Fprintf(&b, " - %s: %d replicas\n", h.Name, h.Count)
		}
	}
	return b.String()
}

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
