// Package confine decides whether a candidate path resolves inside a
// designated ancestor directory. Every write in this tool goes through
// Within immediately before it happens.
package confine

import (
	"os"
	"path/filepath"
	"strings"
)

// Within reports whether candidate, once canonicalized, is equal to or
// nested beneath ancestor. Symlinks and ".." segments are resolved, so a
// symlink pointing out of the ancestor fails the check.
func Within(candidate, ancestor string) (bool, error) {
	resolvedAncestor, err := resolve(ancestor)
	if err != nil {
		return false, err
	}
	resolvedCandidate, err := resolve(candidate)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(resolvedAncestor, resolvedCandidate)
	if err != nil {
		return false, nil
	}
	if rel == "." {
		return true, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return !filepath.IsAbs(rel), nil
}

// resolve canonicalizes path by walking it one component at a time, following
// symlinks on each existing prefix before the next component applies. That
// ordering matters: a ".." after a symlink must back out of the symlink's
// physical target, not the lexical path. The deepest components may not exist
// yet (replica destinations are checked before creation); those accumulate
// as-is.
func resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = cwd + string(filepath.Separator) + path
	}

	cur := string(filepath.Separator)
	if vol := filepath.VolumeName(path); vol != "" {
		cur = vol + string(filepath.Separator)
		path = path[len(vol):]
	}

	for _, comp := range strings.Split(path, string(filepath.Separator)) {
		switch comp {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}
		cur = filepath.Join(cur, comp)
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			cur = resolved
			continue
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	return cur, nil
}
