// Package discovery locates the Compose project files the chaos run acts on.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoComposeFile indicates that no Compose file was found in the project root.
var ErrNoComposeFile = errors.New("no compose file discovered")

// candidates lists default file names in the order Compose itself prefers them.
var candidates = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// ComposeFiles returns Compose file paths. If explicit paths are provided
// they are validated and returned in the order given. Otherwise the first
// default file name present in root is returned, followed by its
// ".override" sibling when one exists.
func ComposeFiles(root string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	for _, name := range candidates {
		path := filepath.Join(root, name)
		if !isFile(path) {
			continue
		}
		found := []string{name}
		ext := filepath.Ext(name)
		override := strings.TrimSuffix(name, ext) + ".override" + ext
		if isFile(filepath.Join(root, override)) {
			found = append(found, override)
		}
		return found, nil
	}
	return nil, ErrNoComposeFile
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	for _, input := range explicit {
		cleaned := input
		if !filepath.IsAbs(cleaned) {
			cleaned = filepath.Join(root, cleaned)
		}
		info, err := os.Stat(cleaned)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("compose file %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("compose file %q is a directory", input)
		}
		rel := mustRelOrClean(root, cleaned)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}
	if len(resolved) == 0 {
		return nil, ErrNoComposeFile
	}
	return resolved, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
