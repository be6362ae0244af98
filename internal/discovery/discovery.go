// Package discovery finds the input documents of a load run.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Group is one child directory of the input root that holds a marker
// directory, such as a commune folder with an xml/ subfolder.
type Group struct {
	// Name is the child directory name.
	Name string
	// Dir is the marker directory inside it.
	Dir string
}

// FindMarkedDirs returns the immediate child directories of root that
// contain a directory named marker, ordered by name. Children without the
// marker are skipped and never descended into. Symlinks are followed for
// both the child and the marker.
func FindMarkedDirs(root, marker string) ([]Group, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var groups []Group
	for _, e := range entries {
		// a plain file child fails the marker stat below
		dir := filepath.Join(root, e.Name(), marker)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		groups = append(groups, Group{Name: e.Name(), Dir: dir})
	}
	return groups, nil
}

// CollectFiles returns every file under dir whose name ends with ext,
// recursively and sorted by path. Symlinks to files are included; symlinked
// directories are not descended into.
func CollectFiles(dir, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		if isFile(path, d) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
