package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/solvi-app/vatscan/constants"
)

// ListImages walks root and returns every scannable image, skipping hidden
// files and directories.
func ListImages(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if isHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if constants.IsAllowedExt(filepath.Ext(path)) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
