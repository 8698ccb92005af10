package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/emlapp/pkg/adapters/fs"
)

// FindOutputRoot looks upwards from startDir for a directory holding an
// extraction manifest ({dir}/.emlapp/manifest.json) and returns its
// absolute path.
func FindOutputRoot(startDir, systemDir string) (string, error) {
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(filepath.Join(dir, systemDir), "manifest.json") {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no extracted package found above %s", startDir)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
