package selection

import (
	"fmt"
	"os"
	"path/filepath"
)

// uniqueDestPath returns a destination path inside destDir for an entry
// named name that does not collide with anything already there. On
// conflict the name gets a space and an incrementing integer before the
// extension ("file.txt" → "file 2.txt" → "file 3.txt"); directories take
// the suffix with no extension handling. Existing files are never touched.
func uniqueDestPath(destDir, name string, isDir bool) string {
	candidate := filepath.Join(destDir, name)
	if !pathExists(candidate) {
		return candidate
	}

	ext := ""
	stem := name
	if !isDir {
		ext = filepath.Ext(name)
		stem = name[:len(name)-len(ext)]
	}

	for n := 2; ; n++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s %d%s", stem, n, ext))
		if !pathExists(candidate) {
			return candidate
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
