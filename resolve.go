package binsvc

import (
	"os"
	"path/filepath"
	"regexp"
)

// binaryNameRE restricts logical binary names to safe characters: no
// extension, no path separators, nothing the shell or filesystem could
// reinterpret.
var binaryNameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validBinaryName(name string) bool {
	return binaryNameRE.MatchString(name)
}

// resolveBinary searches for the executable behind a logical name.
// Search order: <root>/bin/<platform>/<name>, then <root>/bin/<name>.
// On windows the name gets an .exe suffix. First existing regular file wins.
func resolveBinary(root, platform, name string) (string, bool) {
	file := name
	if platform == "windows" {
		file += ".exe"
	}

	candidates := []string{
		filepath.Join(root, "bin", platform, file),
		filepath.Join(root, "bin", file),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
