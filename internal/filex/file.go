// Package filex resolves and creates the client's local state directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir with owner-only permissions if needed and returns
// its absolute path. A relative dir is resolved against the working
// directory; a leading "~/" against the user's home.
func EnsureDir(dir string) (string, error) {
	resolved, err := resolve(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(resolved, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", resolved, err)
	}

	return resolved, nil
}

func resolve(dir string) (string, error) {
	if len(dir) >= 2 && dir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		return filepath.Join(home, dir[2:]), nil
	}

	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(cwd, dir), nil
}
