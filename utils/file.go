// Package utils contains small helpers shared by the packages and tests of this module.
package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.viam.com/utils"
)

// ResolveFile returns fn joined to the module root, so tests can name fixtures like
// "etc/configs/default.yaml" regardless of their own directory.
func ResolveFile(fn string) string {
	//nolint:dogsled
	_, thisFile, _, _ := runtime.Caller(0)
	dir, err := filepath.Abs(filepath.Dir(thisFile))
	if err != nil {
		panic(err)
	}
	return filepath.Join(dir, "..", fn)
}

// RemoveFileNoError removes path. A missing file is fine; other failures are reported through
// the unchecked error handler.
func RemoveFileNoError(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		utils.UncheckedError(err)
	}
}
