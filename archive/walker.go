// Package archive iterates zip bundles, the transport format for batched
// asset uploads.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is called for every regular file in the bundle that matches the
// prefix. Returning an error stops the walk and surfaces that error.
type WalkFunc func(bundle string, file *zip.File) error

// Walk visits all files in the bundle whose names start with prefix, in
// archive order. Entries with path traversal components ("..") or absolute
// paths abort the walk to prevent Zip Slip attacks, directory entries are
// skipped.
func Walk(bundle, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(bundle)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(bundle, f); err != nil {
			return err
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
