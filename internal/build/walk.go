// # internal/build/walk.go
package build

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// Entry is one file found under the source root together with the mirrored
// directory its outputs go to.
type Entry struct {
	InputPath string
	Name      string
	OutDir    string
}

type walkOptions struct {
	skipDir  func(name string) bool
	skipFile func(path string) bool
}

type WalkOption func(*walkOptions)

// SkipDirs prunes every directory whose base name matches skip. The root
// itself is never pruned.
func SkipDirs(skip func(name string) bool) WalkOption {
	return func(o *walkOptions) {
		o.skipDir = skip
	}
}

// SkipFiles drops every file whose path matches skip.
func SkipFiles(skip func(path string) bool) WalkOption {
	return func(o *walkOptions) {
		o.skipFile = skip
	}
}

// Walk lazily visits srcRoot. The mirror of every visited directory is created
// under outRoot before any file inside it is yielded. An outRoot nested inside
// srcRoot is not descended into. Iteration stops at the first error.
func Walk(srcRoot, outRoot string, opts ...WalkOption) iter.Seq2[Entry, error] {
	var o walkOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(Entry, error) bool) {
		src := filepath.Clean(srcRoot)
		out := filepath.Clean(outRoot)
		absOut, _ := filepath.Abs(out)
		stopped := false

		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != src {
					if abs, _ := filepath.Abs(path); abs == absOut {
						return filepath.SkipDir
					}
					if o.skipDir != nil && o.skipDir(d.Name()) {
						return filepath.SkipDir
					}
				}
				if err := os.MkdirAll(filepath.Join(out, rel), 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			if o.skipFile != nil && o.skipFile(path) {
				return nil
			}

			entry := Entry{
				InputPath: path,
				Name:      d.Name(),
				OutDir:    filepath.Join(out, filepath.Dir(rel)),
			}
			if !yield(entry, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})

		if err != nil && !stopped {
			yield(Entry{}, err)
		}
	}
}
