package dynload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OpenManifest loads a directory-packaged module: module.json names the
// entry chunk, and the factory record inside it must agree with the manifest
// about the module's identity.
func OpenManifest(dir string, opts ...Option) (*Library, error) {
	m, err := LoadManifestFromDir(dir)
	if err != nil {
		return nil, err
	}
	lib, err := Open(m.MainPath(), opts...)
	if err != nil {
		return nil, err
	}
	if lib.Name() != m.Name || lib.Version() != m.Version {
		lib.Close()
		return nil, fmt.Errorf("%w: manifest says %s, factory says %s v%s",
			ErrMalformedFactory, m, lib.Name(), lib.Version())
	}
	return lib, nil
}

// OpenDir loads every dynamic module under dir: top-level *.lua files plus
// subdirectories carrying a module.json. A module that fails to load does not
// stop the scan; the failures come back joined alongside the libraries that
// did load.
func OpenDir(dir string, opts ...Option) ([]*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	var libs []*Library
	var errs []error
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			if _, statErr := os.Stat(filepath.Join(path, "module.json")); statErr != nil {
				continue
			}
			lib, err := OpenManifest(path, opts...)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
				continue
			}
			libs = append(libs, lib)
		case strings.HasSuffix(e.Name(), ".lua"):
			lib, err := Open(path, opts...)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
				continue
			}
			libs = append(libs, lib)
		}
	}
	return libs, errors.Join(errs...)
}
