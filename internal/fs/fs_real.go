package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
)

type dirListing struct {
	entries map[string]EntryKind
	err     error
}

type realFS struct {
	cwd string

	// Directory listings never change during a run. Failed reads are cached
	// too.
	mutex    sync.RWMutex
	listings map[string]dirListing
}

// RealFS is backed by the operating system. The working directory has its
// symlinks resolved so that a module reached through a symlinked working
// directory gets the same id as one reached through the real path.
func RealFS() FS {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = string(filepath.Separator)
	} else if resolved, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = resolved
	}
	return &realFS{cwd: cwd, listings: make(map[string]dirListing)}
}

func (rfs *realFS) ReadDirectory(dir string) (map[string]EntryKind, error) {
	rfs.mutex.RLock()
	listing, ok := rfs.listings[dir]
	rfs.mutex.RUnlock()
	if ok {
		return listing.entries, listing.err
	}

	listing = listDirectory(dir)

	rfs.mutex.Lock()
	defer rfs.mutex.Unlock()
	if existing, ok := rfs.listings[dir]; ok {
		return existing.entries, existing.err
	}
	rfs.listings[dir] = listing
	return listing.entries, listing.err
}

func listDirectory(dir string) dirListing {
	items, err := os.ReadDir(dir)
	if err != nil {
		return dirListing{err: err}
	}
	entries := make(map[string]EntryKind, len(items))
	for _, item := range items {
		mode := item.Type()
		if mode&iofs.ModeSymlink != 0 {
			// Report the kind of the target. Broken links are left out.
			info, err := os.Stat(filepath.Join(dir, item.Name()))
			if err != nil {
				continue
			}
			mode = info.Mode().Type()
		}
		switch {
		case mode.IsDir():
			entries[item.Name()] = DirEntry
		case mode.IsRegular():
			entries[item.Name()] = FileEntry
		}
	}
	return dirListing{entries: entries}
}

func (*realFS) ReadFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	return string(contents), err
}

func (*realFS) ModKey(path string) (ModKey, error) {
	return modKey(path)
}

func (*realFS) IsAbs(path string) bool { return filepath.IsAbs(path) }
func (*realFS) Dir(path string) string { return filepath.Dir(path) }
func (*realFS) Base(path string) string { return filepath.Base(path) }
func (*realFS) Ext(path string) string { return filepath.Ext(path) }
func (rfs *realFS) Cwd() string { return rfs.cwd }

func (rfs *realFS) Abs(path string) (string, bool) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), true
	}
	return filepath.Join(rfs.cwd, path), true
}

func (*realFS) Join(parts ...string) string {
	return filepath.Join(parts...)
}

func (*realFS) Rel(base string, target string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	return rel, err == nil
}
