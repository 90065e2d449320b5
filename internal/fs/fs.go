package fs

import (
	"errors"
	"strings"
)

type EntryKind uint8

const (
	DirEntry  EntryKind = 1
	FileEntry EntryKind = 2
)

type FS interface {
	// Callers must not modify the returned map. Symlinks are reported as the
	// kind of their target.
	ReadDirectory(path string) (map[string]EntryKind, error)
	ReadFile(path string) (string, error)

	// A key built from "stat" that changes when the file is edited. An error
	// means the file can't be keyed reliably and must be read every time.
	ModKey(path string) (ModKey, error)

	// Path manipulation goes through the file system so that the in-memory
	// one can use forward slashes on every platform
	IsAbs(path string) bool
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}

// Kind returns the kind of the entry at a path, or zero if there is none
func Kind(fs FS, path string) EntryKind {
	entries, err := fs.ReadDirectory(fs.Dir(path))
	if err != nil {
		return 0
	}
	return entries[fs.Base(path)]
}

// ModKey identifies one version of a file's contents without reading them
type ModKey struct {
	inode     uint64
	size      int64
	mtimeSec  int64
	mtimeNsec int64
}

// A file system may only store mtimes to the nearest few seconds, so a file
// written within this window could be edited again without changing its
// mtime. Such files get no key.
const modKeySafetyGap = 3 // In seconds

var errModKeyUnusable = errors.New("The modification key is unusable")

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
