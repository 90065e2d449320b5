package fs

import (
	"errors"
	"path"
	"strings"
	"syscall"
)

// An in-memory file system for tests. Paths use forward slashes and every
// ancestor directory of a file exists implicitly.
type mockFS struct {
	files map[string]string
	dirs  map[string]map[string]EntryKind
	cwd   string
}

func MockFS(files map[string]string, cwd string) FS {
	m := &mockFS{
		files: make(map[string]string, len(files)),
		dirs:  make(map[string]map[string]EntryKind),
		cwd:   cwd,
	}
	for file, contents := range files {
		m.files[file] = contents
		m.link(file, FileEntry)
	}
	return m
}

// Records "child" in its parent directory, creating ancestors as needed
func (m *mockFS) link(child string, kind EntryKind) {
	parent := path.Dir(child)
	if _, ok := m.dirs[parent]; !ok {
		m.dirs[parent] = make(map[string]EntryKind)
		if parent != child {
			m.link(parent, DirEntry)
		}
	}
	if parent != child {
		m.dirs[parent][path.Base(child)] = kind
	}
}

func (m *mockFS) ReadDirectory(dir string) (map[string]EntryKind, error) {
	if entries, ok := m.dirs[dir]; ok {
		return entries, nil
	}
	return nil, syscall.ENOENT
}

func (m *mockFS) ReadFile(file string) (string, error) {
	if contents, ok := m.files[file]; ok {
		return contents, nil
	}
	return "", syscall.ENOENT
}

func (*mockFS) ModKey(string) (ModKey, error) {
	return ModKey{}, errors.New("Modification keys aren't available in memory")
}

func (*mockFS) IsAbs(p string) bool { return path.IsAbs(p) }
func (*mockFS) Dir(p string) string { return path.Dir(p) }
func (*mockFS) Base(p string) string { return path.Base(p) }
func (*mockFS) Ext(p string) string { return path.Ext(p) }
func (m *mockFS) Cwd() string { return m.cwd }

func (m *mockFS) Abs(p string) (string, bool) {
	if !path.IsAbs(p) {
		p = path.Join(m.cwd, p)
	}
	return path.Clean("/" + p), true
}

func (*mockFS) Join(parts ...string) string {
	return path.Join(parts...)
}

func (*mockFS) Rel(base string, target string) (string, bool) {
	base, target = path.Clean(base), path.Clean(target)
	if base == "." {
		return target, true
	}
	if base == target {
		return ".", true
	}

	baseParts := splitPath(base)
	targetParts := splitPath(target)
	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	var rel []string
	for range baseParts[common:] {
		rel = append(rel, "..")
	}
	rel = append(rel, targetParts[common:]...)
	return strings.Join(rel, "/"), true
}
