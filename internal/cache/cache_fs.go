package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/logger"
)

// This cache uses information from the "stat" syscall to try to avoid re-
// reading files from the file system during subsequent builds if the file
// hasn't changed. The assumption is reading the file metadata is faster than
// reading the file contents.
type FSCache struct {
	entries *lru.Cache[string, *fsEntry]
}

type fsEntry struct {
	contents string
	modKey   fs.ModKey
}

func (c *FSCache) ReadFile(fs fs.FS, path string) (string, error) {
	// If the file's modification key hasn't changed since it was cached, assume
	// the contents of the file are also the same and skip reading the file.
	modKey, modKeyErr := fs.ModKey(path)
	if entry, ok := c.entries.Get(path); ok && modKeyErr == nil && entry.modKey == modKey {
		logger.Zap().Debug("file cache hit", zap.String("path", path))
		return entry.contents, nil
	}

	contents, err := fs.ReadFile(path)
	if err != nil {
		return "", err
	}

	if modKeyErr == nil {
		c.entries.Add(path, &fsEntry{contents: contents, modKey: modKey})
	} else {
		c.entries.Remove(path)
	}
	return contents, nil
}
