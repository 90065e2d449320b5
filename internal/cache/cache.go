package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheSet holds what can be reused between builds. Entries are keyed by
// absolute path and checked against the current file before reuse, so a
// stale entry costs a re-read and never a wrong answer.
//
// The cached information must not depend on any file other than the one it
// is keyed by. Invalidating an entry doesn't invalidate anything derived from
// it.
type CacheSet struct {
	FSCache        *FSCache
	TransformCache *TransformCache
}

const DefaultSize = 4096

func MakeCacheSet(size int) *CacheSet {
	if size <= 0 {
		size = DefaultSize
	}
	return &CacheSet{
		FSCache:        &FSCache{entries: newLRU[*fsEntry](size)},
		TransformCache: &TransformCache{entries: newLRU[*transformEntry](size)},
	}
}

func newLRU[V any](size int) *lru.Cache[string, V] {
	entries, err := lru.New[string, V](size)
	if err != nil {
		// Only fails for a non-positive size
		panic("Internal error: " + err.Error())
	}
	return entries
}
