//go:build darwin || linux

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

func modKey(path string) (ModKey, error) {
	stat := unix.Stat_t{}
	if err := unix.Stat(path, &stat); err != nil {
		return ModKey{}, err
	}

	mtime := time.Unix(int64(stat.Mtim.Sec), int64(stat.Mtim.Nsec))
	if mtime.Unix() == 0 || mtime.Add(modKeySafetyGap*time.Second).After(time.Now()) {
		return ModKey{}, errModKeyUnusable
	}

	return ModKey{
		inode:     uint64(stat.Ino),
		size:      int64(stat.Size),
		mtimeSec:  mtime.Unix(),
		mtimeNsec: int64(mtime.Nanosecond()),
	}, nil
}
