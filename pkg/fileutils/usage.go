package fileutils

import (
	"io/fs"
	"path/filepath"
)

// DiskUsage sums the size of every entry below dir. Entries that vanish or
// can't be stat'd while walking are skipped.
func DiskUsage(dir string) (int64, error) {
	var total int64

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}

		fi, err := d.Info()
		if err == nil {
			total += fi.Size()
		}
		return nil
	})

	return total, err
}
