package storage

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/hyperjump/tansaku/internal/config"
)

// IndexPaths returns the on-disk paths used by the configured backend: the bleve index
// directory, or the SQLite database with its -wal and -shm files. In-memory backends have none.
func IndexPaths(cfg config.StorageConfig) []string {
	if cfg.Backend == BleveBackendName {
		if cfg.BleveIndexPath == "" {
			return nil
		}
		return []string{cfg.BleveIndexPath}
	}
	if cfg.DatabasePath == "" || cfg.DatabasePath == ":memory:" {
		return nil
	}
	return []string{cfg.DatabasePath, cfg.DatabasePath + "-wal", cfg.DatabasePath + "-shm"}
}

// DiskUsage reports the bytes the configured backend occupies on disk. Index files that do
// not exist yet count as 0.
func DiskUsage(cfg config.StorageConfig) (int64, error) {
	var total int64
	for _, root := range IndexPaths(cfg) {
		err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}
