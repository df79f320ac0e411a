package derived

import (
	"fmt"
	"os"
	"path/filepath"
)

// atomicWrite writes data to dest via a temp-file-then-rename, the same
// discipline internal/artifact's store uses for every artifact write, so a
// crash mid-write never leaves a truncated sibling or cache file visible.
func atomicWrite(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// cleanStaleTemp removes any stray .tmp-* files left under dir by a crash
// mid-write, so startup never leaves orphaned temp files behind.
func cleanStaleTemp(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			cleanStaleTemp(filepath.Join(dir, e.Name()))
			continue
		}
		if len(e.Name()) > 5 && e.Name()[:5] == ".tmp-" {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}
