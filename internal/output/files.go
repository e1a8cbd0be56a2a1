package output

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fsError(err, "failed to write file", path)
	}
	return nil
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory and a rename, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fsError(err, "failed to create temporary file", dir)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fsError(err, "failed to write temporary file", name)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fsError(err, "failed to close temporary file", name)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		cleanup()
		return fsError(err, "failed to set file mode", name)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fsError(err, "failed to replace file", path)
	}
	return nil
}

// CopyDir recursively copies a directory tree. A missing src is not an error.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fsError(err, "failed to stat directory", src)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return fsError(err, "failed to create directory", dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fsError(err, "failed to read directory", src)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return fsError(err, "failed to copy file", srcPath)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}

// ReplaceDir makes dst an exact copy of src. A missing src removes dst.
func ReplaceDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fsError(err, "failed to remove directory", dst)
	}
	return CopyDir(src, dst)
}

// RemoveFiles deletes the given output relative files under root and any
// directories left empty by that. Missing files are skipped. It returns the
// number of files removed.
func RemoveFiles(root string, rels []string) (int, error) {
	removed := 0
	for _, rel := range rels {
		path := Join(root, rel)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fsError(err, "failed to remove stale file", path)
		}
		removed++
		removeEmptyParents(root, filepath.Dir(path))
	}
	return removed, nil
}

// PruneUnlisted deletes every file below dir whose path relative to root is
// not in keep. It returns the removed relative paths in lexical order.
func PruneUnlisted(root, dir string, keep map[string]bool) ([]string, error) {
	var stale []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !keep[filepath.ToSlash(rel)] {
			stale = append(stale, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fsError(err, "failed to scan directory", dir)
	}
	sort.Strings(stale)
	if _, err := RemoveFiles(root, stale); err != nil {
		return nil, err
	}
	return stale, nil
}

func removeEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir != root && len(dir) > len(root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
