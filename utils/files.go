package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	DefaultDirPerms  = 0o755
	DefaultFilePerms = 0o644
)

// CopyFile is a helper to copy a file from src to dst.
// The destination keeps the source's permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CreateFileAndWrite creates a file with the given path and
// writes the given contents
func CreateFileAndWrite(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return err
	}
	return os.WriteFile(path, contents, DefaultFilePerms)
}

// RecreateDir removes [dir] and everything under it, then creates it empty.
func RecreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "couldn't remove %q", dir)
	}
	if err := os.MkdirAll(dir, DefaultDirPerms); err != nil {
		return errors.Wrapf(err, "couldn't create %q", dir)
	}
	return nil
}

// FileExists reports whether [path] exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
