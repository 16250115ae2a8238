// Package backup creates and restores portable archives of the WardWatch
// database and configuration. Archives are plain tar.gz files so they can be
// inspected and unpacked with standard tools.
//
// Backups are intended to run against a stopped server. The database is
// copied at the file level together with any WAL sidecars, so uncheckpointed
// transactions are preserved.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backup writes the database (plus -wal/-shm sidecars when present) and an
// optional configuration file into a gzip-compressed tar archive at
// archivePath. Entries are stored under their base names so a restore lands
// flat in the target directory.
func Backup(_ context.Context, dbPath, cfgPath, archivePath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}
		return fmt.Errorf("checking database file: %w", err)
	}

	files := []string{dbPath}
	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		if _, err := os.Stat(sidecar); err == nil {
			files = append(files, sidecar)
		}
	}
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfgPath)
		}
		files = append(files, cfgPath)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	for _, path := range files {
		if err := addFile(tw, path); err != nil {
			return fmt.Errorf("archiving %s: %w", filepath.Base(path), err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("compressing archive: %w", err)
	}
	return out.Close()
}

// addFile appends one file to the tar stream under its base name.
func addFile(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
