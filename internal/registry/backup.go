// Disaster-recovery backup (spec section 6): archives the registry's
// base directory into a timestamp-named gzipped tar.
//
// The tar+gzip plumbing is grounded on
// open-policy-agent-opa/internal/file/archive/tarball.go's TarGzWriter;
// the "explicit action only, never touches originals" discipline
// follows internal/core/archive.go in the teacher repo.
package registry

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// tarGzWriter wraps a tar.Writer over a gzip.Writer, the same
// composition as the pack's TarGzWriter.
type tarGzWriter struct {
	tw *tar.Writer
	gw *gzip.Writer
}

func newTarGzWriter(w io.Writer) *tarGzWriter {
	gw := gzip.NewWriter(w)
	return &tarGzWriter{tw: tar.NewWriter(gw), gw: gw}
}

func (t *tarGzWriter) writeFile(name string, info os.FileInfo, r io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := t.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(t.tw, r)
	return err
}

func (t *tarGzWriter) close() error {
	return errors.Join(t.tw.Close(), t.gw.Close())
}

// Backup archives the registry's base directory into a gzipped tar
// under outputDir, named with the current timestamp, and returns its
// path. Backup is an explicit action: it never deletes or mutates the
// base directory it reads from.
func (r *Registry) Backup(outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	outPath := filepath.Join(outputDir, name)

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	tgw := newTarGzWriter(f)

	walkErr := filepath.Walk(r.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.baseDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		return tgw.writeFile(filepath.ToSlash(rel), info, file)
	})
	if closeErr := tgw.close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("failed to archive base directory: %w", walkErr)
	}

	return outPath, nil
}
