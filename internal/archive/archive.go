// Package archive bundles snapshot frames into a zstd-compressed tar so
// they survive the run's temp directory.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Extension is appended to archive file names.
const Extension = ".tar.zst"

// WriteFiles stores files, flattened to their base names, in a tar
// stream compressed with zstd at out. It returns the member names in
// order.
func WriteFiles(out string, files []string) ([]string, error) {
	f, err := os.Create(out)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	names, err := write(f, files)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return nil, err
	}
	return names, nil
}

func write(w io.Writer, files []string) ([]string, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	tw := tar.NewWriter(enc)

	names := make([]string, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		if err := addFile(tw, path, name); err != nil {
			enc.Close()
			return nil, err
		}
		names = append(names, name)
	}

	if err := tw.Close(); err != nil {
		enc.Close()
		return nil, fmt.Errorf("tar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return names, nil
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

// List returns the member names of an archive written by WriteFiles.
func List(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()

	var names []string
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tar: %w", err)
		}
		names = append(names, hdr.Name)
	}
}
