package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the scanned directory, or the base
	// name for a single file.
	RelPath string
	// Key is the run key (relpath without extension).
	Key string
	// Prefix names the files written for this source. It is the key
	// with path separators flattened to underscores, unique within a
	// scan.
	Prefix string
	// Format is the source format (png, jpeg, webp, gif, bmp, tiff).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// ScanImages returns the image sources under input. A regular file is a
// single source whatever its extension; a directory is walked for files
// with a known image extension.
func ScanImages(input string) ([]Source, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", input)
		}
		return []Source{newSource(input, filepath.Base(input), info.Size())}, nil
	}

	var sources []Source
	err = filepath.Walk(input, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories.
			if strings.HasPrefix(info.Name(), ".") && path != input {
				return filepath.SkipDir
			}
			return nil
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relPath, err := filepath.Rel(input, path)
		if err != nil {
			return err
		}
		sources = append(sources, newSource(path, relPath, info.Size()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	disambiguate(sources)
	return sources, nil
}

// disambiguate makes keys and prefixes unique across a batch. Sources
// sharing a key ("cat.png", "cat.jpg") keep their extension in it.
// Prefixes that still collide ("a/b", "a_b") get a numeric suffix, the
// first source in walk order keeping the plain prefix.
func disambiguate(sources []Source) {
	keys := map[string]int{}
	for _, s := range sources {
		keys[s.Key]++
	}
	for i, s := range sources {
		if keys[s.Key] > 1 {
			sources[i].Key = s.RelPath
			sources[i].Prefix = flatten(s.RelPath)
		}
	}

	natural := map[string]int{}
	for _, s := range sources {
		natural[s.Prefix]++
	}
	taken := map[string]bool{}
	for i, s := range sources {
		p := s.Prefix
		if taken[p] {
			for n := 2; ; n++ {
				c := fmt.Sprintf("%s_%d", s.Prefix, n)
				if natural[c] == 0 && !taken[c] {
					p = c
					break
				}
			}
		}
		sources[i].Prefix = p
		taken[p] = true
	}
}

// flatten turns a slash path into a single file name component.
func flatten(p string) string {
	return strings.NewReplacer("/", "_", ".", "_").Replace(p)
}

func newSource(path, relPath string, size int64) Source {
	ext := filepath.Ext(relPath)

	// Key: relative path without extension, using forward slashes.
	key := filepath.ToSlash(strings.TrimSuffix(relPath, ext))

	// Normalize format name.
	format := strings.TrimPrefix(strings.ToLower(ext), ".")
	switch format {
	case "jpg":
		format = "jpeg"
	case "tif":
		format = "tiff"
	}

	return Source{
		AbsPath: path,
		RelPath: filepath.ToSlash(relPath),
		Key:     key,
		Prefix:  strings.ReplaceAll(key, "/", "_"),
		Format:  format,
		Size:    size,
	}
}
