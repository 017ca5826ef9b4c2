package extract

import (
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the image types picked up when none are configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// ImageEntry is a discovered source image. Name is the key in the output.
type ImageEntry struct {
	Path string
	Name string
}

// Images lists the images directly inside dir whose extension is one of exts
// (case-insensitive), sorted by file name. The sequence is lazy and can be
// ranged over again to rescan. A read error is yielded once and ends the
// sequence.
func Images(dir string, exts []string) iter.Seq2[ImageEntry, error] {
	allowed := normalizeExtensions(exts)
	return func(yield func(ImageEntry, error) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			yield(ImageEntry{}, err)
			return
		}
		for _, e := range entries {
			if !allowed[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if isDir(e, path) {
				continue
			}
			if !yield(ImageEntry{Path: path, Name: e.Name()}, nil) {
				return
			}
		}
	}
}

// isDir reports whether the entry is a directory, following symlinks.
// Broken links count as files so the failure shows up in the output.
func isDir(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return allowed
}
