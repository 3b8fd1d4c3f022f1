// Package scanner walks a file tree and selects the files worth indexing.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thalvik/semdex/pkg/models"
)

// Options controls file selection during a scan.
type Options struct {
	// IncludeExtensions is the allowlist of file extensions (with leading dot,
	// lowercase). Files with any other extension are skipped silently.
	IncludeExtensions []string

	// ExcludePatterns rejects paths. A pattern starting with "*" matches a
	// filename suffix; anything else matches as a substring of the relative
	// path. Matching directories are pruned from the walk entirely.
	ExcludePatterns []string

	// MaxFileBytes skips (and reports) files larger than this. 0 disables
	// the size limit.
	MaxFileBytes int64
}

// File is one accepted candidate for indexing.
type File struct {
	Path    string // absolute path for reading
	RelPath string // slash-separated path relative to the scan root, the stable identifier
	Size    int64
}

// Scan walks root recursively and returns accepted files in lexicographic
// order of relative path, plus the files rejected for a reportable reason
// (size cap, unreadable metadata). Extension and pattern rejections are
// silent: they are the normal case for most of a tree, not exceptions.
func Scan(root string, opts Options) ([]File, []models.SkippedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	include := make(map[string]bool, len(opts.IncludeExtensions))
	for _, ext := range opts.IncludeExtensions {
		include[strings.ToLower(ext)] = true
	}

	var files []File
	var skipped []models.SkippedFile

	// WalkDir visits entries in lexical order, which keeps progress output
	// and point-id assignment reproducible across runs.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			skipped = append(skipped, models.SkippedFile{Path: path, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && excluded(rel, d.Name(), opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if excluded(rel, d.Name(), opts.ExcludePatterns) {
			return nil
		}
		if len(include) > 0 && !include[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			skipped = append(skipped, models.SkippedFile{Path: rel, Reason: statErr.Error()})
			return nil
		}
		if opts.MaxFileBytes > 0 && fi.Size() > opts.MaxFileBytes {
			skipped = append(skipped, models.SkippedFile{
				Path:   rel,
				Reason: fmt.Sprintf("file too large (%d bytes, limit %d)", fi.Size(), opts.MaxFileBytes),
			})
			return nil
		}

		files = append(files, File{Path: path, RelPath: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return files, skipped, nil
}

// Language returns the language tag recorded in chunk payloads: the file
// extension without the dot, or "text" for extensionless files.
func Language(relPath string) string {
	ext := filepath.Ext(relPath)
	if ext == "" {
		return "text"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func excluded(relPath, name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "*") {
			if strings.HasSuffix(name, p[1:]) {
				return true
			}
		} else if strings.Contains(relPath, p) {
			return true
		}
	}
	return false
}
