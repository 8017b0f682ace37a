// Package walker discovers Word documents under a library root. Folder
// structure below the root becomes the browse hierarchy, so the walk reports
// slash-separated relative paths.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DocInfo holds metadata about a discovered document.
type DocInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// maxFileSize is the largest document we'll consider (64 MB).
const maxFileSize = 64 << 20

// defaultIgnores are used when no .folioignore file exists.
var defaultIgnores = []string{
	".git",
	".folio",
	".Trash",
	"$RECYCLE.BIN",
	"Backup",
	"backup",
}

// Walk traverses the library rooted at root and sends discovered .docx files
// on the returned channel. Directories matching .folioignore patterns are
// skipped, as are Word lock files and symlinks.
func Walk(root string) (<-chan DocInfo, <-chan error) {
	docs := make(chan DocInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors, keep walking
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				rel, _ := filepath.Rel(absRoot, path)
				if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			name := d.Name()
			if !strings.EqualFold(filepath.Ext(name), ".docx") {
				return nil
			}
			// Word keeps a "~$" lock file next to an open document.
			if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > maxFileSize || info.Size() == 0 {
				return nil
			}

			relPath, _ := filepath.Rel(absRoot, path)
			docs <- DocInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Size:    info.Size(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// loadIgnorePatterns reads .folioignore from the library root.
// If the file doesn't exist, it creates one with the default patterns.
func loadIgnorePatterns(root string) []string {
	ignorePath := filepath.Join(root, ".folioignore")

	f, err := os.Open(ignorePath)
	if err != nil {
		createDefaultIgnoreFile(ignorePath)
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

func createDefaultIgnoreFile(path string) {
	var b strings.Builder
	b.WriteString("# Folders to exclude from indexing.\n")
	b.WriteString("# One pattern per line. Supports exact names and globs.\n\n")
	for _, p := range defaultIgnores {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	// Best-effort write; if it fails the defaults are still used in memory.
	os.WriteFile(path, []byte(b.String()), 0o644)
}

// matchesIgnore checks if a folder name or relative path matches any ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
