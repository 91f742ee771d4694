// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// documentExtensions are the file endings recognized as convention
// documents.
var documentExtensions = []string{".hcl", ".yaml", ".yml"}

// FindDocuments recursively searches the given root path for convention
// document files. A path pointing at a single file is returned as-is when
// its extension matches. Results are sorted by path.
func FindDocuments(rootPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasDocumentExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func hasDocumentExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range documentExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
