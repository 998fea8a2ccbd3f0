package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultCategory is used for documents placed directly under the terms root.
const defaultCategory = "기타"

// TermsFile is a terms document found during scanning.
type TermsFile struct {
	RelPath     string // Relative path from the terms root, slash separated
	AbsPath     string
	Category    string // First directory under the root
	Subcategory string // Second directory under the root, if any
	Filename    string // Base name without extension
}

var supportedExts = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// ScanTerms walks root and returns every supported document in lexical order.
func ScanTerms(ctx context.Context, root string) ([]TermsFile, error) {
	var files []TermsFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !supportedExts[ext] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		files = append(files, newTermsFile(relPath, path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan terms directory %s: %w", root, err)
	}

	return files, nil
}

func newTermsFile(relPath, absPath string) TermsFile {
	base := filepath.Base(relPath)
	f := TermsFile{
		RelPath:  relPath,
		AbsPath:  absPath,
		Category: defaultCategory,
		Filename: strings.TrimSuffix(base, filepath.Ext(base)),
	}

	dirs := strings.Split(relPath, "/")
	dirs = dirs[:len(dirs)-1]
	if len(dirs) > 0 {
		f.Category = dirs[0]
	}
	if len(dirs) > 1 {
		f.Subcategory = dirs[1]
	}
	return f
}
