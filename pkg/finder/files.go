package finder

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are directory names that never contain first-party modules
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

// sourceExts are the extensions of analyzable modules
var sourceExts = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// FindSourceFiles walks the workspace directory and returns all module source
// files, excluding dependency and build-output directories. Declaration files
// (.d.ts) are skipped; they carry no runtime imports.
func FindSourceFiles(workspaceRoot string) ([]string, error) {
	var sourceFiles []string

	err := filepath.WalkDir(workspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !sourceExts[filepath.Ext(path)] {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".d.ts") {
			return nil
		}

		sourceFiles = append(sourceFiles, path)
		return nil
	})

	return sourceFiles, err
}
