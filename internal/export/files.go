package export

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jchantrell/dolhouse/internal/yay0"
)

// Decompressor expands Yay0 images found inside an archive
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Exporter handles exporting files from an archive to disk
type Exporter struct {
	fsys         fs.FS
	outputDir    string
	decompressor Decompressor
}

// NewExporter creates a new file exporter. When decompressor is not nil,
// files that are themselves Yay0 images are written decompressed.
func NewExporter(fsys fs.FS, outputDir string, decompressor Decompressor) *Exporter {
	return &Exporter{
		fsys:         fsys,
		outputDir:    outputDir,
		decompressor: decompressor,
	}
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// ExportAll exports every file and folder of the archive
func (e *Exporter) ExportAll(progressCallback ProgressCallback) error {
	var files []string

	err := fs.WalkDir(e.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// empty folders are kept
			dir, err := e.outputPath(p)
			if err != nil {
				return err
			}
			return os.MkdirAll(dir, 0755)
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking archive: %w", err)
	}

	return e.ExportFiles(files, progressCallback)
}

// ExportFiles exports the specified files to the output directory, keeping
// their folder structure
func (e *Exporter) ExportFiles(files []string, progressCallback ProgressCallback) error {
	if len(files) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for i, filePath := range files {
		if err := e.exportFile(filePath); err != nil {
			return err
		}

		if progressCallback != nil {
			progressCallback(i+1, len(files), filePath)
		}
	}

	return nil
}

func (e *Exporter) exportFile(filePath string) error {
	outputPath, err := e.outputPath(filePath)
	if err != nil {
		return err
	}

	fileData, err := fs.ReadFile(e.fsys, filePath)
	if err != nil {
		return fmt.Errorf("loading file %s: %w", filePath, err)
	}

	if e.decompressor != nil && yay0.IsCompressed(fileData) {
		decompressed, err := e.decompressor.Decompress(fileData)
		if err != nil {
			return fmt.Errorf("decompressing nested file %s: %w", filePath, err)
		}
		slog.Debug("Decompressed nested file", "path", filePath, "compressed", len(fileData), "size", len(decompressed))
		fileData = decompressed
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filePath, err)
	}

	if err := os.WriteFile(outputPath, fileData, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", outputPath, err)
	}

	slog.Debug("Copied file", "path", filePath, "output", outputPath)
	return nil
}

// outputPath maps a slash-separated archive path below the output directory.
// Paths that would land outside of it are refused.
func (e *Exporter) outputPath(p string) (string, error) {
	local := filepath.FromSlash(p)
	if !fs.ValidPath(p) || !filepath.IsLocal(local) {
		return "", &fs.PathError{Op: "export", Path: p, Err: fs.ErrInvalid}
	}
	return filepath.Join(e.outputDir, local), nil
}
