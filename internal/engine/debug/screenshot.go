package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// SnapshotWriter saves grid map images to a directory.
type SnapshotWriter struct {
	outputDir string
	prefix    string
}

// NewSnapshotWriter creates a new snapshot writer.
func NewSnapshotWriter(outputDir, prefix string) *SnapshotWriter {
	return &SnapshotWriter{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Save writes img as a PNG named after tick and returns the file path.
func (sw *SnapshotWriter) Save(img image.Image, tick uint64) (string, error) {
	// Create output directory if needed
	if sw.outputDir != "" {
		if err := os.MkdirAll(sw.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sw.Filename(tick)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}

// Filename returns the path Save would use for tick.
func (sw *SnapshotWriter) Filename(tick uint64) string {
	filename := fmt.Sprintf("%s_%06d.png", sw.prefix, tick)
	if sw.outputDir != "" {
		filename = filepath.Join(sw.outputDir, filename)
	}
	return filename
}
