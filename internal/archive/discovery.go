package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/yay0"
)

// Format is the container format recognised from a file's leading bytes
type Format int

const (
	FormatUnknown Format = iota
	FormatRARC
	FormatYay0
)

func (f Format) String() string {
	switch f {
	case FormatRARC:
		return "rarc"
	case FormatYay0:
		return "yay0"
	default:
		return "unknown"
	}
}

// Detect identifies the format from the first bytes of a file
func Detect(header []byte) Format {
	if len(header) < 4 {
		return FormatUnknown
	}
	switch string(header[:4]) {
	case rarc.Magic:
		return FormatRARC
	case yay0.Magic:
		return FormatYay0
	default:
		return FormatUnknown
	}
}

func detectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return FormatUnknown, nil
		}
		return FormatUnknown, err
	}
	return Detect(header), nil
}

// Discover walks root and returns every file that starts with a RARC or
// Yay0 magic, sorted by path. Extensions are not consulted since game data
// uses .arc, .szs and many others for the same containers.
func Discover(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		format, err := detectFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable file", "path", path, "error", err)
			return nil
		}
		if format == FormatUnknown {
			return nil
		}

		slog.Debug("Discovered archive", "path", path, "format", format)
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	slices.Sort(found)
	return found, nil
}
