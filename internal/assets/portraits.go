// Package assets loads the portrait images drawn over tracked people.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// DefaultSize is the side length of a portrait in pixels.
const DefaultSize = 100

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Portrait is one decoded, resized image ready to be drawn.
type Portrait struct {
	Name  string
	Image gocv.Mat // BGR, Size x Size
}

// LoadPortraits decodes every image in dir, in file name order, resized to
// size x size. Files that are not images, or fail to decode, are skipped. A
// missing directory yields no portraits.
func LoadPortraits(dir string, size int, logger *zap.SugaredLogger) ([]Portrait, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if size <= 0 {
		size = DefaultSize
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnw("portrait directory not found", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read portrait directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var portraits []Portrait
	for _, entry := range entries {
		if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			logger.Debugw("skipping non-image file", "name", entry.Name())
			continue
		}

		path := filepath.Join(dir, entry.Name())
		mat, err := loadPortrait(path, size)
		if err != nil {
			logger.Warnw("skipping unreadable portrait", "path", path, "error", err)
			continue
		}
		portraits = append(portraits, Portrait{Name: entry.Name(), Image: mat})
	}

	if len(portraits) == 0 {
		logger.Warnw("no portraits loaded", "dir", dir)
	} else {
		logger.Infow("portraits loaded", "dir", dir, "count", len(portraits))
	}
	return portraits, nil
}

func loadPortrait(path string, size int) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.Mat{}, err
	}
	resized := imaging.Resize(img, size, size, imaging.Lanczos)
	return gocv.ImageToMatRGB(resized)
}

// ClosePortraits releases the portrait images.
func ClosePortraits(portraits []Portrait) error {
	var err error
	for i := range portraits {
		err = multierr.Append(err, portraits[i].Image.Close())
	}
	return err
}
