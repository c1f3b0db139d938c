// Package media stores item photos uploaded by staff.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxSide    = 800
	thumbWidth = 300

	// DefaultMaxPixels bounds the decoded size of an upload (about 6000x4000).
	DefaultMaxPixels = 24_000_000
)

// ErrTooLarge is returned for images whose dimensions exceed MaxPixels.
var ErrTooLarge = errors.New("image dimensions too large")

// Images writes resized copies under Dir and returns URLs under URLPrefix.
type Images struct {
	Dir       string
	URLPrefix string
	MaxPixels int

	newName func() string
}

func NewImages(dir, urlPrefix string) *Images {
	return &Images{
		Dir:       dir,
		URLPrefix: strings.TrimSuffix(urlPrefix, "/"),
		MaxPixels: DefaultMaxPixels,
		newName:   func() string { return uuid.NewString() + ".jpg" },
	}
}

// SaveItemImage decodes src, stores a copy that fits in 800x800 and a 300px
// wide thumbnail, and returns the public path of the main copy.
func (m *Images) SaveItemImage(src io.Reader) (string, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	// Check the header before decoding so a small file cannot expand into a huge bitmap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > m.MaxPixels {
		return "", fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	name := m.newName()
	itemDir := filepath.Join(m.Dir, "items")
	thumbDir := filepath.Join(itemDir, "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	mainPath := filepath.Join(itemDir, name)
	if err := imaging.Save(imaging.Fit(img, maxSide, maxSide, imaging.Lanczos), mainPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, name)); err != nil {
		os.Remove(mainPath)
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return m.URLPrefix + "/items/" + name, nil
}

// Remove deletes a previously saved image and its thumbnail. Paths that were
// not produced by SaveItemImage are ignored.
func (m *Images) Remove(publicPath string) {
	prefix := m.URLPrefix + "/items/"
	if !strings.HasPrefix(publicPath, prefix) {
		return
	}
	name := filepath.Base(publicPath)
	os.Remove(filepath.Join(m.Dir, "items", name))
	os.Remove(filepath.Join(m.Dir, "items", "thumb", name))
}
