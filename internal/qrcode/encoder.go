// Package qrcode renders guest codes into QR image artifacts.
//
// Encoding is a pure function of its input string; images are keyed by guest
// code and can be regenerated at any time.
package qrcode

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// defaultImageSize is the edge length of rendered QR images in pixels.
const defaultImageSize = 320

// EncodePNG renders content as a QR code PNG with high error correction.
func EncodePNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	if size <= 0 {
		size = defaultImageSize
	}

	code, errEncode := qr.Encode(content, qr.H, qr.Auto)
	if errEncode != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", errEncode)
	}
	scaled, errScale := barcode.Scale(code, size, size)
	if errScale != nil {
		return nil, fmt.Errorf("qrcode: scale: %w", errScale)
	}

	var buf bytes.Buffer
	if errPNG := png.Encode(&buf, scaled); errPNG != nil {
		return nil, fmt.Errorf("qrcode: png encode: %w", errPNG)
	}
	return buf.Bytes(), nil
}

// Generator writes QR artifacts for guests into a directory.
type Generator struct {
	dir  string
	size int
}

// NewGenerator constructs a Generator rooted at dir.
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir, size: defaultImageSize}
}

// Dir returns the artifact directory.
func (g *Generator) Dir() string { return g.dir }

// FileName builds the artifact file name for a guest code and display name.
func FileName(guestCode, guestName string) string {
	return fmt.Sprintf("%s-%s.png", guestCode, sanitizeName(guestName))
}

// Generate renders the guest code and writes it under the artifact
// directory, returning the file name. Re-running overwrites in place.
func (g *Generator) Generate(guestCode, guestName string) (string, error) {
	data, errEncode := EncodePNG(guestCode, g.size)
	if errEncode != nil {
		return "", errEncode
	}
	if errMkdir := os.MkdirAll(g.dir, 0755); errMkdir != nil {
		return "", fmt.Errorf("qrcode: create dir: %w", errMkdir)
	}
	name := FileName(guestCode, guestName)
	if errWrite := os.WriteFile(filepath.Join(g.dir, name), data, 0644); errWrite != nil {
		return "", fmt.Errorf("qrcode: write %s: %w", name, errWrite)
	}
	return name, nil
}

// Remove deletes the artifact for a guest, ignoring files already gone.
func (g *Generator) Remove(guestCode, guestName string) error {
	path := filepath.Join(g.dir, FileName(guestCode, guestName))
	if errRemove := os.Remove(path); errRemove != nil && !os.IsNotExist(errRemove) {
		return fmt.Errorf("qrcode: remove %s: %w", path, errRemove)
	}
	return nil
}

// sanitizeName keeps file names filesystem-safe across platforms.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
