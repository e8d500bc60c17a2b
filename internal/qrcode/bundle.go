package qrcode

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteBundle streams every rendered QR image as a zip archive.
func (g *Generator) WriteBundle(w io.Writer) error {
	entries, errRead := os.ReadDir(g.dir)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			// Nothing generated yet; an empty archive is still a valid answer.
			entries = nil
		} else {
			return fmt.Errorf("qrcode: read dir: %w", errRead)
		}
	}

	zw := zip.NewWriter(w)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		if errAdd := addBundleFile(zw, filepath.Join(g.dir, entry.Name()), entry.Name()); errAdd != nil {
			_ = zw.Close()
			return errAdd
		}
	}
	return zw.Close()
}

func addBundleFile(zw *zip.Writer, path, name string) error {
	src, errOpen := os.Open(path)
	if errOpen != nil {
		return fmt.Errorf("qrcode: open %s: %w", path, errOpen)
	}
	defer func() { _ = src.Close() }()

	dst, errCreate := zw.Create(name)
	if errCreate != nil {
		return fmt.Errorf("qrcode: zip entry %s: %w", name, errCreate)
	}
	if _, errCopy := io.Copy(dst, src); errCopy != nil {
		return fmt.Errorf("qrcode: zip copy %s: %w", name, errCopy)
	}
	return nil
}
