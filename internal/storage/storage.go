package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/maltedev/smartphone-scraper/internal/models"
)

// ProductWriter receives the final, deduplicated product set of a run.
type ProductWriter interface {
	WriteProducts(products []models.Product) error
}

// JSONFile writes products as a pretty-printed JSON array.
type JSONFile struct {
	filename string
}

func NewJSONFile(filename string) *JSONFile {
	return &JSONFile{filename: filename}
}

func (f *JSONFile) Filename() string {
	return f.filename
}

func (f *JSONFile) WriteProducts(products []models.Product) error {
	var buf bytes.Buffer
	if err := Encode(&buf, products); err != nil {
		return err
	}

	if dir := filepath.Dir(f.filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Write to temp file first for atomicity
	tmpFile := f.filename + ".tmp"
	if err := os.WriteFile(tmpFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, f.filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// Encode writes products as an indented JSON array. Slashes and HTML
// characters are left unescaped and an empty set is written as [].
func Encode(w io.Writer, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	return nil
}
