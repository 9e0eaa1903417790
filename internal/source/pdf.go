package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// RenderPDFFile rasterizes the first page of a PDF on disk.
func RenderPDFFile(path string, dpi float64) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return firstPage(doc, dpi)
}

// RenderPDFBytes rasterizes the first page of an in-memory PDF.
func RenderPDFBytes(data []byte, dpi float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return firstPage(doc, dpi)
}

func firstPage(doc *fitz.Document, dpi float64) (image.Image, error) {
	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("render pdf page: %w", err)
	}
	return img, nil
}
