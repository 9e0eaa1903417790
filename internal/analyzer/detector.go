package analyzer

import (
	"fmt"
	"image"
)

// Block is a region of interest in source image coordinates.
type Block struct {
	Rect image.Rectangle
	// Confidence is the share of edge pixels inside Rect, 0..1.
	Confidence float64
}

// Detector finds regions of interest in a beat image.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector returns the detector registered under variant. An empty
// variant selects the contrast detector.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
