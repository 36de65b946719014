package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultLongEdge is the long-edge length, in pixels, images are scaled to
// before analysis.
const DefaultLongEdge = 1500

// JPEGQuality is used when re-encoding JPEG input.
const JPEGQuality = 75

// ErrImageLoad is returned when the input cannot be opened or decoded.
var ErrImageLoad = errors.New("problem loading image")

// TargetSize returns the size of an image with bounds w x h scaled so that its
// longer edge is longEdge pixels. The aspect ratio is kept and the shorter
// edge is truncated.
func TargetSize(w, h, longEdge int) (int, int) {
	if w <= 0 || h <= 0 || longEdge <= 0 {
		return 0, 0
	}
	if w >= h {
		return longEdge, int(float64(longEdge) / (float64(w) / float64(h)))
	}
	return int(float64(longEdge) / (float64(h) / float64(w))), longEdge
}

// Downsize scales the image at inputPath to longEdge and writes it to
// targetDir under the same base name. It returns the path of the new file.
func Downsize(inputPath, targetDir string, longEdge int) (string, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrImageLoad, filepath.Base(inputPath), err)
	}

	out, err := DownsizeBytes(data, filepath.Base(inputPath), longEdge)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	outPath := filepath.Join(targetDir, filepath.Base(inputPath))
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return "", fmt.Errorf("write downsized image: %w", err)
	}

	return outPath, nil
}

// DownsizeBytes scales an encoded image and re-encodes it. The output format
// follows the extension of name: PNG for .png, JPEG otherwise.
func DownsizeBytes(data []byte, name string, longEdge int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrImageLoad, name, err)
	}

	b := src.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy(), longEdge)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w %s: empty image", ErrImageLoad, name)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(name), ".png") {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	return buf.Bytes(), nil
}
