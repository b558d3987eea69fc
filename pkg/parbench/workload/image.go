package workload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/jamesainslie/parbench/pkg/parbench/source"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// ImageOptions configures the image workload.
type ImageOptions struct {
	// Input is the directory scanned for images.
	Input string

	// Output is the directory transformed images are written to. The
	// input tree layout is preserved below it.
	Output string

	// Sigma is the Gaussian blur radius. Zero skips the blur.
	Sigma float64

	// Extensions restricts which files are processed.
	Extensions []string
}

// Image converts each input file to grayscale, blurs it and saves it.
// One work item per file; items are independent.
type Image struct {
	opts  ImageOptions
	files []string
}

var _ Streamer = (*Image)(nil)

// NewImage returns an image workload. Files are discovered by Prepare.
func NewImage(opts ImageOptions) *Image {
	return &Image{opts: opts}
}

// Name implements Workload.
func (w *Image) Name() string {
	return "image " + w.opts.Input
}

// Prepare enumerates input files and creates the output directories.
func (w *Image) Prepare(ctx context.Context, _ int) error {
	if w.opts.Output == "" {
		return fmt.Errorf("%w: no output directory configured", types.ErrIOFailure)
	}

	files, err := source.Images(ctx, w.opts.Input, w.opts.Extensions)
	if err != nil {
		return err
	}
	w.files = files

	dirs := make(map[string]struct{})
	for i := range files {
		out, err := w.outputPath(i)
		if err != nil {
			return err
		}
		dirs[filepath.Dir(out)] = struct{}{}
	}
	dirs[w.opts.Output] = struct{}{}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", types.ErrIOFailure, err)
		}
	}

	logger.Debug("image inputs ready", "files", len(files), "input", w.opts.Input, "output", w.opts.Output)
	return nil
}

// Len implements Workload.
func (w *Image) Len() int {
	return len(w.files)
}

// Files returns the discovered input paths.
func (w *Image) Files() []string {
	return w.files
}

// Process transforms file i.
func (w *Image) Process(i int) error {
	in := w.files[i]
	out, err := w.outputPath(i)
	if err != nil {
		return err
	}

	img, err := imaging.Open(in)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", types.ErrIOFailure, in, err)
	}

	gray := imaging.Grayscale(img)
	if w.opts.Sigma > 0 {
		gray = imaging.Blur(gray, w.opts.Sigma)
	}

	if err := imaging.Save(gray, out); err != nil {
		return fmt.Errorf("%w: saving %s: %w", types.ErrIOFailure, out, err)
	}
	return nil
}

func (w *Image) outputPath(i int) (string, error) {
	rel, err := filepath.Rel(w.opts.Input, w.files[i])
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIOFailure, err)
	}
	return filepath.Join(w.opts.Output, rel), nil
}
