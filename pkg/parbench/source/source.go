// Package source enumerates the work items for file-based workloads.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// DefaultImageExtensions are the file extensions treated as images.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

// Files walks root and returns the regular files whose extension matches
// one of exts (case-insensitive), sorted by path. An empty exts matches
// every file. Any walk error fails the enumeration.
func Files(ctx context.Context, root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrIOFailure, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrIOFailure, root)
	}

	want := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = struct{}{}
	}

	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(want) > 0 {
			if _, ok := want[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}

		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: walking %s: %w", types.ErrIOFailure, root, walkErr)
	}

	slices.Sort(files)
	return files, nil
}

// Images is Files with DefaultImageExtensions when exts is empty.
func Images(ctx context.Context, root string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	return Files(ctx, root, exts)
}
