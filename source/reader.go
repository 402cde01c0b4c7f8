// Package source isolates document I/O behind a thin read interface so that
// parsers and validators stay pure functions of text.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/sync/errgroup"
)

// defaultReadLimit bounds the number of concurrent reads in ReadAll.
const defaultReadLimit = 16

// Reader reads UTF-8 text documents addressed by slash-separated paths.
type Reader interface {
	ReadText(path string) (string, error)
}

// FSReader reads documents from an fs.FS, typically os.DirFS(projectRoot).
type FSReader struct {
	fsys fs.FS
}

// NewFSReader creates a reader over fsys.
func NewFSReader(fsys fs.FS) *FSReader {
	return &FSReader{fsys: fsys}
}

// ReadText returns the file content with a leading BOM removed and CRLF line
// endings normalised. A missing file yields an error wrapping ErrMissing.
func (r *FSReader) ReadText(path string) (string, error) {
	data, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

// ReadOptional reads path and reports found=false instead of an error when
// the file does not exist.
func ReadOptional(r Reader, path string) (text string, found bool, err error) {
	text, err = r.ReadText(path)
	if err != nil {
		if errors.Is(err, ErrMissing) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// ReadAll reads every path concurrently and returns the texts in the same
// order as paths. It returns only after all reads finished; the first error
// aborts the batch.
func ReadAll(ctx context.Context, r Reader, paths []string) ([]string, error) {
	texts := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultReadLimit)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := r.ReadText(p)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}
