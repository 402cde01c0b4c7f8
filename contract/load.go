package contract

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/c360studio/qfai/source"
)

// Load discovers and reads every contract file under contractsDir. Missing
// kind directories contribute no files. Files are returned sorted by path.
func Load(ctx context.Context, d *source.Discoverer, r source.Reader, contractsDir string) ([]File, error) {
	var files []File
	for _, k := range Kinds {
		paths, err := d.Files(path.Join(contractsDir, k.Subdir), k.Extensions...)
		if err != nil {
			return nil, fmt.Errorf("discover %s contracts: %w", k.Kind, err)
		}
		for _, p := range paths {
			files = append(files, File{Path: p, Kind: k.Kind})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	texts, err := source.ReadAll(ctx, r, paths)
	if err != nil {
		return nil, fmt.Errorf("read contracts: %w", err)
	}
	for i := range files {
		files[i].Text = texts[i]
	}
	return files, nil
}
