package validation

import (
	"context"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source"
)

// SpecPack file names.
const (
	SpecFile     = "spec.md"
	DeltaFile    = "delta.md"
	ScenarioFile = "scenario.feature"

	packPattern = "spec-*"
)

// SpecPack is one spec-* directory bundling a spec, a delta and a scenario document.
type SpecPack struct {
	Dir          string `json:"dir"`
	SpecPath     string `json:"spec_path"`
	DeltaPath    string `json:"delta_path"`
	ScenarioPath string `json:"scenario_path"`
}

// NewSpecPack returns the pack rooted at dir.
func NewSpecPack(dir string) SpecPack {
	return SpecPack{
		Dir:          dir,
		SpecPath:     path.Join(dir, SpecFile),
		DeltaPath:    path.Join(dir, DeltaFile),
		ScenarioPath: path.Join(dir, ScenarioFile),
	}
}

// DiscoverPacks lists the spec packs under specsDir in lexicographic order.
func DiscoverPacks(d *source.Discoverer, specsDir string) ([]SpecPack, error) {
	dirs, err := d.Dirs(specsDir, packPattern)
	if err != nil {
		return nil, fmt.Errorf("discover spec packs: %w", err)
	}
	packs := make([]SpecPack, 0, len(dirs))
	for _, dir := range dirs {
		packs = append(packs, NewSpecPack(dir))
	}
	return packs, nil
}

// document is an optional text file of a pack.
type document struct {
	Text  string
	Found bool
}

// packDocs holds the raw documents of one pack.
type packDocs struct {
	Pack     SpecPack
	Spec     document
	Delta    document
	Scenario document
}

// loadPacks reads every pack document concurrently. Missing documents are
// recorded as not found; other read errors abort the load.
func loadPacks(ctx context.Context, r source.Reader, packs []SpecPack) ([]packDocs, error) {
	out := make([]packDocs, len(packs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, p := range packs {
		g.Go(func() error {
			docs := packDocs{Pack: p}
			for _, target := range []struct {
				path string
				doc  *document
			}{
				{p.SpecPath, &docs.Spec},
				{p.DeltaPath, &docs.Delta},
				{p.ScenarioPath, &docs.Scenario},
			} {
				if err := ctx.Err(); err != nil {
					return err
				}
				text, found, err := source.ReadOptional(r, target.path)
				if err != nil {
					return err
				}
				*target.doc = document{Text: text, Found: found}
			}
			out[i] = docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read spec packs: %w", err)
	}
	return out, nil
}

// validatePacks reports missing pack documents, or one info issue when the
// project has no packs yet.
func validatePacks(specsDir string, docs []packDocs) []issue.Issue {
	if len(docs) == 0 {
		return []issue.Issue{issue.New(issue.SpecsEmpty, issue.SeverityInfo,
			fmt.Sprintf("No spec packs found under %s", specsDir),
			issue.InFile(specsDir),
			issue.WithRule("pack.discovery"),
			issue.Suggest("Create a spec-0001 directory with spec.md, delta.md and scenario.feature"),
		)}
	}

	var issues []issue.Issue
	for _, d := range docs {
		if !d.Spec.Found {
			issues = append(issues, missingPackFile(d.Pack.SpecPath, issue.SeverityError, issue.CategoryCompatibility))
		}
		if !d.Delta.Found {
			issues = append(issues, missingPackFile(d.Pack.DeltaPath, issue.SeverityWarning, issue.CategoryChange))
		}
		if !d.Scenario.Found {
			issues = append(issues, missingPackFile(d.Pack.ScenarioPath, issue.SeverityError, issue.CategoryCompatibility))
		}
	}
	return issues
}

func missingPackFile(p string, sev issue.Severity, cat issue.Category) issue.Issue {
	return issue.New(issue.SpecPackIncomplete, sev,
		fmt.Sprintf("Spec pack is missing %s", path.Base(p)),
		issue.InFile(p),
		issue.InCategory(cat),
		issue.WithRule("pack.layout"),
		issue.Suggest(fmt.Sprintf("Create %s", p)),
	)
}
