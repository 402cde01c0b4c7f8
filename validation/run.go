// Package validation cross-checks spec packs, scenario documents and contracts
// and produces a ValidationResult.
package validation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/qfai/config"
	"github.com/c360studio/qfai/contract"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source"
	"github.com/c360studio/qfai/source/parser"
)

// ErrNoFS is returned when Run is called without a filesystem.
var ErrNoFS = errors.New("validation: no project filesystem")

// Options configures a run.
type Options struct {
	// FS is the project root, typically os.DirFS(root).
	FS fs.FS
	// ConfigPath is relative to FS; empty means config.FileName.
	ConfigPath string
	// Config, when set, is used as is and no config file is read.
	Config      *config.Config
	Logger      *slog.Logger
	ToolVersion string
}

// inputs is everything a run reads before any cross-file phase starts.
type inputs struct {
	packs     []packDocs
	contracts []contract.File
	testFiles []TextFile
	codeFiles []TextFile
}

// Run validates the project in opts.FS. Issues never abort a run; only
// unexpected I/O errors are returned.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.FS == nil {
		return nil, ErrNoFS
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.New().String()
	logger = logger.With(slog.String("run_id", runID))
	reader := source.NewFSReader(opts.FS)

	var issues []issue.Issue
	cfg := opts.Config
	if cfg == nil {
		loaded, fallbacks, err := config.NewLoader(reader, logger).Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		issues = append(issues, configIssues(fallbacks)...)
	}
	tr := cfg.Validation.Traceability

	in, err := readInputs(ctx, opts.FS, reader, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Inputs loaded",
		slog.Int("packs", len(in.packs)),
		slog.Int("contracts", len(in.contracts)),
		slog.Int("test_files", len(in.testFiles)),
		slog.Int("code_files", len(in.codeFiles)))

	// Per-document structure.
	issues = append(issues, validatePacks(cfg.Paths.SpecsDir, in.packs)...)
	var specs []SpecInput
	var scenarios []ScenarioInput
	for _, d := range in.packs {
		if d.Spec.Found {
			spec := parser.ParseSpec(d.Spec.Text)
			issues = append(issues, ValidateSpec(d.Pack.SpecPath, d.Spec.Text, spec, cfg.Validation.Require.SpecSections)...)
			specs = append(specs, SpecInput{Path: d.Pack.SpecPath, Spec: spec})
		}
		if d.Scenario.Found {
			doc, parseIssues := ParseScenario(d.Pack.ScenarioPath, d.Scenario.Text)
			issues = append(issues, parseIssues...)
			if doc != nil {
				issues = append(issues, ValidateScenario(d.Pack.ScenarioPath, doc)...)
				scenarios = append(scenarios, ScenarioInput{Path: d.Pack.ScenarioPath, Doc: doc})
			}
		}
	}

	// Contracts.
	index, indexIssues := contract.BuildIndex(in.contracts)
	if len(in.contracts) == 0 && len(in.packs) > 0 {
		issues = append(issues, issue.New(issue.ContractsEmpty, issue.SeverityInfo,
			fmt.Sprintf("No contract files found under %s", cfg.Paths.ContractsDir),
			issue.InFile(cfg.Paths.ContractsDir),
			issue.WithRule("contract.discovery"),
		))
	}
	issues = append(issues, indexIssues...)
	issues = append(issues, contract.Validate(in.contracts)...)

	// Cross references.
	graph, traceIssues := Trace(specs, scenarios, index, TraceOptions{
		BRMustHaveSC:              tr.BRMustHaveSC,
		SCMustTouchContracts:      tr.SCMustTouchContracts,
		AllowOrphanContracts:      tr.AllowOrphanContracts,
		UnknownContractIDSeverity: issue.ParseSeverity(tr.UnknownContractIDSeverity),
	})
	issues = append(issues, traceIssues...)

	declared := graph.UpstreamIDs()
	for id := range index.IDs {
		declared[id] = true
	}
	issues = append(issues, CheckBackReferences(mergeFiles(in.codeFiles, in.testFiles), declared)...)

	meta := ScanMeta{
		Globs:            nonNil(tr.TestFileGlobs),
		ExcludeGlobs:     nonNil(tr.TestFileExcludeGlobs),
		MatchedFileCount: len(in.testFiles),
	}
	coverage, coverageIssues := BuildCoverage(graph.SCIDs, in.testFiles, meta, CoverageOptions{
		MustHaveTest:   tr.SCMustHaveTest,
		NoTestSeverity: issue.ParseSeverity(tr.SCNoTestSeverity),
	})
	issues = append(issues, coverageIssues...)

	result := &Result{
		ToolVersion:  opts.ToolVersion,
		RunID:        runID,
		Issues:       nonNilIssues(issues),
		Counts:       issue.Count(issues),
		Traceability: Traceability{SC: coverage, TestFiles: meta},
		Config:       cfg,
	}
	logger.Info("Validation finished",
		slog.Int("errors", result.Counts.Error),
		slog.Int("warnings", result.Counts.Warning),
		slog.Int("info", result.Counts.Info),
		slog.Int("sc_total", coverage.Total),
		slog.Int("sc_covered", coverage.Covered))
	return result, nil
}

// readInputs discovers and reads every document of the run concurrently and
// returns once all reads have finished.
func readInputs(ctx context.Context, fsys fs.FS, reader source.Reader, cfg *config.Config) (*inputs, error) {
	disc := source.NewDiscoverer(fsys, cfg.Paths.ExcludeDirs)
	tr := cfg.Validation.Traceability
	skipRoots := []string{cfg.Paths.SpecsDir, cfg.Paths.ContractsDir}

	packs, err := DiscoverPacks(disc, cfg.Paths.SpecsDir)
	if err != nil {
		return nil, err
	}

	in := &inputs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := loadPacks(gctx, reader, packs)
		in.packs = docs
		return err
	})
	g.Go(func() error {
		files, err := contract.Load(gctx, disc, reader, cfg.Paths.ContractsDir)
		in.contracts = files
		return err
	})
	g.Go(func() error {
		paths, err := disc.Glob(tr.TestFileGlobs, tr.TestFileExcludeGlobs, skipRoots)
		if err != nil {
			return fmt.Errorf("discover test files: %w", err)
		}
		files, err := readTextFiles(gctx, reader, paths)
		in.testFiles = files
		return err
	})
	g.Go(func() error {
		var paths []string
		for _, dir := range []string{cfg.Paths.SrcDir, cfg.Paths.TestsDir} {
			found, err := disc.Files(dir, tr.CodeExtensions...)
			if err != nil {
				return fmt.Errorf("discover code files: %w", err)
			}
			paths = append(paths, found...)
		}
		files, err := readTextFiles(gctx, reader, dedupe(paths))
		in.codeFiles = files
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func readTextFiles(ctx context.Context, r source.Reader, paths []string) ([]TextFile, error) {
	texts, err := source.ReadAll(ctx, r, paths)
	if err != nil {
		return nil, err
	}
	files := make([]TextFile, len(paths))
	for i, p := range paths {
		files[i] = TextFile{Path: p, Text: texts[i]}
	}
	return files, nil
}

// dedupe drops repeated paths, keeping first occurrences. SrcDir and
// TestsDir may nest.
func dedupe(paths []string) []string {
	var out []string
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// mergeFiles concatenates file lists, dropping repeated paths.
func mergeFiles(lists ...[]TextFile) []TextFile {
	var out []TextFile
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, f := range list {
			if !seen[f.Path] {
				seen[f.Path] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func configIssues(fallbacks []config.Fallback) []issue.Issue {
	var issues []issue.Issue
	for _, fb := range fallbacks {
		switch fb.Kind {
		case config.FallbackParse:
			issues = append(issues, issue.New(issue.ConfigInvalid, issue.SeverityError,
				fmt.Sprintf("Config could not be parsed, using defaults: %s", fb.Message),
				issue.InFile(fb.Path),
				issue.WithRule("config.parse"),
			))
		case config.FallbackValue:
			issues = append(issues, issue.New(issue.ConfigInvalidValue, issue.SeverityWarning,
				fmt.Sprintf("%s; using the default", fb.Message),
				issue.InFile(fb.Path),
				issue.WithRefs(fb.Field),
				issue.WithRule("config.value"),
			))
		}
	}
	return issues
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilIssues(issues []issue.Issue) []issue.Issue {
	if issues == nil {
		return []issue.Issue{}
	}
	return issues
}
