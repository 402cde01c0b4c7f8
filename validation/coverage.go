package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
)

// TextFile is a scanned file and its content.
type TextFile struct {
	Path string
	Text string
}

// ScCoverage reports which SC ids are referenced by test files.
type ScCoverage struct {
	Total      int                 `json:"total"`
	Covered    int                 `json:"covered"`
	Missing    int                 `json:"missing"`
	MissingIDs []string            `json:"missing_ids"`
	RefsByScID map[string][]string `json:"refs_by_sc_id"`
}

// ScanMeta describes the test file scan behind a coverage report.
type ScanMeta struct {
	Globs            []string `json:"globs"`
	ExcludeGlobs     []string `json:"exclude_globs"`
	MatchedFileCount int      `json:"matched_file_count"`
}

// CoverageOptions configures the SC to test coverage checks.
type CoverageOptions struct {
	MustHaveTest   bool
	NoTestSeverity issue.Severity
}

// BuildCoverage maps every SC id to the test files that mention it.
// When no test file matched the globs, a single SC_TEST_FILES_EMPTY warning
// replaces the per-SC SC_NO_TEST issues.
func BuildCoverage(scIDs []string, testFiles []TextFile, meta ScanMeta, opts CoverageOptions) (ScCoverage, []issue.Issue) {
	cov := ScCoverage{
		Total:      len(scIDs),
		MissingIDs: []string{},
		RefsByScID: make(map[string][]string, len(scIDs)),
	}

	mentions := make(map[string][]string)
	for _, f := range testFiles {
		for _, id := range ids.ExtractIDs(f.Text, ids.KindSC) {
			mentions[id] = append(mentions[id], f.Path)
		}
	}

	for _, sc := range scIDs {
		refs := mentions[sc]
		if refs == nil {
			refs = []string{}
		}
		sort.Strings(refs)
		cov.RefsByScID[sc] = refs
		if len(refs) > 0 {
			cov.Covered++
		} else {
			cov.MissingIDs = append(cov.MissingIDs, sc)
		}
	}
	cov.Missing = len(cov.MissingIDs)
	sort.Strings(cov.MissingIDs)

	if !opts.MustHaveTest || cov.Total == 0 {
		return cov, nil
	}
	if meta.MatchedFileCount == 0 {
		return cov, []issue.Issue{issue.New(issue.SCTestFilesEmpty, issue.SeverityWarning,
			fmt.Sprintf("No test files match %s; SC coverage cannot be checked", strings.Join(meta.Globs, ", ")),
			issue.WithRule("coverage.test_files"),
			issue.Suggest("Adjust validation.traceability.testFileGlobs"),
		)}
	}

	var issues []issue.Issue
	for _, sc := range cov.MissingIDs {
		issues = append(issues, issue.New(issue.SCNoTest, opts.NoTestSeverity,
			fmt.Sprintf("%s is not referenced by any test file", sc),
			issue.WithRefs(sc),
			issue.WithRule("coverage.sc_test"),
			issue.Suggest(fmt.Sprintf("Mention %s in the test that exercises the scenario", sc)),
		))
	}
	return cov, issues
}

// CheckBackReferences reports one project-level warning when none of files
// mentions a declared id. Projects that declare nothing are not checked.
func CheckBackReferences(files []TextFile, declared map[string]bool) []issue.Issue {
	if len(declared) == 0 {
		return nil
	}
	for _, f := range files {
		for _, id := range ids.ExtractAllIDs(f.Text, ids.UpstreamKinds...) {
			if declared[id] {
				return nil
			}
		}
	}
	return []issue.Issue{issue.New(issue.TraceNoCodeRefs, issue.SeverityWarning,
		fmt.Sprintf("No source or test file references any of the %d declared ids", len(declared)),
		issue.WithRule("trace.code_refs"),
		issue.Suggest("Reference SPEC, BR, SC or contract ids from the code or tests that implement them"),
	)}
}
