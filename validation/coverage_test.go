package validation

import (
	"testing"

	"github.com/c360studio/qfai/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCoverage(t *testing.T) {
	files := []TextFile{
		{Path: "tests/b.test.ts", Text: "// covers SC-0001 and SC-0003"},
		{Path: "tests/a.test.ts", Text: "it('SC-0001', () => {})"},
	}
	meta := ScanMeta{Globs: []string{"tests/**/*"}, MatchedFileCount: 2}

	cov, got := BuildCoverage([]string{"SC-0002", "SC-0001"}, files, meta, CoverageOptions{
		MustHaveTest:   true,
		NoTestSeverity: issue.SeverityWarning,
	})

	assert.Equal(t, 2, cov.Total)
	assert.Equal(t, 1, cov.Covered)
	assert.Equal(t, 1, cov.Missing)
	assert.Equal(t, []string{"SC-0002"}, cov.MissingIDs)
	assert.Equal(t, []string{"tests/a.test.ts", "tests/b.test.ts"}, cov.RefsByScID["SC-0001"])
	assert.Empty(t, cov.RefsByScID["SC-0002"])
	assert.NotContains(t, cov.RefsByScID, "SC-0003", "only declared SCs are tracked")

	require.Len(t, got, 1)
	assert.Equal(t, issue.SCNoTest, got[0].Code)
	assert.Equal(t, issue.SeverityWarning, got[0].Severity)
	assert.Equal(t, []string{"SC-0002"}, got[0].Refs)
}

func TestBuildCoverage_NoTestFiles(t *testing.T) {
	meta := ScanMeta{Globs: []string{"tests/**/*"}}

	cov, got := BuildCoverage([]string{"SC-0001", "SC-0002"}, nil, meta, CoverageOptions{
		MustHaveTest:   true,
		NoTestSeverity: issue.SeverityError,
	})

	assert.Equal(t, 2, cov.Missing)
	require.Len(t, got, 1)
	assert.Equal(t, issue.SCTestFilesEmpty, got[0].Code)
	assert.Equal(t, issue.SeverityWarning, got[0].Severity)
}

func TestBuildCoverage_Disabled(t *testing.T) {
	cov, got := BuildCoverage([]string{"SC-0001"}, nil, ScanMeta{}, CoverageOptions{})
	assert.Empty(t, got)
	assert.Equal(t, 1, cov.Missing)

	cov, got = BuildCoverage(nil, nil, ScanMeta{}, CoverageOptions{MustHaveTest: true})
	assert.Empty(t, got)
	assert.Equal(t, 0, cov.Total)
}

func TestCheckBackReferences(t *testing.T) {
	declared := map[string]bool{"SPEC-0001": true, "SC-0001": true}

	t.Run("referenced", func(t *testing.T) {
		got := CheckBackReferences([]TextFile{{Path: "src/a.go", Text: "// implements SPEC-0001"}}, declared)
		assert.Empty(t, got)
	})

	t.Run("only undeclared ids", func(t *testing.T) {
		files := []TextFile{
			{Path: "src/a.go", Text: "// SPEC-0009"},
			{Path: "src/b.go", Text: "package b"},
		}
		got := CheckBackReferences(files, declared)
		require.Len(t, got, 1)
		assert.Equal(t, issue.TraceNoCodeRefs, got[0].Code)
		assert.Equal(t, issue.SeverityWarning, got[0].Severity)
	})

	t.Run("nothing declared", func(t *testing.T) {
		assert.Empty(t, CheckBackReferences(nil, nil))
	})
}
