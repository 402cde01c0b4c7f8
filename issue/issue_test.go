package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	i := New(TraceContractUnknown, SeverityWarning, "Scenario references unknown contract UI-9999",
		At("specs/spec-0001/scenario.feature", 7),
		WithRefs("UI-9999"),
		WithRule("traceability.contractRefs"),
		Suggest("Declare UI-9999 in a contract file"),
	)

	assert.Equal(t, CategoryCompatibility, i.Category)
	assert.Equal(t, []string{"UI-9999"}, i.Refs)
	require.NotNil(t, i.Loc)
	assert.Equal(t, 7, i.Loc.Line)
	assert.Equal(t,
		"[warning] TRACE_CONTRACT_UNKNOWN: Scenario references unknown contract UI-9999 (specs/spec-0001/scenario.feature:7)",
		i.String())
}

func TestAt_ZeroLineHasNoLocation(t *testing.T) {
	i := New(SpecNoBR, SeverityError, "no rules", At("spec.md", 0), InCategory(CategoryChange))

	assert.Nil(t, i.Loc)
	assert.Equal(t, "spec.md", i.File)
	assert.Equal(t, CategoryChange, i.Category)
}

func TestCountAndFilter(t *testing.T) {
	issues := []Issue{
		New(BROrphan, SeverityError, "a"),
		New(BROrphan, SeverityError, "b"),
		New(TraceNoCodeRefs, SeverityWarning, "c"),
		New(SpecsEmpty, SeverityInfo, "d"),
	}

	assert.Equal(t, Counts{Info: 1, Warning: 1, Error: 2}, Count(issues))
	assert.Len(t, Filter(issues, BROrphan), 2)
	assert.Empty(t, Filter(issues, SCNoTest))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityError, ParseSeverity("bogus"))
	assert.True(t, SeverityError.AtLeast(SeverityWarning))
	assert.False(t, SeverityInfo.AtLeast(SeverityWarning))
	assert.True(t, SeverityWarning.AtLeast(SeverityWarning))
}
