package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/c360studio/qfai/contract"
	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specInput(t *testing.T, path, specID string, brs ...string) SpecInput {
	t.Helper()
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: test\n\n## Business Rules\n\n", specID)
	for _, br := range brs {
		fmt.Fprintf(&sb, "- [%s] (P1) rule\n", br)
	}
	return SpecInput{Path: path, Spec: parser.ParseSpec(sb.String())}
}

func scenarioInput(t *testing.T, path, text string) ScenarioInput {
	t.Helper()
	doc, errs := parser.ParseScenarioDocument(path, text)
	require.Empty(t, errs)
	return ScenarioInput{Path: path, Doc: doc}
}

func uiIndex(t *testing.T, declared ...string) *contract.Index {
	t.Helper()
	var files []contract.File
	for i, id := range declared {
		files = append(files, contract.File{
			Path: fmt.Sprintf("contracts/ui/%d.yaml", i),
			Kind: ids.KindUI,
			Text: "# QFAI-CONTRACT-ID: " + id + "\nid: " + id + "\n",
		})
	}
	ix, issues := contract.BuildIndex(files)
	require.Empty(t, issues)
	return ix
}

var strictTrace = TraceOptions{
	BRMustHaveSC:              true,
	SCMustTouchContracts:      true,
	UnknownContractIDSeverity: issue.SeverityError,
}

func TestTrace_BRUnderWrongSpec(t *testing.T) {
	specs := []SpecInput{
		specInput(t, "specs/spec-0001/spec.md", "SPEC-0001", "BR-0001"),
		specInput(t, "specs/spec-0002/spec.md", "SPEC-0002", "BR-0002"),
	}
	scenarios := []ScenarioInput{scenarioInput(t, "specs/spec-0001/scenario.feature", `@SPEC-0001
Feature: One

  @SC-0001 @BR-0001 @BR-0002 @UI-0001
  Scenario: crosses specs
    Given x
    When y
    Then z
`)}

	_, got := Trace(specs, scenarios, uiIndex(t, "UI-0001"), strictTrace)

	wrong := issue.Filter(got, issue.TraceBRWrongSpec)
	require.Len(t, wrong, 1)
	assert.Equal(t, []string{"BR-0002", "SPEC-0001"}, wrong[0].Refs)
	assert.Empty(t, issue.Filter(got, issue.TraceBRUnknown))
}

func TestTrace_ReferentialIntegrity(t *testing.T) {
	specs := []SpecInput{specInput(t, "specs/spec-0001/spec.md", "SPEC-0001", "BR-0001")}
	scenarios := []ScenarioInput{scenarioInput(t, "specs/spec-0009/scenario.feature", `@SPEC-0009
Feature: Unknown spec

  @SC-0001 @BR-0007
  Scenario: first
    Given the form on UI-0001 and API-0003
    When y
    Then z

  @SC-0002 @BR-0001 @UI-0001
  Scenario: second
    Given x
    When y
    Then z
`)}

	_, got := Trace(specs, scenarios, uiIndex(t, "UI-0001"), strictTrace)

	specUnknown := issue.Filter(got, issue.TraceSpecUnknown)
	require.Len(t, specUnknown, 1, "reported once per document")
	assert.Contains(t, specUnknown[0].Message, "Scenario references unknown SPEC")

	brUnknown := issue.Filter(got, issue.TraceBRUnknown)
	require.Len(t, brUnknown, 1)
	assert.Equal(t, []string{"BR-0007"}, brUnknown[0].Refs)

	contractUnknown := issue.Filter(got, issue.TraceContractUnknown)
	require.Len(t, contractUnknown, 1)
	assert.Equal(t, []string{"API-0003"}, contractUnknown[0].Refs)

	assert.Empty(t, issue.Filter(got, issue.TraceBRWrongSpec), "unknown spec skips ownership checks")
}

func TestTrace_SpecTagCardinality(t *testing.T) {
	specs := []SpecInput{
		specInput(t, "a/spec.md", "SPEC-0001", "BR-0001"),
		specInput(t, "b/spec.md", "SPEC-0002", "BR-0002"),
	}
	scenarios := []ScenarioInput{scenarioInput(t, "a/scenario.feature", `Feature: Tags

  @SC-0001 @UI-0001
  Scenario: no spec
    Given x

  @SPEC-0001 @SPEC-0002 @SC-0002 @UI-0001
  Scenario: two specs
    Given x
`)}

	_, got := Trace(specs, scenarios, uiIndex(t, "UI-0001"), TraceOptions{UnknownContractIDSeverity: issue.SeverityError})

	card := issue.Filter(got, issue.ScenarioSpecTagCount)
	require.Len(t, card, 2)
	assert.Empty(t, card[0].Refs)
	assert.Equal(t, []string{"SPEC-0001", "SPEC-0002"}, card[1].Refs)
}

func TestTrace_DuplicateIDs(t *testing.T) {
	specs := []SpecInput{
		specInput(t, "specs/spec-0001/spec.md", "SPEC-0001", "BR-0001"),
		specInput(t, "specs/spec-0002/spec.md", "SPEC-0001", "BR-0001"),
	}
	scenarios := []ScenarioInput{
		scenarioInput(t, "specs/spec-0001/scenario.feature", "@SPEC-0001\nFeature: A\n\n  @SC-0001 @BR-0001 @UI-0001\n  Scenario: a\n    Given x\n"),
		scenarioInput(t, "specs/spec-0002/scenario.feature", "@SPEC-0001\nFeature: B\n\n  @SC-0001 @UI-0001\n  Scenario: b\n    Given x\n"),
	}

	graph, got := Trace(specs, scenarios, uiIndex(t, "UI-0001"), strictTrace)

	dups := issue.Filter(got, issue.DuplicateID)
	require.Len(t, dups, 3)
	assert.Equal(t, []string{"SPEC-0001"}, dups[0].Refs)
	assert.Equal(t, []string{"BR-0001"}, dups[1].Refs)
	assert.Equal(t, []string{"SC-0001"}, dups[2].Refs)
	assert.Equal(t, "specs/spec-0002/scenario.feature", dups[2].File)
	assert.Equal(t, []string{"SC-0001"}, graph.SCIDs)
}

func TestTrace_Coverage(t *testing.T) {
	specs := []SpecInput{specInput(t, "specs/spec-0001/spec.md", "SPEC-0001", "BR-0001", "BR-0002")}
	scenarios := []ScenarioInput{scenarioInput(t, "specs/spec-0001/scenario.feature", `@SPEC-0001
Feature: Coverage

  @SC-0001 @BR-0001
  Scenario: no contract
    Given x
`)}
	index := uiIndex(t, "UI-0001")

	t.Run("strict", func(t *testing.T) {
		_, got := Trace(specs, scenarios, index, strictTrace)

		orphans := issue.Filter(got, issue.BROrphan)
		require.Len(t, orphans, 1)
		assert.Equal(t, []string{"BR-0002"}, orphans[0].Refs)

		noContract := issue.Filter(got, issue.SCNoContract)
		require.Len(t, noContract, 1)
		assert.Equal(t, []string{"SC-0001"}, noContract[0].Refs)

		orphanContracts := issue.Filter(got, issue.ContractOrphan)
		require.Len(t, orphanContracts, 1)
		assert.Equal(t, "contracts/ui/0.yaml", orphanContracts[0].File)
	})

	t.Run("relaxed", func(t *testing.T) {
		_, got := Trace(specs, scenarios, index, TraceOptions{AllowOrphanContracts: true})
		assert.Empty(t, got)
	})

	t.Run("gated on empty upstream sets", func(t *testing.T) {
		_, got := Trace(nil, nil, uiIndex(t), strictTrace)
		assert.Empty(t, got)

		_, got = Trace(nil, nil, index, strictTrace)
		assert.Empty(t, issue.Filter(got, issue.ContractOrphan), "no scenarios yet")
	})
}

func TestTrace_UnknownContractSeverity(t *testing.T) {
	specs := []SpecInput{specInput(t, "s/spec.md", "SPEC-0001", "BR-0001")}
	scenarios := []ScenarioInput{scenarioInput(t, "s/scenario.feature",
		"@SPEC-0001\nFeature: A\n\n  @SC-0001 @BR-0001 @UI-9999\n  Scenario: a\n    Given x\n")}

	opts := strictTrace
	opts.UnknownContractIDSeverity = issue.SeverityWarning
	_, got := Trace(specs, scenarios, uiIndex(t, "UI-0001"), opts)

	unknown := issue.Filter(got, issue.TraceContractUnknown)
	require.Len(t, unknown, 1)
	assert.Equal(t, issue.SeverityWarning, unknown[0].Severity)
	assert.Equal(t, []string{"UI-9999"}, unknown[0].Refs)
}
