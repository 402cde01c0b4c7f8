package validation

import (
	"fmt"
	"strings"

	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
)

// ParseScenario parses a scenario document. A parse failure is reported as a
// single SCENARIO_PARSE_ERROR and a nil document.
func ParseScenario(file, text string) (*parser.ScenarioDocument, []issue.Issue) {
	doc, errs := parser.ParseScenarioDocument(file, text)
	if doc != nil {
		return doc, nil
	}
	return nil, []issue.Issue{issue.New(issue.ScenarioParseError, issue.SeverityError,
		fmt.Sprintf("Scenario document could not be parsed: %s", strings.Join(errs, "; ")),
		issue.InFile(file),
		issue.WithRule("scenario.parse"),
	)}
}

// stepRequirements lists the step kinds every scenario is expected to use.
var stepRequirements = []struct {
	kind    parser.StepKind
	keyword string
}{
	{parser.StepGiven, "Given"},
	{parser.StepWhen, "When"},
	{parser.StepThen, "Then"},
}

// ValidateScenario checks the structure of one parsed scenario document.
// SPEC tag cardinality is a cross-reference concern and is left to the
// traceability pass.
func ValidateScenario(file string, doc *parser.ScenarioDocument) []issue.Issue {
	if !doc.HasFeature {
		return []issue.Issue{issue.New(issue.ScenarioNoFeature, issue.SeverityError,
			"Scenario document has no Feature",
			issue.InFile(file),
			issue.WithRule("scenario.feature"),
			issue.Suggest("Start the document with '@SPEC-0001' and 'Feature: <name>'"),
		)}
	}

	var issues []issue.Issue
	if len(doc.Scenarios) == 0 {
		issues = append(issues, issue.New(issue.ScenarioEmpty, issue.SeverityError,
			"Feature contains no scenarios",
			issue.At(file, doc.FeatureLine),
			issue.WithRule("scenario.count"),
		))
	}

	tagLines := []numberedLine{{doc.FeatureLine, strings.Join(doc.FeatureTags, " ")}}

	for _, sc := range doc.Scenarios {
		name := scenarioLabel(sc)
		tagLines = append(tagLines, numberedLine{sc.Line, strings.Join(sc.Tags, " ")})

		if len(sc.Tags) == 0 {
			issues = append(issues, issue.New(issue.ScenarioNoTags, issue.SeverityError,
				fmt.Sprintf("%s has no tags", name),
				issue.At(file, sc.Line),
				issue.WithRule("scenario.tags"),
				issue.Suggest("Tag the scenario with its SC id and the BR ids it covers"),
			))
		}

		if scs := tagIDs(sc.Tags, ids.KindSC); len(scs) != 1 {
			msg := fmt.Sprintf("%s has no SC tag", name)
			if len(scs) > 1 {
				msg = fmt.Sprintf("%s has %d SC tags (%s); exactly one is required", name, len(scs), strings.Join(scs, ", "))
			}
			issues = append(issues, issue.New(issue.ScenarioSCCardinality, issue.SeverityError, msg,
				issue.At(file, sc.Line),
				issue.WithRefs(scs...),
				issue.WithRule("scenario.sc_tag"),
				issue.Suggest("Give each scenario exactly one @SC-dddd tag"),
			))
		}

		for _, req := range stepRequirements {
			if sc.HasStepKind(req.kind) {
				continue
			}
			issues = append(issues, issue.New(issue.ScenarioStepMissing, issue.SeverityWarning,
				fmt.Sprintf("%s has no %s step", name, req.keyword),
				issue.At(file, sc.Line),
				issue.WithRule("scenario.steps"),
			))
		}
	}

	issues = append(issues, invalidIDIssues(file, tagLines, ids.AllKinds...)...)
	return issues
}

// tagIDs returns the tags that are well-formed ids of kind, in tag order.
func tagIDs(tags []string, kind ids.Kind) []string {
	var out []string
	for _, t := range tags {
		if ids.IsKind(t, kind) {
			out = append(out, t)
		}
	}
	return out
}

func scenarioLabel(sc parser.ScenarioNode) string {
	kind := "Scenario"
	if sc.Kind == parser.KindScenarioOutline {
		kind = "Scenario Outline"
	}
	if sc.Name == "" {
		return kind
	}
	return fmt.Sprintf("%s %q", kind, sc.Name)
}
