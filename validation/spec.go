package validation

import (
	"fmt"
	"strings"

	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
)

// ValidateSpec checks the structure of one parsed spec document.
func ValidateSpec(file, text string, spec *parser.ParsedSpec, requiredSections []string) []issue.Issue {
	var issues []issue.Issue

	if spec.SpecID == "" {
		msg := "Spec has no SPEC id in its first H1 heading"
		if spec.H1Title == "" {
			msg = "Spec has no H1 heading carrying a SPEC id"
		}
		issues = append(issues, issue.New(issue.SpecIDMissing, issue.SeverityError, msg,
			issue.At(file, spec.H1Line),
			issue.WithRule("spec.id"),
			issue.Suggest("Start the document with '# SPEC-0001: <title>'"),
		))
	}
	issues = append(issues, invalidIDIssues(file, []numberedLine{{spec.H1Line, spec.H1Title}}, ids.KindSPEC)...)

	for _, title := range requiredSections {
		if spec.Sections[title] {
			continue
		}
		issues = append(issues, issue.New(issue.SpecSectionMissing, issue.SeverityError,
			fmt.Sprintf("Spec is missing the required section %q", title),
			issue.InFile(file),
			issue.WithRule("spec.sections"),
			issue.Suggest(fmt.Sprintf("Add a '## %s' section", title)),
		))
	}

	if len(spec.BRIDs()) == 0 {
		issues = append(issues, issue.New(issue.SpecNoBR, issue.SeverityError,
			"Spec declares no business rules",
			issue.At(file, spec.BRSection.StartLine-1),
			issue.WithRule("spec.br"),
			issue.Suggest(fmt.Sprintf("List rules under '## %s' as '- [BR-0001] (P1) text'", parser.BusinessRulesSection)),
		))
	}
	for _, br := range spec.BRsWithoutPriority {
		issues = append(issues, issue.New(issue.SpecBRNoPriority, issue.SeverityError,
			fmt.Sprintf("%s has no priority", br.ID),
			issue.At(file, br.Line),
			issue.WithRefs(br.ID),
			issue.WithRule("spec.br.priority"),
			issue.Suggest("Add one of (P0), (P1), (P2) or (P3) after the id"),
		))
	}
	for _, br := range spec.BRsWithInvalidPriority {
		issues = append(issues, issue.New(issue.SpecBRInvalidPriority, issue.SeverityError,
			fmt.Sprintf("%s has invalid priority %q", br.ID, br.Priority),
			issue.At(file, br.Line),
			issue.WithRefs(br.ID),
			issue.WithRule("spec.br.priority"),
			issue.Suggest("Use one of P0, P1, P2 or P3"),
		))
	}

	if spec.HasBRSection {
		var lines []numberedLine
		for i, l := range spec.BRSection.Lines() {
			lines = append(lines, numberedLine{spec.BRSection.StartLine + i, l})
		}
		issues = append(issues, invalidIDIssues(file, lines, ids.AllKinds...)...)
	}

	if scs := ids.ExtractIDs(text, ids.KindSC); len(scs) > 0 {
		issues = append(issues, issue.New(issue.SpecContainsScenarioID, issue.SeverityWarning,
			fmt.Sprintf("Spec mentions scenario ids (%s); SC ids belong in scenario.feature", strings.Join(scs, ", ")),
			issue.InFile(file),
			issue.WithRefs(scs...),
			issue.WithRule("spec.no_sc"),
		))
	}
	return issues
}

// numberedLine is a line of text with its 1-based line number.
type numberedLine struct {
	Line int
	Text string
}

// invalidIDIssues reports every malformed id candidate of kinds once per
// call, at the first line it appears on.
func invalidIDIssues(file string, lines []numberedLine, kinds ...ids.Kind) []issue.Issue {
	var issues []issue.Issue
	seen := make(map[string]bool)
	for _, l := range lines {
		for _, bad := range ids.ExtractInvalidIDs(l.Text, kinds...) {
			if seen[bad] {
				continue
			}
			seen[bad] = true
			issues = append(issues, issue.New(issue.IDFormatInvalid, issue.SeverityError,
				fmt.Sprintf("Malformed id %q (expected KIND-dddd with four digits)", bad),
				issue.At(file, l.Line),
				issue.WithRefs(bad),
				issue.WithRule("ids.format"),
			))
		}
	}
	return issues
}
