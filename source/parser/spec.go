package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/c360studio/qfai/ids"
)

// BusinessRulesSection is the H2 title holding the BR list.
const BusinessRulesSection = "Business Rules"

// Priorities are the canonical BR priority tags.
var Priorities = []string{"P0", "P1", "P2", "P3"}

// BR line patterns, tried in this order; the first match wins. A line with a
// garbled priority must be reported as invalid rather than missing, so the
// any-priority pattern runs before the no-priority one.
var (
	brWellFormedRe  = regexp.MustCompile(`^\s*[-*]\s+\[(BR-\d{4})\]\s*[\[(](P[0-3])[\])]\s*(.*)$`)
	brAnyPriorityRe = regexp.MustCompile(`^\s*[-*]\s+\[(BR-\d{4})\]\s*[\[(]([^\])]*)[\])]\s*(.*)$`)
	brNoPriorityRe  = regexp.MustCompile(`^\s*[-*]\s+\[(BR-\d{4})\]\s*(.*)$`)
)

// BusinessRule is one well-formed BR line.
type BusinessRule struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
	Text     string `json:"text"`
	Line     int    `json:"line"`
}

// MalformedRule is a BR line without a canonical priority.
type MalformedRule struct {
	ID       string `json:"id"`
	Priority string `json:"priority,omitempty"` // the offending token, if any
	Text     string `json:"text"`
	Line     int    `json:"line"`
}

// ParsedSpec is the structural view of a spec document.
type ParsedSpec struct {
	SpecID                 string          `json:"spec_id,omitempty"`
	H1Title                string          `json:"h1_title,omitempty"`
	H1Line                 int             `json:"h1_line,omitempty"`
	Sections               map[string]bool `json:"sections"`
	HasBRSection           bool            `json:"has_br_section"`
	BRSection              Section         `json:"-"`
	BRs                    []BusinessRule  `json:"brs"`
	BRsWithoutPriority     []MalformedRule `json:"brs_without_priority"`
	BRsWithInvalidPriority []MalformedRule `json:"brs_with_invalid_priority"`
}

// BRIDs returns the ids of every BR line regardless of priority state, in
// document order.
func (p *ParsedSpec) BRIDs() []string {
	type entry struct {
		line int
		id   string
	}
	var all []entry
	for _, br := range p.BRs {
		all = append(all, entry{br.Line, br.ID})
	}
	for _, br := range p.BRsWithoutPriority {
		all = append(all, entry{br.Line, br.ID})
	}
	for _, br := range p.BRsWithInvalidPriority {
		all = append(all, entry{br.Line, br.ID})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].line < all[j].line })
	out := make([]string, 0, len(all))
	for _, e := range all {
		out = append(out, e.id)
	}
	return out
}

// ParseSpec extracts the SPEC id from the first H1 and classifies the lines of
// the Business Rules section.
func ParseSpec(doc string) *ParsedSpec {
	spec := &ParsedSpec{Sections: make(map[string]bool)}

	if h1, ok := FirstH1(doc); ok {
		spec.H1Title = h1.Title
		spec.H1Line = h1.Line
		if found := ids.ExtractIDs(h1.Title, ids.KindSPEC); len(found) > 0 {
			spec.SpecID = found[0]
		}
	}

	sections := ExtractH2Sections(doc)
	for title := range sections {
		spec.Sections[title] = true
	}

	section, ok := sections[BusinessRulesSection]
	if !ok {
		return spec
	}
	spec.HasBRSection = true
	spec.BRSection = section

	for i, line := range section.Lines() {
		lineNo := section.StartLine + i
		classifyBRLine(spec, line, lineNo)
	}
	return spec
}

func classifyBRLine(spec *ParsedSpec, line string, lineNo int) {
	if m := brWellFormedRe.FindStringSubmatch(line); m != nil {
		spec.BRs = append(spec.BRs, BusinessRule{
			ID:       m[1],
			Priority: m[2],
			Text:     strings.TrimSpace(m[3]),
			Line:     lineNo,
		})
		return
	}
	if m := brAnyPriorityRe.FindStringSubmatch(line); m != nil {
		spec.BRsWithInvalidPriority = append(spec.BRsWithInvalidPriority, MalformedRule{
			ID:       m[1],
			Priority: strings.TrimSpace(m[2]),
			Text:     strings.TrimSpace(m[3]),
			Line:     lineNo,
		})
		return
	}
	if m := brNoPriorityRe.FindStringSubmatch(line); m != nil {
		spec.BRsWithoutPriority = append(spec.BRsWithoutPriority, MalformedRule{
			ID:   m[1],
			Text: strings.TrimSpace(m[2]),
			Line: lineNo,
		})
	}
}
