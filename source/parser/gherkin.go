package parser

import (
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/c360studio/qfai/ids"
)

// ScenarioKind distinguishes plain scenarios from outlines.
type ScenarioKind string

// Scenario kinds.
const (
	KindScenario        ScenarioKind = "Scenario"
	KindScenarioOutline ScenarioKind = "ScenarioOutline"
)

// StepKind is the normalised Given/When/Then role of a step.
type StepKind string

// Step kinds. Conjunctions (And, But, *) take the kind of the previous step.
const (
	StepGiven   StepKind = "given"
	StepWhen    StepKind = "when"
	StepThen    StepKind = "then"
	StepUnknown StepKind = "unknown"
)

// Step is one scenario step.
type Step struct {
	Keyword   string     `json:"keyword"`
	Kind      StepKind   `json:"kind"`
	Text      string     `json:"text"`
	Line      int        `json:"line"`
	DocString string     `json:"doc_string,omitempty"`
	DataTable [][]string `json:"data_table,omitempty"`
}

// ScenarioNode is one Scenario or Scenario Outline. Tags holds the effective
// tags: feature and rule tags are inherited ahead of the scenario's own tags.
type ScenarioNode struct {
	Name       string       `json:"name"`
	Kind       ScenarioKind `json:"kind"`
	Line       int          `json:"line"`
	Tags       []string     `json:"tags"`
	OwnTags    []string     `json:"own_tags"`
	RuleName   string       `json:"rule,omitempty"`
	Steps      []Step       `json:"steps"`
	Background []Step       `json:"background,omitempty"`
	Examples   [][]string   `json:"examples,omitempty"`
}

// ScenarioDocument is a parsed .feature file.
type ScenarioDocument struct {
	URI         string         `json:"uri"`
	FeatureName string         `json:"feature_name,omitempty"`
	FeatureLine int            `json:"feature_line,omitempty"`
	FeatureTags []string       `json:"feature_tags"`
	Language    string         `json:"language,omitempty"`
	HasFeature  bool           `json:"has_feature"`
	Scenarios   []ScenarioNode `json:"scenarios"`
}

// ParseScenarioDocument parses Gherkin text. On failure it returns a nil
// document and a non-empty list of error messages.
func ParseScenarioDocument(uri, text string) (*ScenarioDocument, []string) {
	ast, err := gherkin.ParseGherkinDocument(strings.NewReader(text), (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, splitParseErrors(err)
	}

	doc := &ScenarioDocument{URI: uri}
	if ast == nil || ast.Feature == nil {
		return doc, nil
	}

	feature := ast.Feature
	doc.HasFeature = true
	doc.FeatureName = strings.TrimSpace(feature.Name)
	doc.FeatureLine = lineOf(feature.Location)
	doc.FeatureTags = tagNames(feature.Tags)
	doc.Language = feature.Language

	var featureBackground []Step
	for _, child := range feature.Children {
		switch {
		case child.Background != nil:
			featureBackground = append(featureBackground, convertSteps(child.Background.Steps)...)
		case child.Scenario != nil:
			doc.Scenarios = append(doc.Scenarios,
				convertScenario(child.Scenario, doc.FeatureTags, nil, "", featureBackground))
		case child.Rule != nil:
			doc.Scenarios = append(doc.Scenarios,
				convertRule(child.Rule, doc.FeatureTags, featureBackground)...)
		}
	}
	return doc, nil
}

func convertRule(rule *messages.Rule, featureTags []string, featureBackground []Step) []ScenarioNode {
	ruleTags := tagNames(rule.Tags)
	background := append([]Step(nil), featureBackground...)
	var nodes []ScenarioNode
	for _, child := range rule.Children {
		switch {
		case child.Background != nil:
			background = append(background, convertSteps(child.Background.Steps)...)
		case child.Scenario != nil:
			nodes = append(nodes, convertScenario(child.Scenario, featureTags, ruleTags,
				strings.TrimSpace(rule.Name), background))
		}
	}
	return nodes
}

func convertScenario(sc *messages.Scenario, featureTags, ruleTags []string, ruleName string, background []Step) ScenarioNode {
	own := tagNames(sc.Tags)
	node := ScenarioNode{
		Name:       strings.TrimSpace(sc.Name),
		Kind:       KindScenario,
		Line:       lineOf(sc.Location),
		Tags:       mergeTags(featureTags, ruleTags, own),
		OwnTags:    own,
		RuleName:   ruleName,
		Steps:      convertSteps(sc.Steps),
		Background: background,
	}
	if len(sc.Examples) > 0 || strings.Contains(sc.Keyword, "Outline") || strings.Contains(sc.Keyword, "Template") {
		node.Kind = KindScenarioOutline
	}
	for _, ex := range sc.Examples {
		if ex.TableHeader != nil {
			node.Examples = append(node.Examples, rowValues(ex.TableHeader))
		}
		for _, row := range ex.TableBody {
			node.Examples = append(node.Examples, rowValues(row))
		}
	}
	return node
}

func convertSteps(steps []*messages.Step) []Step {
	out := make([]Step, 0, len(steps))
	prev := StepUnknown
	for _, s := range steps {
		kind := stepKind(s, prev)
		step := Step{
			Keyword: strings.TrimSpace(s.Keyword),
			Kind:    kind,
			Text:    s.Text,
			Line:    lineOf(s.Location),
		}
		if s.DocString != nil {
			step.DocString = s.DocString.Content
		}
		if s.DataTable != nil {
			for _, row := range s.DataTable.Rows {
				step.DataTable = append(step.DataTable, rowValues(row))
			}
		}
		out = append(out, step)
		prev = kind
	}
	return out
}

func stepKind(s *messages.Step, prev StepKind) StepKind {
	switch s.KeywordType {
	case messages.StepKeywordType_CONTEXT:
		return StepGiven
	case messages.StepKeywordType_ACTION:
		return StepWhen
	case messages.StepKeywordType_OUTCOME:
		return StepThen
	case messages.StepKeywordType_CONJUNCTION:
		return prev
	}
	// Older dialect data may leave the keyword type unset.
	switch strings.TrimSpace(s.Keyword) {
	case "Given":
		return StepGiven
	case "When":
		return StepWhen
	case "Then":
		return StepThen
	case "And", "But", "*":
		return prev
	}
	return StepUnknown
}

// HasStepKind reports whether the scenario, including its background,
// contains a step of kind.
func (n ScenarioNode) HasStepKind(kind StepKind) bool {
	for _, s := range n.Background {
		if s.Kind == kind {
			return true
		}
	}
	for _, s := range n.Steps {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// Text joins every prose surface of the scenario: step text, doc-strings,
// data-table cells and example table cells.
func (n ScenarioNode) Text() string {
	var sb strings.Builder
	for _, s := range n.Steps {
		sb.WriteString(s.Text)
		sb.WriteByte('\n')
		if s.DocString != "" {
			sb.WriteString(s.DocString)
			sb.WriteByte('\n')
		}
		writeRows(&sb, s.DataTable)
	}
	writeRows(&sb, n.Examples)
	return sb.String()
}

// ContractRefs returns the UI, API and DB ids referenced by the scenario's
// tags or any of its text surfaces, tags first, deduplicated.
func (n ScenarioNode) ContractRefs() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(found []string) {
		for _, id := range found {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for _, tag := range n.Tags {
		if kind, ok := ids.KindOf(tag); ok && ids.IsContractKind(kind) {
			add([]string{tag})
		}
	}
	add(ids.ExtractAllIDs(n.Text(), ids.ContractKinds...))
	return out
}

func writeRows(sb *strings.Builder, rows [][]string) {
	for _, row := range rows {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteByte('\n')
	}
}

func rowValues(row *messages.TableRow) []string {
	values := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		values = append(values, c.Value)
	}
	return values
}

// tagNames strips the leading '@' from each tag.
func tagNames(tags []*messages.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimPrefix(t.Name, "@"))
	}
	return out
}

// mergeTags concatenates tag lists, dropping repeats.
func mergeTags(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func lineOf(loc *messages.Location) int {
	if loc == nil {
		return 0
	}
	return int(loc.Line)
}

func splitParseErrors(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		out = append(out, "gherkin parse error")
	}
	return out
}
