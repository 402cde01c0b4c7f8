package validation

import (
	"fmt"
	"strings"

	"github.com/c360studio/qfai/contract"
	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
)

// SpecInput is a parsed spec document.
type SpecInput struct {
	Path string
	Spec *parser.ParsedSpec
}

// ScenarioInput is a parsed scenario document.
type ScenarioInput struct {
	Path string
	Doc  *parser.ScenarioDocument
}

// TraceOptions carries the configuration of the traceability pass.
type TraceOptions struct {
	BRMustHaveSC              bool
	SCMustTouchContracts      bool
	AllowOrphanContracts      bool
	UnknownContractIDSeverity issue.Severity
}

// scenarioRef is the resolved id view of one scenario.
type scenarioRef struct {
	File      string
	Line      int
	Name      string
	SpecID    string
	SCID      string
	BRs       []string
	Contracts []string
}

// Graph is the cross-reference graph built by Trace.
type Graph struct {
	SpecIDs      map[string]bool
	BRIDs        map[string]bool
	SpecToBRIDs  map[string]map[string]bool
	BROwner      map[string]string
	SCIDs        []string
	ContractRefs map[string]bool

	brOrder   []brEntry
	scenarios []scenarioRef
}

type brEntry struct {
	id   string
	file string
}

// UpstreamIDs returns the set of SPEC, BR and SC ids the project declares.
func (g *Graph) UpstreamIDs() map[string]bool {
	out := make(map[string]bool, len(g.SpecIDs)+len(g.BRIDs)+len(g.SCIDs))
	for id := range g.SpecIDs {
		out[id] = true
	}
	for id := range g.BRIDs {
		out[id] = true
	}
	for _, id := range g.SCIDs {
		out[id] = true
	}
	return out
}

// Trace cross-references specs, scenarios and the contract index in a fixed
// phase order: id sets, scenario resolution, referential integrity, coverage.
// Scenario inputs whose document failed to parse must be omitted by the caller.
func Trace(specs []SpecInput, scenarios []ScenarioInput, index *contract.Index, opts TraceOptions) (*Graph, []issue.Issue) {
	g := &Graph{
		SpecIDs:      make(map[string]bool),
		BRIDs:        make(map[string]bool),
		SpecToBRIDs:  make(map[string]map[string]bool),
		BROwner:      make(map[string]string),
		ContractRefs: make(map[string]bool),
	}
	var issues []issue.Issue

	issues = append(issues, g.collectSpecs(specs)...)
	issues = append(issues, g.resolveScenarios(scenarios)...)
	issues = append(issues, g.checkReferences(index, opts)...)
	issues = append(issues, g.checkCoverage(index, opts)...)
	return g, issues
}

// collectSpecs builds the SPEC and BR sets. Ids declared twice across packs
// are reported as duplicates; the first declaration owns the id.
func (g *Graph) collectSpecs(specs []SpecInput) []issue.Issue {
	var issues []issue.Issue
	specFile := make(map[string]string)
	brFile := make(map[string]string)

	for _, s := range specs {
		specID := s.Spec.SpecID
		if specID != "" {
			if first, dup := specFile[specID]; dup {
				issues = append(issues, duplicateID(specID, s.Path, s.Spec.H1Line, first))
			} else {
				specFile[specID] = s.Path
				g.SpecIDs[specID] = true
				g.SpecToBRIDs[specID] = make(map[string]bool)
			}
		}

		for _, br := range s.Spec.BRIDs() {
			if first, dup := brFile[br]; dup {
				issues = append(issues, duplicateID(br, s.Path, brLine(s.Spec, br), first))
				continue
			}
			brFile[br] = s.Path
			g.BRIDs[br] = true
			g.BROwner[br] = specID
			g.brOrder = append(g.brOrder, brEntry{id: br, file: s.Path})
			if owned, ok := g.SpecToBRIDs[specID]; ok {
				owned[br] = true
			}
		}
	}
	return issues
}

// resolveScenarios extracts the SPEC, SC, BR and contract ids of every
// scenario. SPEC tag cardinality is checked here; SC tag cardinality belongs
// to the scenario validator.
func (g *Graph) resolveScenarios(scenarios []ScenarioInput) []issue.Issue {
	var issues []issue.Issue
	scFile := make(map[string]string)

	for _, in := range scenarios {
		for _, sc := range in.Doc.Scenarios {
			ref := scenarioRef{
				File:      in.Path,
				Line:      sc.Line,
				Name:      scenarioLabel(sc),
				BRs:       tagIDs(sc.Tags, ids.KindBR),
				Contracts: sc.ContractRefs(),
			}

			specs := tagIDs(sc.Tags, ids.KindSPEC)
			if len(specs) == 1 {
				ref.SpecID = specs[0]
			} else {
				msg := fmt.Sprintf("%s has no SPEC tag", ref.Name)
				if len(specs) > 1 {
					msg = fmt.Sprintf("%s has %d SPEC tags (%s); exactly one is required", ref.Name, len(specs), strings.Join(specs, ", "))
				}
				issues = append(issues, issue.New(issue.ScenarioSpecTagCount, issue.SeverityError, msg,
					issue.At(in.Path, sc.Line),
					issue.WithRefs(specs...),
					issue.WithRule("trace.spec_tag"),
					issue.Suggest("Tag the Feature with exactly one @SPEC-dddd"),
				))
			}

			if scs := tagIDs(sc.Tags, ids.KindSC); len(scs) == 1 {
				ref.SCID = scs[0]
				if first, dup := scFile[ref.SCID]; dup {
					issues = append(issues, duplicateID(ref.SCID, in.Path, sc.Line, first))
				} else {
					scFile[ref.SCID] = in.Path
					g.SCIDs = append(g.SCIDs, ref.SCID)
				}
			}

			for _, c := range ref.Contracts {
				g.ContractRefs[c] = true
			}
			g.scenarios = append(g.scenarios, ref)
		}
	}
	return issues
}

// checkReferences resolves every scenario reference against the declared sets.
func (g *Graph) checkReferences(index *contract.Index, opts TraceOptions) []issue.Issue {
	var issues []issue.Issue
	reportedSpec := make(map[string]bool)

	for _, ref := range g.scenarios {
		if ref.SpecID != "" && !g.SpecIDs[ref.SpecID] {
			key := ref.File + "\x00" + ref.SpecID
			if !reportedSpec[key] {
				reportedSpec[key] = true
				issues = append(issues, issue.New(issue.TraceSpecUnknown, issue.SeverityError,
					fmt.Sprintf("Scenario references unknown SPEC %s", ref.SpecID),
					issue.At(ref.File, ref.Line),
					issue.WithRefs(ref.SpecID),
					issue.WithRule("trace.spec"),
				))
			}
		}

		for _, br := range ref.BRs {
			switch {
			case !g.BRIDs[br]:
				issues = append(issues, issue.New(issue.TraceBRUnknown, issue.SeverityError,
					fmt.Sprintf("%s references unknown %s", ref.Name, br),
					issue.At(ref.File, ref.Line),
					issue.WithRefs(br),
					issue.WithRule("trace.br"),
				))
			case ref.SpecID != "" && g.SpecIDs[ref.SpecID] && !g.SpecToBRIDs[ref.SpecID][br]:
				owner := g.BROwner[br]
				if owner == "" {
					owner = "a spec without id"
				}
				issues = append(issues, issue.New(issue.TraceBRWrongSpec, issue.SeverityError,
					fmt.Sprintf("%s references %s, which belongs to %s, not %s", ref.Name, br, owner, ref.SpecID),
					issue.At(ref.File, ref.Line),
					issue.WithRefs(br, ref.SpecID),
					issue.WithRule("trace.br_spec"),
					issue.Suggest(fmt.Sprintf("Tag only BRs declared in %s", ref.SpecID)),
				))
			}
		}

		for _, c := range ref.Contracts {
			if index.Has(c) {
				continue
			}
			issues = append(issues, issue.New(issue.TraceContractUnknown, opts.UnknownContractIDSeverity,
				fmt.Sprintf("%s references %s, which no contract declares", ref.Name, c),
				issue.At(ref.File, ref.Line),
				issue.WithRefs(c),
				issue.WithRule("trace.contract"),
				issue.Suggest(fmt.Sprintf("Declare %s in a contract file or fix the reference", c)),
			))
		}
	}
	return issues
}

// checkCoverage reports orphans. Each check only runs when its upstream set
// is non-empty, so partially scaffolded projects are not flooded.
func (g *Graph) checkCoverage(index *contract.Index, opts TraceOptions) []issue.Issue {
	var issues []issue.Issue

	if opts.BRMustHaveSC && len(g.BRIDs) > 0 {
		referenced := make(map[string]bool)
		for _, ref := range g.scenarios {
			for _, br := range ref.BRs {
				referenced[br] = true
			}
		}
		for _, e := range g.brOrder {
			if referenced[e.id] {
				continue
			}
			issues = append(issues, issue.New(issue.BROrphan, issue.SeverityError,
				fmt.Sprintf("%s is not covered by any scenario", e.id),
				issue.InFile(e.file),
				issue.WithRefs(e.id),
				issue.WithRule("trace.br_coverage"),
				issue.Suggest(fmt.Sprintf("Tag at least one scenario with @%s", e.id)),
			))
		}
	}

	if opts.SCMustTouchContracts {
		for _, ref := range g.scenarios {
			if ref.SCID == "" || len(ref.Contracts) > 0 {
				continue
			}
			issues = append(issues, issue.New(issue.SCNoContract, issue.SeverityError,
				fmt.Sprintf("%s (%s) references no UI, API or DB contract", ref.Name, ref.SCID),
				issue.At(ref.File, ref.Line),
				issue.WithRefs(ref.SCID),
				issue.WithRule("trace.sc_contract"),
				issue.Suggest("Reference the contract ids the scenario exercises, as tags or in step text"),
			))
		}
	}

	if !opts.AllowOrphanContracts && index.Len() > 0 && len(g.scenarios) > 0 {
		for _, id := range index.SortedIDs() {
			if g.ContractRefs[id] {
				continue
			}
			issues = append(issues, issue.New(issue.ContractOrphan, issue.SeverityError,
				fmt.Sprintf("%s is not referenced by any scenario", id),
				issue.InFile(index.IDToFiles[id][0]),
				issue.WithRefs(id),
				issue.WithRule("trace.contract_coverage"),
				issue.Suggest("Reference the contract from a scenario or set allowOrphanContracts"),
			))
		}
	}
	return issues
}

func duplicateID(id, file string, line int, first string) issue.Issue {
	return issue.New(issue.DuplicateID, issue.SeverityError,
		fmt.Sprintf("%s is declared again; first declared in %s", id, first),
		issue.At(file, line),
		issue.WithRefs(id),
		issue.WithRule("ids.unique"),
	)
}

func brLine(spec *parser.ParsedSpec, id string) int {
	for _, br := range spec.BRs {
		if br.ID == id {
			return br.Line
		}
	}
	for _, group := range [][]parser.MalformedRule{spec.BRsWithoutPriority, spec.BRsWithInvalidPriority} {
		for _, br := range group {
			if br.ID == id {
				return br.Line
			}
		}
	}
	return 0
}
