package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
)

// Index maps declared contract ids to the files declaring them.
type Index struct {
	IDs          map[string]bool
	IDToFiles    map[string][]string
	FilesByKind  map[ids.Kind][]string
	Declarations map[string][]parser.Declaration
}

// Has reports whether id is declared by at least one file.
func (ix *Index) Has(id string) bool {
	return ix.IDs[id]
}

// SortedIDs returns every declared id in lexicographic order.
func (ix *Index) SortedIDs() []string {
	out := make([]string, 0, len(ix.IDs))
	for id := range ix.IDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct declared ids.
func (ix *Index) Len() int {
	return len(ix.IDs)
}

// BuildIndex aggregates the declarations of every file. Duplicate
// declarations are reported, never merged silently: a file declaring more
// than one id and an id declared by more than one file are independent checks.
func BuildIndex(files []File) (*Index, []issue.Issue) {
	ix := &Index{
		IDs:          make(map[string]bool),
		IDToFiles:    make(map[string][]string),
		FilesByKind:  make(map[ids.Kind][]string),
		Declarations: make(map[string][]parser.Declaration),
	}
	var issues []issue.Issue

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, f := range sorted {
		ix.FilesByKind[f.Kind] = append(ix.FilesByKind[f.Kind], f.Path)
		decls := parser.ScanContractDeclarations(f.Text)
		ix.Declarations[f.Path] = decls

		switch {
		case len(decls) == 0:
			issues = append(issues, issue.New(issue.ContractIDMissing, issue.SeverityError,
				fmt.Sprintf("Contract file has no %s declaration", parser.ContractMarker),
				issue.InFile(f.Path),
				issue.WithRule("contract.declaration"),
				issue.Suggest(fmt.Sprintf("Add a line '# %s: %s-0001' with the contract id", parser.ContractMarker, f.Kind)),
			))
		case len(decls) > 1:
			values := make([]string, len(decls))
			for i, d := range decls {
				values[i] = d.Value
			}
			issues = append(issues, issue.New(issue.ContractMultipleDeclarations, issue.SeverityError,
				fmt.Sprintf("Contract file declares %d ids; exactly one is allowed", len(decls)),
				issue.At(f.Path, decls[1].Line),
				issue.WithRefs(values...),
				issue.WithRule("contract.declaration"),
				issue.Suggest("Split the file so each contract declares a single id"),
			))
		}

		for _, d := range decls {
			if !ids.IsValid(d.Value) {
				issues = append(issues, issue.New(issue.IDFormatInvalid, issue.SeverityError,
					fmt.Sprintf("Malformed contract id %q (expected %s-dddd)", d.Value, f.Kind),
					issue.At(f.Path, d.Line),
					issue.WithRefs(d.Value),
					issue.WithRule("ids.format"),
				))
				continue
			}
			if kind, _ := ids.KindOf(d.Value); kind != f.Kind {
				issues = append(issues, issue.New(issue.ContractKindMismatch, issue.SeverityError,
					fmt.Sprintf("%s declared in a %s contract file", d.Value, f.Kind),
					issue.At(f.Path, d.Line),
					issue.WithRefs(d.Value),
					issue.WithRule("contract.declaration"),
				))
			}
			ix.IDs[d.Value] = true
			if !contains(ix.IDToFiles[d.Value], f.Path) {
				ix.IDToFiles[d.Value] = append(ix.IDToFiles[d.Value], f.Path)
			}
		}
	}

	for _, id := range ix.SortedIDs() {
		paths := ix.IDToFiles[id]
		if len(paths) < 2 {
			continue
		}
		issues = append(issues, issue.New(issue.ContractDuplicateID, issue.SeverityError,
			fmt.Sprintf("%s is declared in %d files: %s", id, len(paths), strings.Join(paths, ", ")),
			issue.InFile(paths[0]),
			issue.WithRefs(id),
			issue.WithRule("contract.uniqueness"),
			issue.Suggest("Keep exactly one declaration per contract id"),
		))
	}
	return ix, issues
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
