package parser

import (
	"regexp"
	"strings"
)

// ContractMarker is the key that introduces a contract id declaration.
const ContractMarker = "QFAI-CONTRACT-ID"

// declarationRe matches a start-of-line declaration, optionally behind a
// #, //, --, /* or * comment leader and optionally closed by */.
var declarationRe = regexp.MustCompile(
	`^\s*(?:#+|//+|--+|/\*+|\*+)?\s*` + ContractMarker + `\s*:\s*(.*?)\s*(?:\*+/)?\s*$`)

// Declaration is one contract id declaration line. Value is the raw token,
// which may not satisfy the id grammar.
type Declaration struct {
	Value string `json:"value"`
	Line  int    `json:"line"`
}

// ScanContractDeclarations returns every declaration line in text, in order.
func ScanContractDeclarations(text string) []Declaration {
	var decls []Declaration
	for i, line := range splitLines(text) {
		if !strings.Contains(line, ContractMarker) {
			continue
		}
		m := declarationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := m[1]
		if fields := strings.Fields(value); len(fields) > 0 {
			value = fields[0]
		}
		decls = append(decls, Declaration{Value: value, Line: i + 1})
	}
	return decls
}
