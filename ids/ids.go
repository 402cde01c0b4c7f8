// Package ids implements the identifier grammar shared by spec, scenario and
// contract documents.
//
// Every identifier has the shape KIND-dddd (exactly four digits, upper-case
// kind prefix). Each kind carries a strict pattern used for extraction and a
// loose, case-insensitive pattern used to surface malformed candidates such as
// "BR-01", "sc-0001" or "UI-0001a". A loose candidate needs at least one digit,
// so words like "api-gateway" are not identifiers at all.
package ids

import (
	"regexp"
	"sort"
)

// Kind identifies an identifier family.
type Kind string

// Known identifier kinds.
const (
	KindSPEC Kind = "SPEC"
	KindBR   Kind = "BR"
	KindSC   Kind = "SC"
	KindUI   Kind = "UI"
	KindAPI  Kind = "API"
	KindDB   Kind = "DB"
	KindADR  Kind = "ADR"
)

// AllKinds lists every registered kind in a stable order.
var AllKinds = []Kind{KindSPEC, KindBR, KindSC, KindUI, KindAPI, KindDB, KindADR}

// ContractKinds are the kinds declared by contract files.
var ContractKinds = []Kind{KindUI, KindAPI, KindDB}

// UpstreamKinds are the kinds that code and tests are expected to reference.
var UpstreamKinds = []Kind{KindSPEC, KindBR, KindSC, KindUI, KindAPI, KindDB}

// Grammar is the strict/loose pattern pair for one kind.
type Grammar struct {
	Strict *regexp.Regexp
	Loose  *regexp.Regexp
	exact  *regexp.Regexp
}

var registry = map[Kind]Grammar{}

func init() {
	for _, k := range AllKinds {
		registry[k] = newGrammar(k)
	}
}

func newGrammar(k Kind) Grammar {
	prefix := regexp.QuoteMeta(string(k))
	return Grammar{
		Strict: regexp.MustCompile(prefix + `-\d{4}`),
		Loose:  regexp.MustCompile(`(?i)` + prefix + `-[A-Z-]*\d[A-Z0-9-]*`),
		exact:  regexp.MustCompile(`^` + prefix + `-\d{4}$`),
	}
}

// Lookup returns the grammar registered for kind.
func Lookup(kind Kind) (Grammar, bool) {
	g, ok := registry[kind]
	return g, ok
}

// ExtractIDs returns the strict identifiers of kind found in text,
// deduplicated in order of first occurrence.
func ExtractIDs(text string, kind Kind) []string {
	g, ok := Lookup(kind)
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, loc := range g.Strict.FindAllStringIndex(text, -1) {
		if !bounded(text, loc[0], loc[1]) {
			continue
		}
		id := text[loc[0]:loc[1]]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ExtractAllIDs runs ExtractIDs for each kind and concatenates the results.
func ExtractAllIDs(text string, kinds ...Kind) []string {
	var out []string
	for _, k := range kinds {
		out = append(out, ExtractIDs(text, k)...)
	}
	return out
}

// ExtractInvalidIDs returns loose candidates of the given kinds that fail the
// strict grammar, deduplicated in order of first occurrence.
func ExtractInvalidIDs(text string, kinds ...Kind) []string {
	type hit struct {
		pos int
		id  string
	}
	var hits []hit
	for _, k := range kinds {
		g, ok := Lookup(k)
		if !ok {
			continue
		}
		for _, loc := range g.Loose.FindAllStringIndex(text, -1) {
			if !bounded(text, loc[0], loc[1]) {
				continue
			}
			candidate := text[loc[0]:loc[1]]
			if g.exact.MatchString(candidate) {
				continue
			}
			hits = append(hits, hit{pos: loc[0], id: candidate})
		}
	}
	// Merge per-kind scans back into text order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	var out []string
	seen := make(map[string]bool)
	for _, h := range hits {
		if seen[h.id] {
			continue
		}
		seen[h.id] = true
		out = append(out, h.id)
	}
	return out
}

// IsValid reports whether id fully matches the strict grammar of any kind.
func IsValid(id string) bool {
	_, ok := KindOf(id)
	return ok
}

// KindOf returns the kind of a strictly well-formed identifier.
func KindOf(id string) (Kind, bool) {
	for _, k := range AllKinds {
		if registry[k].exact.MatchString(id) {
			return k, true
		}
	}
	return "", false
}

// IsKind reports whether id is a strictly well-formed identifier of kind.
func IsKind(id string, kind Kind) bool {
	g, ok := Lookup(kind)
	return ok && g.exact.MatchString(id)
}

// IsContractKind reports whether kind is declared by contract files.
func IsContractKind(kind Kind) bool {
	for _, k := range ContractKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// bounded reports whether text[start:end] is not glued to neighbouring
// identifier characters.
func bounded(text string, start, end int) bool {
	if start > 0 && isIDChar(text[start-1]) {
		return false
	}
	if end < len(text) && isIDChar(text[end]) {
		return false
	}
	return true
}

func isIDChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-':
		return true
	}
	return false
}
