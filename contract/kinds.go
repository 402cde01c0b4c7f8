// Package contract loads UI, API and DB contract files, indexes their
// declared identifiers and runs the per-kind structural checks.
package contract

import (
	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
)

// KindSpec describes where contracts of one kind live and how they are checked.
type KindSpec struct {
	Kind       ids.Kind
	Subdir     string
	Extensions []string
	validate   func(File) []issue.Issue
}

// Kinds is the contract kind registry, in discovery order.
var Kinds = []KindSpec{
	{Kind: ids.KindUI, Subdir: "ui", Extensions: []string{".yaml", ".yml"}, validate: validateUI},
	{Kind: ids.KindAPI, Subdir: "api", Extensions: []string{".yaml", ".yml", ".json"}, validate: validateAPI},
	{Kind: ids.KindDB, Subdir: "db", Extensions: []string{".sql"}, validate: validateDB},
}

// SpecFor returns the registry entry for kind.
func SpecFor(kind ids.Kind) (KindSpec, bool) {
	for _, k := range Kinds {
		if k.Kind == kind {
			return k, true
		}
	}
	return KindSpec{}, false
}

// File is one loaded contract file.
type File struct {
	Path string
	Kind ids.Kind
	Text string
}
