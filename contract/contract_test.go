package contract

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/c360studio/qfai/ids"
	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uiFile(p, body string) File {
	return File{Path: p, Kind: ids.KindUI, Text: body}
}

func TestBuildIndex_DuplicateAcrossFiles(t *testing.T) {
	files := []File{
		uiFile("contracts/ui/b.yaml", "# QFAI-CONTRACT-ID: UI-0001\nid: UI-0001\n"),
		uiFile("contracts/ui/a.yaml", "# QFAI-CONTRACT-ID: UI-0001\nid: UI-0001\n"),
	}

	ix, issues := BuildIndex(files)

	dups := issue.Filter(issues, issue.ContractDuplicateID)
	require.Len(t, dups, 1)
	assert.Equal(t, []string{"UI-0001"}, dups[0].Refs)
	assert.Equal(t, []string{"contracts/ui/a.yaml", "contracts/ui/b.yaml"}, ix.IDToFiles["UI-0001"])
	assert.True(t, ix.Has("UI-0001"))
	assert.Empty(t, issue.Filter(issues, issue.ContractMultipleDeclarations))
}

func TestBuildIndex_MultipleDeclarationsInOneFile(t *testing.T) {
	files := []File{
		uiFile("contracts/ui/a.yaml", "# QFAI-CONTRACT-ID: UI-0001\n# QFAI-CONTRACT-ID: UI-0002\nid: UI-0001\n"),
		uiFile("contracts/ui/b.yaml", "# QFAI-CONTRACT-ID: UI-0002\nid: UI-0002\n"),
	}

	ix, issues := BuildIndex(files)

	multi := issue.Filter(issues, issue.ContractMultipleDeclarations)
	require.Len(t, multi, 1)
	assert.Equal(t, "contracts/ui/a.yaml", multi[0].File)
	assert.Equal(t, []string{"UI-0001", "UI-0002"}, multi[0].Refs)

	dups := issue.Filter(issues, issue.ContractDuplicateID)
	require.Len(t, dups, 1, "both checks fire independently")
	assert.Equal(t, []string{"UI-0002"}, dups[0].Refs)
	assert.Equal(t, []string{"UI-0001", "UI-0002"}, ix.SortedIDs())
}

func TestBuildIndex_DeclarationProblems(t *testing.T) {
	files := []File{
		uiFile("contracts/ui/none.yaml", "id: UI-0009\n"),
		uiFile("contracts/ui/bad.yaml", "# QFAI-CONTRACT-ID: UI-12\n"),
		uiFile("contracts/ui/api.yaml", "# QFAI-CONTRACT-ID: API-0001\n"),
		{Path: "contracts/db/t.sql", Kind: ids.KindDB, Text: "-- QFAI-CONTRACT-ID: DB-0001\nCREATE TABLE t (id int);\n"},
	}

	ix, issues := BuildIndex(files)

	missing := issue.Filter(issues, issue.ContractIDMissing)
	require.Len(t, missing, 1)
	assert.Equal(t, "contracts/ui/none.yaml", missing[0].File)

	invalid := issue.Filter(issues, issue.IDFormatInvalid)
	require.Len(t, invalid, 1)
	assert.Equal(t, []string{"UI-12"}, invalid[0].Refs)
	require.NotNil(t, invalid[0].Loc)
	assert.Equal(t, 1, invalid[0].Loc.Line)

	mismatch := issue.Filter(issues, issue.ContractKindMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, []string{"API-0001"}, mismatch[0].Refs)

	assert.Equal(t, []string{"API-0001", "DB-0001"}, ix.SortedIDs())
	assert.False(t, ix.Has("UI-12"))
	assert.Len(t, ix.FilesByKind[ids.KindUI], 3)
	assert.Equal(t, []string{"contracts/db/t.sql"}, ix.FilesByKind[ids.KindDB])
}

func TestValidate_UI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []issue.Code
	}{
		{"valid ui id", "id: UI-0001\n", nil},
		{"valid nav id", "id: NAV-0003\n", nil},
		{"missing id", "title: Login\n", []issue.Code{issue.ContractUIIDMissing}},
		{"empty document", "# QFAI-CONTRACT-ID: UI-0001\n", []issue.Code{issue.ContractUIIDMissing}},
		{"wrong prefix", "id: API-0001\n", []issue.Code{issue.ContractUIIDInvalid}},
		{"unparseable", "id: [unclosed\n", []issue.Code{issue.ContractParseError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate([]File{uiFile("contracts/ui/x.yaml", tt.text)})
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestValidate_API(t *testing.T) {
	tests := []struct {
		name string
		path string
		text string
		want []issue.Code
	}{
		{"yaml with version", "contracts/api/a.yaml", "openapi: 3.0.3\ninfo:\n  title: x\n", nil},
		{"json with version", "contracts/api/a.json", `{"openapi": "3.1.0", "paths": {}}`, nil},
		{"missing field", "contracts/api/a.yaml", "info:\n  title: x\n", []issue.Code{issue.ContractAPIOpenAPIMissing}},
		{"numeric version", "contracts/api/a.yaml", "openapi: 3.1\n", []issue.Code{issue.ContractAPIOpenAPIMissing}},
		{"broken json", "contracts/api/a.json", `{"openapi": `, []issue.Code{issue.ContractParseError}},
		{"json with line declaration", "contracts/api/a.json", "// QFAI-CONTRACT-ID: API-0001\n{\"openapi\": \"3.0.3\", \"paths\": {}}\n", nil},
		{"json with block declaration", "contracts/api/a.json", "{\n/* QFAI-CONTRACT-ID: API-0001 */\n\"openapi\": \"3.0.3\"\n}\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate([]File{{Path: tt.path, Kind: ids.KindAPI, Text: tt.text}})
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestDeclaredJSONContractIsClean(t *testing.T) {
	files := []File{{
		Path: "contracts/api/login.json",
		Kind: ids.KindAPI,
		Text: "// QFAI-CONTRACT-ID: API-0001\n{\n  \"openapi\": \"3.0.3\",\n  \"paths\": {}\n}\n",
	}}

	ix, indexIssues := BuildIndex(files)
	assert.Empty(t, indexIssues)
	assert.True(t, ix.Has("API-0001"))
	assert.Empty(t, Validate(files))
}

func TestValidate_DBDangerous(t *testing.T) {
	sql := `-- QFAI-CONTRACT-ID: DB-0001
-- DROP TABLE in a comment is fine
CREATE TABLE users (id int);
/* TRUNCATE users; */
DROP TABLE legacy;
ALTER TABLE users
  DROP COLUMN nickname;
`
	got := Validate([]File{{Path: "contracts/db/users.sql", Kind: ids.KindDB, Text: sql}})

	require.Len(t, got, 2)
	for _, i := range got {
		assert.Equal(t, issue.ContractDBDangerous, i.Code)
		assert.Equal(t, issue.SeverityWarning, i.Severity)
	}
	require.NotNil(t, got[0].Loc)
	assert.Equal(t, 5, got[0].Loc.Line)
	require.NotNil(t, got[1].Loc)
	assert.Equal(t, 6, got[1].Loc.Line)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"c/ui/login.yaml": {Data: []byte("# QFAI-CONTRACT-ID: UI-0001\nid: UI-0001\n")},
		"c/ui/notes.txt":  {Data: []byte("ignored")},
		"c/api/auth.json": {Data: []byte(`{"openapi":"3.0.0"}`)},
		"c/db/schema.sql": {Data: []byte("-- QFAI-CONTRACT-ID: DB-0001\n")},
		"c/other/x.yaml":  {Data: []byte("id: UI-0002\n")},
	}

	files, err := Load(context.Background(), source.NewDiscoverer(fsys, nil), source.NewFSReader(fsys), "c")
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "c/api/auth.json", files[0].Path)
	assert.Equal(t, ids.KindAPI, files[0].Kind)
	assert.Equal(t, "c/db/schema.sql", files[1].Path)
	assert.Equal(t, "c/ui/login.yaml", files[2].Path)
	assert.Contains(t, files[2].Text, "UI-0001")
}

func TestLoad_MissingDirectory(t *testing.T) {
	fsys := fstest.MapFS{}
	files, err := Load(context.Background(), source.NewDiscoverer(fsys, nil), source.NewFSReader(fsys), ".qfai/contracts")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func codes(issues []issue.Issue) []issue.Code {
	var out []issue.Code
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}
