package contract

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/source/parser"
)

// Validate runs the structural check for each file's kind.
func Validate(files []File) []issue.Issue {
	var issues []issue.Issue
	for _, f := range files {
		spec, ok := SpecFor(f.Kind)
		if !ok || spec.validate == nil {
			continue
		}
		issues = append(issues, spec.validate(f)...)
	}
	return issues
}

// decodeDocument parses a YAML or JSON contract into a generic mapping.
// Declaration lines are blanked first so a // declaration does not break
// JSON. An empty document decodes to an empty map.
func decodeDocument(f File) (map[string]any, error) {
	doc := map[string]any{}
	text := blankDeclarations(f.Text)
	if strings.EqualFold(path.Ext(f.Path), ".json") {
		if strings.TrimSpace(text) == "" {
			return doc, nil
		}
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc, nil
}

// blankDeclarations empties every declaration line, keeping line breaks so
// decoder positions still match the file.
func blankDeclarations(text string) string {
	decls := parser.ScanContractDeclarations(text)
	if len(decls) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for _, d := range decls {
		if d.Line <= len(lines) {
			lines[d.Line-1] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func parseError(f File, err error) issue.Issue {
	return issue.New(issue.ContractParseError, issue.SeverityError,
		fmt.Sprintf("Contract could not be parsed: %v", err),
		issue.InFile(f.Path),
		issue.WithRule("contract.parse"),
	)
}

func validateUI(f File) []issue.Issue {
	doc, err := decodeDocument(f)
	if err != nil {
		return []issue.Issue{parseError(f, err)}
	}
	id, ok := doc["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return []issue.Issue{issue.New(issue.ContractUIIDMissing, issue.SeverityError,
			"UI contract has no id field",
			issue.InFile(f.Path),
			issue.WithRule("contract.ui.id"),
			issue.Suggest("Add a top-level 'id' such as UI-0001 or NAV-0001"),
		)}
	}
	if !strings.HasPrefix(id, "UI-") && !strings.HasPrefix(id, "NAV-") {
		return []issue.Issue{issue.New(issue.ContractUIIDInvalid, issue.SeverityError,
			fmt.Sprintf("UI contract id %q must start with UI- or NAV-", id),
			issue.InFile(f.Path),
			issue.WithRefs(id),
			issue.WithRule("contract.ui.id"),
		)}
	}
	return nil
}

func validateAPI(f File) []issue.Issue {
	doc, err := decodeDocument(f)
	if err != nil {
		return []issue.Issue{parseError(f, err)}
	}
	if v, ok := doc["openapi"].(string); ok && strings.TrimSpace(v) != "" {
		return nil
	}
	return []issue.Issue{issue.New(issue.ContractAPIOpenAPIMissing, issue.SeverityError,
		"API contract has no openapi version string",
		issue.InFile(f.Path),
		issue.WithRule("contract.api.openapi"),
		issue.Suggest("Add a top-level openapi field, quoted, for example openapi: \"3.0.3\""),
	)}
}

// dangerousSQL lists destructive statements flagged in DB contracts.
var dangerousSQL = []struct {
	name string
	re   *regexp.Regexp
}{
	{"DROP TABLE", regexp.MustCompile(`(?i)\bDROP\s+TABLE\b`)},
	{"DROP DATABASE", regexp.MustCompile(`(?i)\bDROP\s+DATABASE\b`)},
	{"TRUNCATE", regexp.MustCompile(`(?i)\bTRUNCATE\b`)},
	{"ALTER TABLE ... DROP", regexp.MustCompile(`(?i)\bALTER\s+TABLE\b[^;]*?\bDROP\b`)},
}

func validateDB(f File) []issue.Issue {
	sql := stripSQLComments(f.Text)
	var issues []issue.Issue
	for _, d := range dangerousSQL {
		for _, loc := range d.re.FindAllStringIndex(sql, -1) {
			line := strings.Count(sql[:loc[0]], "\n") + 1
			issues = append(issues, issue.New(issue.ContractDBDangerous, issue.SeverityWarning,
				fmt.Sprintf("DB contract contains a destructive statement (%s)", d.name),
				issue.At(f.Path, line),
				issue.WithRule("contract.db.dangerous"),
				issue.Suggest("Describe schema changes additively or move destructive steps to a migration"),
			))
		}
	}
	return issues
}

// stripSQLComments blanks out -- line comments and /* */ block comments,
// keeping newlines so offsets still map to the original line numbers.
func stripSQLComments(sql string) string {
	var sb strings.Builder
	sb.Grow(len(sql))
	inLine, inBlock := false, false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inLine:
			if c == '\n' {
				inLine = false
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		case inBlock:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				inBlock = false
				sb.WriteString("  ")
				i++
			} else if c == '\n' {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			inLine = true
			sb.WriteString("  ")
			i++
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			inBlock = true
			sb.WriteString("  ")
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
