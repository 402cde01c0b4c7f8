// Package config provides configuration loading for qfai validation runs.
package config

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the project-level config file, resolved against the project root.
const FileName = "qfai.config.yaml"

// Severity values accepted by configurable checks.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// FailOn values.
const (
	FailOnError   = "error"
	FailOnWarning = "warning"
	FailOnNever   = "never"
)

// Config represents the complete qfai configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`
}

// PathsConfig locates the document trees, relative to the project root.
type PathsConfig struct {
	// SpecsDir holds one spec-* directory per spec pack.
	SpecsDir string `yaml:"specsDir" json:"specs_dir"`
	// ContractsDir holds ui/, api/ and db/ contract files.
	ContractsDir string `yaml:"contractsDir" json:"contracts_dir"`
	// SrcDir and TestsDir are scanned for identifier back-references, limited
	// to CodeExtensions.
	SrcDir   string `yaml:"srcDir" json:"src_dir"`
	TestsDir string `yaml:"testsDir" json:"tests_dir"`
	// ExcludeDirs are directory names skipped during discovery.
	ExcludeDirs []string `yaml:"excludeDirs" json:"exclude_dirs"`
}

// ValidationConfig toggles individual checks.
type ValidationConfig struct {
	// FailOn is the lowest severity that fails a run (error, warning, never).
	FailOn       string             `yaml:"failOn" json:"fail_on"`
	Require      RequireConfig      `yaml:"require" json:"require"`
	Traceability TraceabilityConfig `yaml:"traceability" json:"traceability"`
}

// RequireConfig lists structural requirements for spec documents.
type RequireConfig struct {
	// SpecSections are H2 titles every spec must contain, matched exactly.
	SpecSections []string `yaml:"specSections" json:"spec_sections"`
}

// TraceabilityConfig controls cross-document checks.
type TraceabilityConfig struct {
	BRMustHaveSC         bool     `yaml:"brMustHaveSC" json:"br_must_have_sc"`
	SCMustTouchContracts bool     `yaml:"scMustTouchContracts" json:"sc_must_touch_contracts"`
	SCMustHaveTest       bool     `yaml:"scMustHaveTest" json:"sc_must_have_test"`
	TestFileGlobs        []string `yaml:"testFileGlobs" json:"test_file_globs"`
	TestFileExcludeGlobs []string `yaml:"testFileExcludeGlobs" json:"test_file_exclude_globs"`
	// SCNoTestSeverity is the severity of SC_NO_TEST (error or warning).
	SCNoTestSeverity     string `yaml:"scNoTestSeverity" json:"sc_no_test_severity"`
	AllowOrphanContracts bool   `yaml:"allowOrphanContracts" json:"allow_orphan_contracts"`
	// UnknownContractIDSeverity is the severity of TRACE_CONTRACT_UNKNOWN (error or warning).
	UnknownContractIDSeverity string `yaml:"unknownContractIdSeverity" json:"unknown_contract_id_severity"`
	// CodeExtensions selects the files under SrcDir and TestsDir scanned for
	// back-references.
	CodeExtensions []string `yaml:"codeExtensions" json:"code_extensions"`
}

// DefaultConfig returns a Config with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SpecsDir:     ".qfai/specs",
			ContractsDir: ".qfai/contracts",
			SrcDir:       "src",
			TestsDir:     "tests",
			ExcludeDirs:  nil, // discovery defaults
		},
		Validation: ValidationConfig{
			FailOn: FailOnError,
			Require: RequireConfig{
				SpecSections: []string{"Purpose", "Scope", "Business Rules"},
			},
			Traceability: TraceabilityConfig{
				BRMustHaveSC:              true,
				SCMustTouchContracts:      true,
				SCMustHaveTest:            true,
				TestFileGlobs:             []string{"tests/**/*", "**/*_test.go", "**/*.test.ts", "**/*.spec.ts"},
				TestFileExcludeGlobs:      nil,
				SCNoTestSeverity:          SeverityError,
				AllowOrphanContracts:      false,
				UnknownContractIDSeverity: SeverityError,
				CodeExtensions:            []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".kt", ".rb", ".rs", ".cs"},
			},
		},
	}
}

// Parse decodes YAML on top of the defaults. Absent fields keep their default.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// FieldError describes one invalid field value.
type FieldError struct {
	Field string
	Value string
	Want  string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: invalid value %q (want %s)", e.Field, e.Value, e.Want)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() []FieldError {
	var errs []FieldError
	tr := c.Validation.Traceability

	if !oneOf(c.Validation.FailOn, FailOnError, FailOnWarning, FailOnNever) {
		errs = append(errs, FieldError{"validation.failOn", c.Validation.FailOn, "error|warning|never"})
	}
	if !oneOf(tr.UnknownContractIDSeverity, SeverityError, SeverityWarning) {
		errs = append(errs, FieldError{"validation.traceability.unknownContractIdSeverity", tr.UnknownContractIDSeverity, "error|warning"})
	}
	if !oneOf(tr.SCNoTestSeverity, SeverityError, SeverityWarning) {
		errs = append(errs, FieldError{"validation.traceability.scNoTestSeverity", tr.SCNoTestSeverity, "error|warning"})
	}
	for name, globs := range map[string][]string{
		"validation.traceability.testFileGlobs":        tr.TestFileGlobs,
		"validation.traceability.testFileExcludeGlobs": tr.TestFileExcludeGlobs,
	} {
		for _, g := range globs {
			if !doublestar.ValidatePattern(g) {
				errs = append(errs, FieldError{name, g, "valid doublestar patterns"})
				break
			}
		}
	}
	for name, dir := range map[string]string{
		"paths.specsDir":     c.Paths.SpecsDir,
		"paths.contractsDir": c.Paths.ContractsDir,
		"paths.srcDir":       c.Paths.SrcDir,
		"paths.testsDir":     c.Paths.TestsDir,
	} {
		if !isRelative(dir) {
			errs = append(errs, FieldError{name, dir, "a relative path inside the project"})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// normalize resets every invalid field to its default and returns the
// problems found.
func (c *Config) normalize() []FieldError {
	errs := c.Validate()
	if len(errs) == 0 {
		return nil
	}
	def := DefaultConfig()
	for _, e := range errs {
		switch e.Field {
		case "validation.failOn":
			c.Validation.FailOn = def.Validation.FailOn
		case "validation.traceability.unknownContractIdSeverity":
			c.Validation.Traceability.UnknownContractIDSeverity = def.Validation.Traceability.UnknownContractIDSeverity
		case "validation.traceability.scNoTestSeverity":
			c.Validation.Traceability.SCNoTestSeverity = def.Validation.Traceability.SCNoTestSeverity
		case "validation.traceability.testFileGlobs":
			c.Validation.Traceability.TestFileGlobs = def.Validation.Traceability.TestFileGlobs
		case "validation.traceability.testFileExcludeGlobs":
			c.Validation.Traceability.TestFileExcludeGlobs = def.Validation.Traceability.TestFileExcludeGlobs
		case "paths.specsDir":
			c.Paths.SpecsDir = def.Paths.SpecsDir
		case "paths.contractsDir":
			c.Paths.ContractsDir = def.Paths.ContractsDir
		case "paths.srcDir":
			c.Paths.SrcDir = def.Paths.SrcDir
		case "paths.testsDir":
			c.Paths.TestsDir = def.Paths.TestsDir
		}
	}
	return errs
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func isRelative(p string) bool {
	if p == "" || path.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}
