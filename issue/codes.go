package issue

// Code identifies an issue class. Published codes keep their meaning forever;
// a changed meaning gets a new code.
type Code string

// Identifier grammar.
const (
	IDFormatInvalid Code = "ID_FORMAT_INVALID"
	DuplicateID     Code = "DUPLICATE_ID"
)

// Configuration.
const (
	ConfigInvalid      Code = "CONFIG_INVALID"
	ConfigInvalidValue Code = "CONFIG_INVALID_VALUE"
)

// Spec packs and spec documents.
const (
	SpecsEmpty             Code = "SPECS_EMPTY"
	SpecPackIncomplete     Code = "SPEC_PACK_INCOMPLETE"
	SpecIDMissing          Code = "SPEC_ID_MISSING"
	SpecNoBR               Code = "SPEC_NO_BR"
	SpecBRNoPriority       Code = "SPEC_BR_NO_PRIORITY"
	SpecBRInvalidPriority  Code = "SPEC_BR_INVALID_PRIORITY"
	SpecSectionMissing     Code = "SPEC_SECTION_MISSING"
	SpecContainsScenarioID Code = "SPEC_CONTAINS_SC"
)

// Scenario documents.
const (
	ScenarioParseError    Code = "SCENARIO_PARSE_ERROR"
	ScenarioNoFeature     Code = "SCENARIO_NO_FEATURE"
	ScenarioEmpty         Code = "SCENARIO_EMPTY"
	ScenarioNoTags        Code = "SCENARIO_NO_TAGS"
	ScenarioSCCardinality Code = "SCENARIO_SC_TAG_CARDINALITY"
	ScenarioSpecTagCount  Code = "SCENARIO_SPEC_TAG_CARDINALITY"
	ScenarioStepMissing   Code = "SCENARIO_STEP_MISSING"
)

// Contracts.
const (
	ContractsEmpty               Code = "CONTRACTS_EMPTY"
	ContractParseError           Code = "CONTRACT_PARSE_ERROR"
	ContractIDMissing            Code = "CONTRACT_ID_MISSING"
	ContractKindMismatch         Code = "CONTRACT_KIND_MISMATCH"
	ContractMultipleDeclarations Code = "CONTRACT_MULTIPLE_DECLARATIONS"
	ContractDuplicateID          Code = "CONTRACT_DUPLICATE_ID"
	ContractUIIDMissing          Code = "CONTRACT_UI_ID_MISSING"
	ContractUIIDInvalid          Code = "CONTRACT_UI_ID_INVALID"
	ContractAPIOpenAPIMissing    Code = "CONTRACT_API_OPENAPI_MISSING"
	ContractDBDangerous          Code = "CONTRACT_DB_DANGEROUS"
)

// Traceability.
const (
	TraceSpecUnknown     Code = "TRACE_SPEC_UNKNOWN"
	TraceBRUnknown       Code = "TRACE_BR_UNKNOWN"
	TraceBRWrongSpec     Code = "TRACE_BR_WRONG_SPEC"
	TraceContractUnknown Code = "TRACE_CONTRACT_UNKNOWN"
	TraceNoCodeRefs      Code = "TRACE_NO_CODE_REFS"
	BROrphan             Code = "BR_ORPHAN"
	SCNoContract         Code = "SC_NO_CONTRACT"
	ContractOrphan       Code = "CONTRACT_ORPHAN"
	SCNoTest             Code = "SC_NO_TEST"
	SCTestFilesEmpty     Code = "SC_TEST_FILES_EMPTY"
)
