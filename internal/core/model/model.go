package model

// Category tags a violation with the rule family that produced it.
type Category string

const (
	CategoryComplexity     Category = "complexity"
	CategoryStructure      Category = "subsystem_structure"
	CategoryImportBoundary Category = "import_boundary"
	CategoryReexport       Category = "reexport_boundary"
	CategoryDepFormat      Category = "dependency_format"
	CategoryRedundancy     Category = "redundancy"
	CategoryNonexistentDep Category = "nonexistent_dependency"
	CategoryFileConflict   Category = "file_conflict"
	CategoryDomainStruct   Category = "domain_structure"
	CategoryDomainImport   Category = "domain_import"

	CategorySubsystemCount Category = "subsystem_count"
	CategoryFileFunctions  Category = "file_functions"
	CategoryFunctionLines  Category = "function_lines"
	CategoryFunctionArgs   Category = "function_args"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Remediation names the class of fix a violation calls for. The console
// reporter aggregates by these, so the strings are user-facing.
type Remediation string

const (
	RemediationCreateReadme         Remediation = "Create README documentation"
	RemediationCreateSubsystemFiles Remediation = "Create missing subsystem files"
	RemediationAddAllowed           Remediation = "Add to allowed dependencies"
	RemediationAddAllowedChildren   Remediation = "Add to allowedChildren"
	RemediationRemoveRedundant      Remediation = "Remove redundant dependency"
	RemediationRemoveNonexistent    Remediation = "Remove nonexistent dependency"
	RemediationRemoveForbidden      Remediation = "Remove forbidden dependency"
	RemediationFixPathFormat        Remediation = "Fix dependency path format"
	RemediationCreateOrRemoveChild  Remediation = "Create or remove subsystem declaration"
	RemediationRemoveInvalidChild   Remediation = "Remove invalid subsystem declaration"
	RemediationCreateIndex          Remediation = "Create subsystem index"
	RemediationCreateManifest       Remediation = "Create manifest file"
	RemediationUseInterface         Remediation = "Use subsystem interface"
	RemediationUseUtilsInterface    Remediation = "Use utils interface"
	RemediationUseSpecificChild     Remediation = "Use specific child subsystem (not router index)"
	RemediationRemoveCrossDomain    Remediation = "Remove cross-domain import"
	RemediationMoveSharedCode       Remediation = "Move shared code to appropriate location"
	RemediationMoveServiceToAPI     Remediation = "Move service to API layer"
	RemediationFixServiceImport     Remediation = "Fix domain service import"
	RemediationResolveFileConflict  Remediation = "Resolve file/folder conflict"
	RemediationFixUpwardReexport    Remediation = "Fix upward reexport"
	RemediationFixReexport          Remediation = "Fix reexport boundary"
	RemediationReduceSubsystems     Remediation = "Reduce subsystem count"
	RemediationReduceFunctions      Remediation = "Reduce function count per file"
	RemediationReduceFunctionLines  Remediation = "Reduce function line count"
	RemediationReduceFunctionArgs   Remediation = "Reduce function argument count"
	RemediationOther                Remediation = "Other"
)

// Violation is one pass/fail record emitted by a rule check. Immutable once
// produced; the reporter is the only consumer.
type Violation struct {
	Category    Category               `json:"type"`
	Severity    Severity               `json:"severity"`
	Message     string                 `json:"message"`
	Subsystem   string                 `json:"subsystem,omitempty"`
	File        string                 `json:"file,omitempty"`
	Line        int                    `json:"line,omitempty"`
	Advice      string                 `json:"recommendation,omitempty"`
	Remediation Remediation            `json:"recommendation_type,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func NewError(category Category, msg string) Violation {
	return Violation{Category: category, Severity: SeverityError, Message: msg}
}

func NewWarning(category Category, msg string) Violation {
	return Violation{Category: category, Severity: SeverityWarning, Message: msg}
}

func (v Violation) At(file string, line int) Violation {
	v.File = file
	v.Line = line
	return v
}

func (v Violation) In(subsystem string) Violation {
	v.Subsystem = subsystem
	return v
}

func (v Violation) Recommend(remediation Remediation, advice string) Violation {
	v.Remediation = remediation
	v.Advice = advice
	return v
}

func (v Violation) WithMetadata(key string, value interface{}) Violation {
	meta := make(map[string]interface{}, len(v.Metadata)+1)
	for k, val := range v.Metadata {
		meta[k] = val
	}
	meta[key] = value
	v.Metadata = meta
	return v
}
