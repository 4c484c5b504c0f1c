package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConfig     ReasonCode = "config"
	ReasonDataLoad   ReasonCode = "data_load"
	ReasonDataGen    ReasonCode = "data_generate"
	ReasonIndexBuild ReasonCode = "index_build"

	ReasonLLMGenerate ReasonCode = "llm_generate"
	ReasonLLMBudget   ReasonCode = "llm_budget"

	ReasonToolExec ReasonCode = "tool_exec"
	ReasonNotFound ReasonCode = "not_found"
)
