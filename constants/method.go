package constants

// ExtractionMethod selects how a processor asks the LLM for structured output.
type ExtractionMethod string

const (
	// MethodJSONSchema constrains the LLM response to the processor's schema.
	MethodJSONSchema ExtractionMethod = "json_schema"
	// MethodPromptParsing uses a free-form prompt and parses the reply with a repair pass.
	MethodPromptParsing ExtractionMethod = "prompt_parsing"
	// MethodHybrid tries json_schema first and falls back to prompt_parsing
	// when the result is below the completeness acceptance threshold.
	MethodHybrid ExtractionMethod = "hybrid"
)

// HybridCompletenessThreshold is the completeness percentage a json_schema
// result must reach before hybrid mode accepts it without a fallback attempt.
const HybridCompletenessThreshold = 90.0

// ValidMethod reports whether m is one of the closed set of extraction methods.
func ValidMethod(m ExtractionMethod) bool {
	switch m {
	case MethodJSONSchema, MethodPromptParsing, MethodHybrid:
		return true
	}
	return false
}
