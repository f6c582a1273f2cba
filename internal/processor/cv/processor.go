// Package cv implements the document processor for CVs and resumes.
package cv

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/llm"
	"github.com/docflow/docproc/internal/processor"
)

var keywords = func() []string {
	kw := []string{
		"cv", "curriculum vitae", "resume", "werkervaring", "experience",
		"opleiding", "education", "vaardigheden", "skills", "diploma",
		"universiteit", "university", "hogeschool", "talen", "languages",
		"profiel", "profile", "carrière", "career", "sollicitatie",
		"stage", "internship", "certificaat", "certificate", "referenties",
		"references", "linkedin", "competenties",
	}
	sort.Strings(kw)
	return kw
}()

// completenessFields is the number of top-level fields scored for
// completeness: full_name, email, phone_number, summary, work_experience,
// education, skills.
const completenessFields = 7

// Processor handles CV classification, extraction, validation and merging.
type Processor struct {
	client llm.ChatClient
	cfg    common.LLMConfig
	logger *slog.Logger
	stats  processor.Statistics
}

func New(client llm.ChatClient, cfg common.LLMConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{client: client, cfg: cfg, logger: logger}
}

func (p *Processor) DocumentType() constants.DocumentType { return constants.DocTypeCV }
func (p *Processor) DisplayName() string                  { return "CV" }
func (p *Processor) ToolName() string                     { return "process_cv" }

func (p *Processor) ToolDescription() string {
	return "Process CVs and resumes and extract structured data such as personal " +
		"information, work experience, education, and skills. " +
		"Supports plain text input with automatic type detection."
}

func (p *Processor) Keywords() []string {
	return append([]string(nil), keywords...)
}

func (p *Processor) JSONSchema() map[string]any {
	return BuildJSONSchema()
}

// Classify scores text on keyword presence: 10 points per hit, capped at 100.
func (p *Processor) Classify(_ context.Context, text string) (float64, error) {
	confidence := processor.KeywordConfidence(text, keywords)
	p.logger.Debug("cv.classify", "confidence", confidence, "text_length", len(text))
	return confidence, nil
}

func (p *Processor) Extract(ctx context.Context, text string, method constants.ExtractionMethod) (processor.Document, error) {
	return processor.RunExtraction(ctx, p, p.extractOnce, text, method, &p.stats, p.logger)
}

func (p *Processor) extractOnce(ctx context.Context, text string, method constants.ExtractionMethod) (processor.Document, error) {
	prompt := JSONSchemaPrompt(text)
	if method == constants.MethodPromptParsing {
		prompt = PromptParsingPrompt(text)
	}

	var data Data
	req := llm.ChatRequest{
		Model:       p.cfg.Model,
		Prompt:      prompt,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	if err := processor.CallAndDecode(ctx, p.client, req, method, p.JSONSchema(), &data, p.logger); err != nil {
		return nil, err
	}
	return &data, nil
}

// Merge combines chunk partials: scalar fields take the first non-empty value
// in input order, work experience and education are fuzzily deduplicated, and
// skills are deduplicated case-insensitively.
func (p *Processor) Merge(partials []processor.Document) (processor.Document, error) {
	if len(partials) == 0 {
		return nil, common.ErrNoPartials
	}

	var cvs []*Data
	for _, part := range partials {
		if c, ok := part.(*Data); ok && c != nil {
			cvs = append(cvs, c)
		}
	}
	if len(cvs) == 0 {
		return nil, fmt.Errorf("%w: no cv data in partials", common.ErrWrongDocumentType)
	}

	merged := *cvs[0]
	for _, c := range cvs[1:] {
		if merged.FullName == "" {
			merged.FullName = c.FullName
		}
		if merged.Email == "" {
			merged.Email = c.Email
		}
		if merged.PhoneNumber == "" {
			merged.PhoneNumber = c.PhoneNumber
		}
		if merged.Summary == "" {
			merged.Summary = c.Summary
		}
	}

	var allExperience []WorkExperience
	var allEducation []Education
	var allSkills []string
	for _, c := range cvs {
		allExperience = append(allExperience, c.WorkExperience...)
		allEducation = append(allEducation, c.Education...)
		allSkills = append(allSkills, c.Skills...)
	}
	merged.WorkExperience = dedupExperience(allExperience)
	merged.Education = dedupEducation(allEducation)
	merged.Skills = dedupSkills(allSkills)

	p.logger.Info("cv.merge",
		"partials", len(cvs),
		"experience_entries", len(merged.WorkExperience),
		"education_entries", len(merged.Education),
		"skills", len(merged.Skills))
	return &merged, nil
}

// dedupExperience collapses near-identical positions. Comparison key is job
// title plus company, which covers the same role split across chunks.
func dedupExperience(entries []WorkExperience) []WorkExperience {
	if len(entries) == 0 {
		return nil
	}
	var unique []WorkExperience
	for _, entry := range entries {
		duplicate := false
		for _, seen := range unique {
			key1 := fmt.Sprintf("%s %s", entry.JobTitle, entry.Company)
			key2 := fmt.Sprintf("%s %s", seen.JobTitle, seen.Company)
			if processor.IsFuzzyDuplicate(key1, key2) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, entry)
		}
	}
	return unique
}

func dedupEducation(entries []Education) []Education {
	if len(entries) == 0 {
		return nil
	}
	var unique []Education
	for _, entry := range entries {
		duplicate := false
		for _, seen := range unique {
			key1 := fmt.Sprintf("%s %s", entry.Degree, entry.Institution)
			key2 := fmt.Sprintf("%s %s", seen.Degree, seen.Institution)
			if processor.IsFuzzyDuplicate(key1, key2) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, entry)
		}
	}
	return unique
}

func dedupSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	var unique []string
	for _, skill := range skills {
		duplicate := false
		for _, seen := range unique {
			if processor.IsFuzzyDuplicate(skill, seen) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, skill)
		}
	}
	return unique
}

// Validate checks the required CV fields and scores completeness over the
// seven top-level fields.
func (p *Processor) Validate(data processor.Document) (bool, float64, []string) {
	c, ok := data.(*Data)
	if !ok || c == nil {
		return false, 0.0, []string{"data is not cv data"}
	}

	var issues []string
	if c.FullName == "" {
		issues = append(issues, "full_name is empty")
	}
	if c.Summary == "" {
		issues = append(issues, "summary is empty")
	}
	if len(c.WorkExperience) == 0 {
		issues = append(issues, "no work experience found")
	}
	if len(c.Education) == 0 {
		issues = append(issues, "no education found")
	}
	if len(c.Skills) == 0 {
		issues = append(issues, "no skills found")
	}

	filled := 0
	if c.FullName != "" {
		filled++
	}
	if c.Email != "" {
		filled++
	}
	if c.PhoneNumber != "" {
		filled++
	}
	if c.Summary != "" {
		filled++
	}
	if len(c.WorkExperience) > 0 {
		filled++
	}
	if len(c.Education) > 0 {
		filled++
	}
	if len(c.Skills) > 0 {
		filled++
	}
	completeness := float64(filled) / float64(completenessFields) * 100
	isValid := len(issues) == 0

	p.logger.Debug("cv.validate",
		"completeness", completeness, "is_valid", isValid, "issues", len(issues))
	return isValid, completeness, issues
}

// CustomMetrics derives CV-specific numbers from extracted data. Experience
// is a rough estimate of two years per listed position.
func (p *Processor) CustomMetrics(data processor.Document) map[string]any {
	c, ok := data.(*Data)
	if !ok || c == nil {
		return map[string]any{}
	}
	return map[string]any{
		"work_experience_count":      len(c.WorkExperience),
		"education_count":            len(c.Education),
		"skills_count":               len(c.Skills),
		"has_contact_info":           c.Email != "" || c.PhoneNumber != "",
		"has_summary":                c.Summary != "",
		"estimated_years_experience": 2 * len(c.WorkExperience),
	}
}

func (p *Processor) UpdateStatistics(success bool, elapsed time.Duration, confidence, completeness *float64) {
	p.stats.Update(success, elapsed, confidence, completeness)
}

func (p *Processor) Statistics() processor.Stats {
	return p.stats.Snapshot()
}
