package cv

import "fmt"

// JSONSchemaPrompt targets structured-output mode.
func JSONSchemaPrompt(text string) string {
	return fmt.Sprintf(`Extract ALL structured information from the following CV/resume text. Be thorough and complete.

REQUIRED fields to fill:
1. full_name (the candidate's name)
2. email and phone_number (contact details)
3. summary (professional summary or profile text; write a short one from the CV if none is present)
4. work_experience array - ALL positions with:
   - job_title, company
   - start_date and end_date (as written in the CV)
   - description (responsibilities and achievements)
5. education array - ALL degrees/diplomas with degree, institution, graduation_date
6. skills array - ALL listed skills, technologies, and languages

DO NOT leave work_experience or education empty if the CV lists any positions or studies.

Text:
%s
`, text)
}

// PromptParsingPrompt targets free-form mode; the reply is parsed with a
// repair pass, so the prompt insists on bare JSON.
func PromptParsingPrompt(text string) string {
	return fmt.Sprintf(`Extract structured information from the following CV/resume text.

IMPORTANT: Return ONLY valid JSON without any explanation text, comments, or markdown formatting.
Use EXACTLY these field names in your JSON output:

Personal information:
- full_name, email, phone_number
- summary (professional summary or profile)

Work experience (work_experience), each entry with:
- job_title, company, start_date, end_date, description

Education (education), each entry with:
- degree, institution, graduation_date

Skills:
- skills (flat list of strings: technologies, tools, languages)

Ensure all required fields are present. If a field cannot be found, use empty string or empty list.

Text:
%s

Return ONLY the JSON object, no other text.
`, text)
}
