package cv

import "github.com/docflow/docproc/constants"

// WorkExperience is one employment entry on a CV.
type WorkExperience struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// Education is one degree or diploma entry.
type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationDate string `json:"graduation_date"`
}

// Data is the structured record extracted from a CV. Fields serialize without
// omitempty so completeness scoring sees every field, populated or not.
type Data struct {
	FullName       string           `json:"full_name"`
	Email          string           `json:"email"`
	PhoneNumber    string           `json:"phone_number"`
	Summary        string           `json:"summary"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []string         `json:"skills"`
}

func (*Data) DocumentType() constants.DocumentType {
	return constants.DocTypeCV
}

// BuildJSONSchema returns the CV schema as a generic map, used both as the
// structured-output constraint and for local validation of replies.
func BuildJSONSchema() map[string]any {
	experience := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"job_title":   map[string]any{"type": "string"},
			"company":     map[string]any{"type": "string"},
			"start_date":  map[string]any{"type": "string"},
			"end_date":    map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"job_title", "company"},
	}

	education := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"degree":          map[string]any{"type": "string"},
			"institution":     map[string]any{"type": "string"},
			"graduation_date": map[string]any{"type": "string"},
		},
		"required": []string{"degree", "institution"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"full_name":       map[string]any{"type": "string", "minLength": 1},
			"email":           map[string]any{"type": "string"},
			"phone_number":    map[string]any{"type": "string"},
			"summary":         map[string]any{"type": "string"},
			"work_experience": map[string]any{"type": "array", "items": experience},
			"education":       map[string]any{"type": "array", "items": education},
			"skills":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"full_name", "summary", "work_experience", "education", "skills"},
	}
}
