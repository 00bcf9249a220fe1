// Package roadmap implements the career roadmap pipeline: free-text
// normalization, structured roadmap generation with escalating
// leniency, mandatory/optional field repair, and the tiered
// cache/template/generate resolver.
package roadmap

import (
	"encoding/json"
)

// Roadmap is the canonical roadmap record. The two identity fields are
// typed strings; the remaining sections vary in shape across careers
// and are kept as raw JSON.
type Roadmap struct {
	CareerName        string `json:"career_name"`
	CareerDescription string `json:"career_description"`

	RequiredEducation json.RawMessage `json:"required_education,omitempty"`
	EntranceExams     json.RawMessage `json:"entrance_exams,omitempty"`

	StreamRecommendation json.RawMessage `json:"stream_recommendation,omitempty"`
	SkillsRequired       json.RawMessage `json:"skills_required,omitempty"`
	Timeline             json.RawMessage `json:"timeline,omitempty"`
	ProjectsToBuild      json.RawMessage `json:"projects_to_build,omitempty"`
	Certifications       json.RawMessage `json:"certifications,omitempty"`
	Internships          json.RawMessage `json:"internships,omitempty"`
	TopColleges          json.RawMessage `json:"top_colleges,omitempty"`
	CareerProspects      json.RawMessage `json:"career_prospects,omitempty"`
}

