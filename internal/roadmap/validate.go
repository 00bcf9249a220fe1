package roadmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mandatory sections: a roadmap without these is incomplete and the
// generation attempt is rejected. Optional sections are repaired with
// deterministic defaults instead.
var mandatoryFields = []string{
	"career_name",
	"career_description",
	"required_education",
	"entrance_exams",
}

// Validate checks the mandatory sections and returns the list of
// missing field names in declaration order.
func Validate(r *Roadmap) (complete bool, missing []string) {
	for _, field := range mandatoryFields {
		switch field {
		case "career_name":
			if r.CareerName == "" {
				missing = append(missing, field)
			}
		case "career_description":
			if r.CareerDescription == "" {
				missing = append(missing, field)
			}
		case "required_education":
			if emptySection(r.RequiredEducation) {
				missing = append(missing, field)
			}
		case "entrance_exams":
			if emptySection(r.EntranceExams) {
				missing = append(missing, field)
			}
		}
	}
	return len(missing) == 0, missing
}

// emptySection reports whether a raw JSON section counts as absent:
// missing, null, an empty string, or an empty container.
func emptySection(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`, "{}", "[]":
		return true
	}
	return false
}

type defaultStreamRecommendation struct {
	Class1112    string   `json:"class_11_12"`
	Reason       string   `json:"reason"`
	Alternatives []string `json:"alternatives"`
}

type defaultSkill struct {
	Skill string `json:"skill"`
	Level string `json:"level"`
}

type defaultTimeline struct {
	Class10       string `json:"class_10"`
	Class1112     string `json:"class_11_12"`
	Year12        string `json:"year_1_2"`
	Year34        string `json:"year_3_4"`
	TotalDuration string `json:"total_duration"`
}

type defaultProspects struct {
	AverageSalary   string `json:"average_salary"`
	GrowthRate      string `json:"growth_rate"`
	JobAvailability string `json:"job_availability"`
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err) // static values only
	}
	return data
}

// RepairOptional backfills every absent optional section with a
// deterministic default. Two equal careers always repair to
// byte-identical payloads.
func RepairOptional(r *Roadmap, career string) {
	if emptySection(r.StreamRecommendation) {
		r.StreamRecommendation = mustJSON(defaultStreamRecommendation{
			Class1112:    "Consult career counselor based on specific requirements",
			Reason:       "Stream depends on entrance exam requirements for this career",
			Alternatives: []string{},
		})
	}
	if emptySection(r.SkillsRequired) {
		r.SkillsRequired = mustJSON([]defaultSkill{
			{Skill: "Core domain knowledge", Level: "Expert"},
			{Skill: "Communication and teamwork", Level: "Intermediate"},
		})
	}
	if emptySection(r.Timeline) {
		r.Timeline = mustJSON(defaultTimeline{
			Class10:       "Focus on foundational subjects and explore career interests",
			Class1112:     fmt.Sprintf("Prepare for entrance exams required for %s", career),
			Year12:        "Build foundational knowledge in the chosen field",
			Year34:        "Gain practical experience through internships and projects",
			TotalDuration: "Typically 4+ years of formal education",
		})
	}
	if emptySection(r.ProjectsToBuild) {
		r.ProjectsToBuild = json.RawMessage("[]")
	}
	if emptySection(r.Certifications) {
		r.Certifications = json.RawMessage("[]")
	}
	if emptySection(r.Internships) {
		r.Internships = json.RawMessage("[]")
	}
	if emptySection(r.TopColleges) {
		r.TopColleges = json.RawMessage("[]")
	}
	if emptySection(r.CareerProspects) {
		r.CareerProspects = mustJSON(defaultProspects{
			AverageSalary:   "Varies by industry and experience",
			GrowthRate:      "Moderate to High",
			JobAvailability: "Moderate",
		})
	}
}
