// Package college implements program availability probing, batched
// fan-out across a college list, and search-grounded detail
// extraction with caching.
package college

import (
	"encoding/json"
	"strings"
)

// College identifies a candidate institution. Rank is the NIRF rank;
// zero means unranked.
type College struct {
	Name string
	Rank int
}

// DetailField is one extracted data point with its provenance.
// Upstream responses sometimes flatten fields to a bare string; the
// custom unmarshaler accepts both shapes.
type DetailField struct {
	Value     string `json:"value"`
	SourceURL string `json:"source_url,omitempty"`
	Note      string `json:"note,omitempty"`
}

func (f *DetailField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Value = s
		return nil
	}
	type alias DetailField
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = DetailField(a)
	return nil
}

// Details is the extracted record for one (college, degree, branch)
// program.
type Details struct {
	CollegeName string `json:"college_name"`
	Degree      string `json:"degree"`
	Branch      string `json:"branch"`
	DataYear    string `json:"data_year,omitempty"`

	CollegeWebsite DetailField `json:"college_website,omitempty"`
	Fees           DetailField `json:"fees"`
	AvgPackage     DetailField `json:"avg_package"`
	HighestPackage DetailField `json:"highest_package"`
	EntranceExam   DetailField `json:"entrance_exam"`
	Cutoff         DetailField `json:"cutoff"`

	// MissingFields lists critical fields still absent after all
	// extraction attempts. Empty for complete records.
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Critical fields: a record missing any of these is incomplete.
var criticalFields = []string{"fees", "avg_package", "highest_package", "entrance_exam", "cutoff"}

// CheckComplete reports whether all critical fields carry usable
// values and lists the ones that do not. The literal "Not available"
// is a confirmed search outcome and counts as present; null-like
// tokens do not.
func CheckComplete(d *Details) (complete bool, missing []string) {
	fields := map[string]DetailField{
		"fees":            d.Fees,
		"avg_package":     d.AvgPackage,
		"highest_package": d.HighestPackage,
		"entrance_exam":   d.EntranceExam,
		"cutoff":          d.Cutoff,
	}
	for _, name := range criticalFields {
		if nullLikeValue(fields[name].Value) {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}

// nullLikeValue reports whether a field value counts as absent.
func nullLikeValue(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	switch strings.ToLower(trimmed) {
	case "null", "none", "n/a":
		return true
	}
	return false
}
