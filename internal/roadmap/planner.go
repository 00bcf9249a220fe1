package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
	"careerpilot/internal/pipeline"
)

// Planner generates complete backward roadmaps. Each failed attempt
// escalates prompt leniency: the first asks for certainty only, the
// last accepts approximate guidance.
type Planner struct {
	client        llm.Client
	maxAttempts   int
	baseDelay     time.Duration
	callTimeout   time.Duration
	quotaCooldown time.Duration
	sleep         llm.SleepFunc
}

// PlannerConfig tunes the generation loop. Zero values fall back to
// the defaults (3 attempts, 5s base delay, 120s call timeout, 60s
// quota cooldown).
type PlannerConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	CallTimeout   time.Duration
	QuotaCooldown time.Duration
	Sleep         llm.SleepFunc
}

// NewPlanner creates a Planner backed by the given generation client.
func NewPlanner(client llm.Client, cfg PlannerConfig) *Planner {
	p := &Planner{
		client:        client,
		maxAttempts:   cfg.MaxAttempts,
		baseDelay:     cfg.BaseDelay,
		callTimeout:   cfg.CallTimeout,
		quotaCooldown: cfg.QuotaCooldown,
		sleep:         cfg.Sleep,
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = 3
	}
	if p.baseDelay <= 0 {
		p.baseDelay = 5 * time.Second
	}
	if p.callTimeout <= 0 {
		p.callTimeout = 120 * time.Second
	}
	if p.quotaCooldown <= 0 {
		p.quotaCooldown = 60 * time.Second
	}
	if p.sleep == nil {
		p.sleep = llm.Sleep
	}
	return p
}

// parseError marks an attempt whose response was not valid JSON.
type parseError struct{ err error }

func (e *parseError) Error() string { return fmt.Sprintf("roadmap JSON parse failed: %v", e.err) }
func (e *parseError) Unwrap() error { return e.err }

// incompleteError marks an attempt missing mandatory sections.
type incompleteError struct{ missing []string }

func (e *incompleteError) Error() string {
	return fmt.Sprintf("roadmap missing mandatory fields: %s", strings.Join(e.missing, ", "))
}

// Generate produces a complete, repaired roadmap for a normalized
// career, or a *pipeline.Error describing why generation failed.
func (p *Planner) Generate(ctx context.Context, career, category string) (*Roadmap, error) {
	logging.Planner("Generating roadmap for %q (%s)", career, category)

	var result *Roadmap

	classify := func(err error, attempt int) (time.Duration, bool) {
		var pe *parseError
		if errors.As(err, &pe) {
			return p.baseDelay * time.Duration(attempt), true
		}
		var ie *incompleteError
		if errors.As(err, &ie) {
			return p.baseDelay * time.Duration(attempt+1), true
		}
		switch llm.ClassifyError(err) {
		case llm.FailureTimeout:
			return 0, true
		case llm.FailureQuota:
			return p.quotaCooldown, true
		default:
			// Hard API errors and unexpected failures are terminal.
			return 0, false
		}
	}

	err := llm.Retry(ctx, p.maxAttempts, p.sleep, classify, func(attempt int) error {
		if attempt == 1 {
			logging.Planner("[Attempt %d/%d] Generating roadmap...", attempt, p.maxAttempts)
		} else {
			logging.PlannerWarn("[Attempt %d/%d] Retrying...", attempt, p.maxAttempts)
		}

		// Fixed pacing before every call keeps the free-tier rate
		// limit happy.
		if err := p.sleep(ctx, p.baseDelay); err != nil {
			return err
		}

		prompt := buildRoadmapPrompt(career, category, leniencyForAttempt(attempt))

		callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
		response, err := p.client.Complete(callCtx, prompt)
		cancel()
		if err != nil {
			logging.PlannerWarn("Attempt %d failed (%s): %v", attempt, llm.ClassifyError(err), err)
			return err
		}

		text := llm.StripCodeFences(response)
		var rm Roadmap
		if err := json.Unmarshal([]byte(text), &rm); err != nil {
			logging.PlannerError("JSON parse error on attempt %d: %.100v", attempt, err)
			return &parseError{err: err}
		}

		if complete, missing := Validate(&rm); !complete {
			logging.PlannerWarn("Incomplete roadmap on attempt %d, missing: %v", attempt, missing)
			return &incompleteError{missing: missing}
		}

		RepairOptional(&rm, career)
		result = &rm
		return nil
	})
	if err != nil {
		return nil, p.mapError(err, career)
	}

	logging.Planner("Complete roadmap ready for %q", career)
	return result, nil
}

// mapError converts the final retry error to the caller-facing typed
// failure.
func (p *Planner) mapError(err error, career string) *pipeline.Error {
	var pe *parseError
	if errors.As(err, &pe) {
		logging.PlannerError("Failed to generate valid JSON after %d attempts for %q", p.maxAttempts, career)
		return pipeline.Errorf(pipeline.CodeInvalidJSON, "Could not generate valid roadmap structure")
	}
	var ie *incompleteError
	if errors.As(err, &ie) {
		logging.PlannerError("Incomplete roadmap after %d attempts for %q, missing: %v", p.maxAttempts, career, ie.missing)
		return pipeline.Errorf(pipeline.CodeIncomplete,
			"Could not generate complete roadmap. Missing mandatory: %s", strings.Join(ie.missing, ", "))
	}
	switch llm.ClassifyError(err) {
	case llm.FailureTimeout:
		return pipeline.Errorf(pipeline.CodeTimeout, "Roadmap generation took too long. Please try again.")
	case llm.FailureQuota:
		return pipeline.Errorf(pipeline.CodeQuotaExhausted, "API quota exhausted. Please try again later.")
	case llm.FailureAPI:
		return pipeline.Errorf(pipeline.CodeAPIError, "API error: %v", err)
	default:
		return pipeline.Errorf(pipeline.CodeUnexpected, "Unexpected error: %v", err)
	}
}

func leniencyForAttempt(attempt int) string {
	switch attempt {
	case 1:
		return "STRICT: Only include information you are 100% certain about."
	case 2:
		return "MODERATE: Include reasonable estimates and common career paths."
	default:
		return "RELAXED: Provide best available guidance even if some details are approximate."
	}
}

func buildRoadmapPrompt(career, category, leniency string) string {
	return fmt.Sprintf(`
You are an expert Indian career counselor creating a COMPLETE backward roadmap.

CAREER: %s
CATEGORY: %s

%s

Generate a detailed REVERSE roadmap from this career back to Class 10 level.
Focus on the Indian education system (CBSE/State boards, IITs, NITs, NEET, JEE, etc.)

RETURN STRICT JSON ONLY (no markdown, no comments, no extra text):

{
  "career_name": "%s",
  "career_description": "2-3 sentences describing this career and what professionals do",

  "required_education": {
    "degree_options": ["BTech Computer Science", "BCA", "BSc Computer Science"],
    "minimum_degree": "Bachelor's degree",
    "preferred_degree": "BTech/BE in Computer Science",
    "specialization": "Computer Science/IT/Software Engineering"
  },

  "entrance_exams": [
    {
      "exam_name": "JEE Main",
      "for": "BTech admission in NITs/IIITs/GFTIs",
      "difficulty": "High",
      "when_to_prepare": "Class 11-12"
    }
  ],

  "stream_recommendation": {
    "class_11_12": "Science with PCM (Physics, Chemistry, Mathematics)",
    "reason": "Mathematics and logical thinking are essential for engineering entrance exams",
    "alternatives": ["Science with PCM + Computer Science (optional 5th subject)"]
  },

  "skills_required": [
    {"skill": "Programming", "level": "Expert"},
    {"skill": "Problem Solving", "level": "Expert"}
  ],

  "projects_to_build": [
    "Personal Portfolio Website",
    "Open Source Contributions on GitHub"
  ],

  "internships": [
    {"type": "Software Development Intern", "when": "After Year 2 of degree", "duration": "2-3 months (summer break)"}
  ],

  "certifications": [
    "AWS Certified Developer - Associate"
  ],

  "top_colleges": [
    {"name": "IIT Bombay", "nirf_rank": 3, "type": "Government"}
  ],

  "career_prospects": {
    "average_salary": "6-12 LPA for freshers",
    "experienced_salary": "20-50 LPA with 5+ years experience",
    "growth_rate": "High - Tech industry growing rapidly",
    "job_availability": "Excellent - High demand in IT sector"
  },

  "timeline": {
    "class_10": "Focus on Mathematics and Science.",
    "class_11_12": "Take Science with PCM. Prepare seriously for JEE/CUET.",
    "year_1_2": "Core subjects. Build 2-3 projects.",
    "year_3_4": "Advanced topics. Do 2 internships. Prepare for placements.",
    "total_duration": "4 years Bachelor's degree + continuous learning throughout career"
  }
}

IMPORTANT RULES:
- Be specific and actionable for Indian students
- Include realistic Indian salary ranges (in LPA)
- Mention Indian colleges (IITs, NITs, AIIMS, etc.)
- Mention Indian entrance exams (JEE, NEET, CUET, CAT, etc.)
- Provide year-wise timeline from Class 10 onwards
- All fields must be filled with meaningful data
- Return ONLY valid JSON, no extra text
`, career, category, leniency, career)
}
