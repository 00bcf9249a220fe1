package college

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
	"careerpilot/internal/pipeline"
)

const extractorSystemPrompt = "You are a precise data extraction assistant. Return ONLY valid JSON."

// Extractor pulls program details from the search-grounded provider.
// Like the planner it retries with escalating leniency; unlike the
// planner an incomplete final record is still returned, with the
// missing critical fields recorded on it.
type Extractor struct {
	client        llm.Client
	maxAttempts   int
	baseDelay     time.Duration
	callTimeout   time.Duration
	quotaCooldown time.Duration
	sleep         llm.SleepFunc
}

// ExtractorConfig tunes the extraction loop. Zero values fall back to
// 3 attempts, 5s base delay, 60s call timeout and 60s quota cooldown.
type ExtractorConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	CallTimeout   time.Duration
	QuotaCooldown time.Duration
	Sleep         llm.SleepFunc
}

// NewExtractor creates an Extractor backed by the given search client.
func NewExtractor(client llm.Client, cfg ExtractorConfig) *Extractor {
	e := &Extractor{
		client:        client,
		maxAttempts:   cfg.MaxAttempts,
		baseDelay:     cfg.BaseDelay,
		callTimeout:   cfg.CallTimeout,
		quotaCooldown: cfg.QuotaCooldown,
		sleep:         cfg.Sleep,
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = 3
	}
	if e.baseDelay <= 0 {
		e.baseDelay = 5 * time.Second
	}
	if e.callTimeout <= 0 {
		e.callTimeout = 60 * time.Second
	}
	if e.quotaCooldown <= 0 {
		e.quotaCooldown = 60 * time.Second
	}
	if e.sleep == nil {
		e.sleep = llm.Sleep
	}
	return e
}

type extractParseError struct{ err error }

func (e *extractParseError) Error() string { return fmt.Sprintf("details JSON parse failed: %v", e.err) }
func (e *extractParseError) Unwrap() error { return e.err }

type extractIncompleteError struct {
	details *Details
	missing []string
}

func (e *extractIncompleteError) Error() string {
	return fmt.Sprintf("details missing critical fields: %v", e.missing)
}

// Extract fetches details for one program. Returns a *pipeline.Error
// when no parseable record could be produced at all.
func (e *Extractor) Extract(ctx context.Context, collegeName, degree, branch string) (*Details, error) {
	logging.Extractor("Extracting details for %s (%s %s)", collegeName, degree, branch)

	var result *Details

	classify := func(err error, attempt int) (time.Duration, bool) {
		var pe *extractParseError
		if errors.As(err, &pe) {
			return e.baseDelay * time.Duration(attempt), true
		}
		var ie *extractIncompleteError
		if errors.As(err, &ie) {
			return e.baseDelay * time.Duration(attempt+1), true
		}
		switch llm.ClassifyError(err) {
		case llm.FailureTimeout:
			return 0, true
		case llm.FailureQuota:
			return e.quotaCooldown, true
		default:
			return 0, false
		}
	}

	err := llm.Retry(ctx, e.maxAttempts, e.sleep, classify, func(attempt int) error {
		if attempt > 1 {
			logging.ExtractorWarn("[Attempt %d/%d] Retrying extraction for %s", attempt, e.maxAttempts, collegeName)
		}

		prompt := buildExtractPrompt(collegeName, degree, branch, attempt)

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		response, err := e.client.CompleteWithSystem(callCtx, extractorSystemPrompt, prompt)
		cancel()
		if err != nil {
			logging.ExtractorWarn("Attempt %d failed (%s): %v", attempt, llm.ClassifyError(err), err)
			return err
		}

		text := llm.StripCodeFences(response)
		var d Details
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			// Search responses sometimes surround the JSON with prose.
			if extracted := llm.ExtractLastJSON(response); extracted != "" {
				err = json.Unmarshal([]byte(extracted), &d)
			}
			if err != nil {
				logging.ExtractorError("JSON parse failed for %s on attempt %d", collegeName, attempt)
				return &extractParseError{err: err}
			}
		}

		if complete, missing := CheckComplete(&d); !complete {
			logging.ExtractorWarn("Missing critical fields for %s: %v", collegeName, missing)
			return &extractIncompleteError{details: &d, missing: missing}
		}

		result = &d
		return nil
	})
	if err != nil {
		// A parseable but incomplete record still gets returned with
		// its gaps marked; everything else maps to a typed failure.
		var ie *extractIncompleteError
		if errors.As(err, &ie) {
			ie.details.MissingFields = ie.missing
			logging.ExtractorWarn("Returning incomplete details for %s, missing: %v", collegeName, ie.missing)
			return ie.details, nil
		}
		return nil, e.mapError(err, collegeName)
	}

	logging.Extractor("Extracted all details for %s", collegeName)
	return result, nil
}

func (e *Extractor) mapError(err error, collegeName string) *pipeline.Error {
	var pe *extractParseError
	if errors.As(err, &pe) {
		logging.ExtractorError("Failed to extract valid JSON after %d attempts for %s", e.maxAttempts, collegeName)
		return pipeline.Errorf(pipeline.CodeInvalidJSON, "Could not extract valid details for %s", collegeName)
	}
	switch llm.ClassifyError(err) {
	case llm.FailureTimeout:
		return pipeline.Errorf(pipeline.CodeTimeout, "Detail extraction took too long for %s", collegeName)
	case llm.FailureQuota:
		return pipeline.Errorf(pipeline.CodeQuotaExhausted, "API quota exhausted. Please try again later.")
	case llm.FailureAPI:
		return pipeline.Errorf(pipeline.CodeAPIError, "API error: %v", err)
	default:
		return pipeline.Errorf(pipeline.CodeUnexpected, "Unexpected error: %v", err)
	}
}

func extractLeniency(attempt int) string {
	switch attempt {
	case 1:
		return "STRICT: Only report figures you found in a cited source."
	case 2:
		return "MODERATE: Report the best figure per field; mark uncertain ones in the note."
	default:
		return `RELAXED: Fill every field with the best available figure, or the literal "Not available" after a thorough search.`
	}
}

func buildExtractPrompt(collegeName, degree, branch string, attempt int) string {
	return fmt.Sprintf(`You are a precise college data extraction assistant with web search access.

TARGET PROGRAM:
College: %s
Degree: %s
Branch: %s

%s

DATA REQUIRED (for %s in %s ONLY):
1. Official college website URL
2. Annual tuition fees (academic year, NOT hostel/mess)
3. Average placement package
4. Highest placement package
5. Entrance exam name
6. Cutoff (rank/percentile/score)

SEARCH STRATEGY:
Priority 1: Official %s website (look for: admissions page, fee structure PDFs, placement reports)
Priority 2: AICTE/NIRF official data
Priority 3: Verified portals (Shiksha.com, Careers360.com, CollegeDunia.com)

STRICT RULES:
- ONLY extract data for %s in %s - ignore other branches/degrees
- Prefer current academic year data, accept previous year if unavailable
- Include data source URL for each field
- If data not found after thorough search, mark "Not available"
- For cutoffs: specify year, category (General/OBC/SC/ST), and exam type
- For fees: annual tuition only (exclude hostel/other charges)
- For college website: provide official .edu.in or .ac.in domain (NOT third-party portals)

OUTPUT FORMAT (valid JSON only):
{
  "college_name": "%s",
  "degree": "%s",
  "branch": "%s",
  "data_year": "year found",

  "college_website": {
    "value": "https://official-college-website.ac.in",
    "note": "Official college domain"
  },

  "fees": {
    "value": "X per year",
    "source_url": "URL",
    "note": "any clarification if needed"
  },

  "avg_package": {
    "value": "X LPA",
    "source_url": "URL",
    "note": "clarification"
  },

  "highest_package": {
    "value": "X LPA",
    "source_url": "URL",
    "note": "clarification"
  },

  "entrance_exam": {
    "value": "Exam name",
    "source_url": "URL",
    "note": "clarification"
  },

  "cutoff": {
    "value": "Rank/Percentile (year, category)",
    "source_url": "URL",
    "note": "clarification"
  }
}

IMPORTANT: Return ONLY the JSON object, no additional text.
`, collegeName, degree, branch, extractLeniency(attempt),
		degree, branch, collegeName, degree, branch,
		collegeName, degree, branch)
}
