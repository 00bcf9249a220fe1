package roadmap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
)

// NormalizeResult is the outcome of career goal normalization. Invalid
// never carries an error: every failure class degrades to Valid=false
// with a reason the caller can show to the student.
type NormalizeResult struct {
	Valid      bool    `json:"is_valid"`
	Career     string  `json:"normalized_career"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const normalizeTimeout = 30 * time.Second

// Normalizer converts free-text career goals into canonical career
// names with a single generation call. No retries; a fresh request is
// the retry.
type Normalizer struct {
	client llm.Client
}

// NewNormalizer creates a Normalizer backed by the given client.
func NewNormalizer(client llm.Client) *Normalizer {
	return &Normalizer{client: client}
}

// Normalize validates and canonicalizes raw career input.
func (n *Normalizer) Normalize(ctx context.Context, rawInput string) *NormalizeResult {
	logging.Normalizer("Normalizing career input: %q", rawInput)

	// Inputs shorter than 3 runes are rejected before any external
	// call is made.
	if len([]rune(strings.TrimSpace(rawInput))) < 3 {
		logging.NormalizerWarn("Input too short: %q", rawInput)
		return &NormalizeResult{
			Reason: "Career goal is too short. Please provide a specific career name.",
		}
	}

	prompt := buildNormalizePrompt(rawInput)

	callCtx, cancel := context.WithTimeout(ctx, normalizeTimeout)
	defer cancel()

	response, err := n.client.Complete(callCtx, prompt)
	if err != nil {
		return n.failureResult(rawInput, err)
	}

	text := llm.StripCodeFences(response)
	var result NormalizeResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logging.NormalizerError("JSON parse error for %q: %v (raw: %.200s)", rawInput, err, text)
		return &NormalizeResult{Reason: "Error processing request. Please try again."}
	}

	if result.Valid {
		logging.Normalizer("Normalized %q -> %q (%s)", rawInput, result.Career, result.Category)
	} else {
		logging.NormalizerWarn("Invalid career goal %q: %s", rawInput, result.Reason)
	}
	return &result
}

func (n *Normalizer) failureResult(rawInput string, err error) *NormalizeResult {
	switch llm.ClassifyError(err) {
	case llm.FailureTimeout:
		logging.NormalizerError("Timeout normalizing %q", rawInput)
		return &NormalizeResult{Reason: "Request timeout. Please try again."}
	case llm.FailureQuota, llm.FailureAPI:
		logging.NormalizerError("API error normalizing %q: %v", rawInput, err)
		return &NormalizeResult{Reason: "Service temporarily unavailable. Please try again."}
	default:
		logging.NormalizerError("Unexpected error normalizing %q: %v", rawInput, err)
		return &NormalizeResult{Reason: "Unexpected error. Please try again."}
	}
}

func buildNormalizePrompt(userInput string) string {
	return fmt.Sprintf(`
You are a career normalization and validation engine for an Indian career counseling platform.

USER INPUT: %q

TASK:
1. Determine if this is a VALID, SPECIFIC career goal
2. Convert to a standard career name (Indian context)
3. Categorize the career
4. Provide confidence score

VALID careers: Any recognized profession in India
Examples: Software Engineer, Doctor, CA, IAS Officer, Teacher, Graphic Designer, etc.

INVALID inputs:
- Vague goals: "earn money", "be successful", "be happy"
- Incomplete: "xyz", "abc", random text
- Questions: "what should I do?"

RETURN ONLY VALID JSON (no markdown, no explanation):

{
  "is_valid": true or false,
  "normalized_career": "Standard Career Name" or null,
  "category": "Technology/Healthcare/Government/Business/Engineering/Arts/Education/Legal/etc" or null,
  "confidence": 0.0-1.0,
  "reason": "Brief explanation if invalid, otherwise null"
}

EXAMPLES:

Input: "software developer"
Output: {"is_valid": true, "normalized_career": "Software Engineer", "category": "Technology", "confidence": 0.95, "reason": null}

Input: "doctor"
Output: {"is_valid": true, "normalized_career": "Medical Doctor", "category": "Healthcare", "confidence": 1.0, "reason": null}

Input: "CA"
Output: {"is_valid": true, "normalized_career": "Chartered Accountant", "category": "Business", "confidence": 0.9, "reason": null}

Input: "IAS"
Output: {"is_valid": true, "normalized_career": "IAS Officer", "category": "Government", "confidence": 0.95, "reason": null}

Input: "i want to code"
Output: {"is_valid": false, "normalized_career": null, "category": null, "confidence": 0.0, "reason": "Not a specific career. Did you mean Software Engineer or Web Developer?"}

Input: "earn lots of money"
Output: {"is_valid": false, "normalized_career": null, "category": null, "confidence": 0.0, "reason": "Not a career goal. Please specify a profession (e.g., Doctor, Engineer, Lawyer)."}

Input: "xyz"
Output: {"is_valid": false, "normalized_career": null, "category": null, "confidence": 0.0, "reason": "Unrecognized input. Please provide a valid career name."}

NOW PROCESS: %q
`, userInput, userInput)
}
