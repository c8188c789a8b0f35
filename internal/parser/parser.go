// Package parser converts raw judge output into a validated
// github.com/codeauditor/codeauditor/internal/review.Review, or rejects it
// with a typed error carrying the raw response for diagnostics. It performs
// no repair beyond rounding overall (an overall outside [0,100] fails the
// shape check), clamping dimension and judge-card scores into [0,100], and
// dropping malformed inline and citation entries, which are not recorded
// anywhere; anything left unresolved after that fails the parse.
package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/logging"
	"github.com/codeauditor/codeauditor/internal/review"
)

// candidate is the loosely-typed shape accepted from judge output before
// validation and normalization produce a review.Review. Fields use
// json.Number/any so out-of-range or wrong-typed values can be diagnosed
// precisely rather than silently zeroed by a strict unmarshal.
type candidate struct {
	Overall      any              `json:"overall"`
	Dimensions   []map[string]any `json:"dimensions"`
	Verdict      any              `json:"verdict"`
	Summary      any              `json:"summary"`
	Inline       []map[string]any `json:"inline"`
	Citations    []any            `json:"citations"`
	ProposedDiff any              `json:"proposed_diff"`
	Iterations   any              `json:"iterations"`
	JudgeCards   []map[string]any `json:"judge_cards"`
}

// agentMessageLine is the subset of a JSON-lines entry the parser needs to
// recognize a judge agent-message event.
type agentMessageLine struct {
	Msg struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"msg"`
}

// Parser extracts and validates a Review from judge output.
type Parser struct {
	logger *logging.Logger
}

// New creates a Parser. logger may be nil, in which case skipped-line
// diagnostics are simply discarded.
func New(logger *logging.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse converts raw into a validated review.Review, or returns a
// *apperrors.ResponseError carrying raw for diagnostics.
func (p *Parser) Parse(raw string) (review.Review, error) {
	cand, ok := p.extractCandidate(raw)
	if !ok {
		return review.Review{}, apperrors.NewResponseError("no candidate JSON object found in judge output", raw)
	}

	if !shapeOK(cand) {
		return review.Review{}, apperrors.NewResponseError("candidate response failed shape check: overall/verdict missing or invalid", raw)
	}

	r, errs := validateAndNormalize(cand)
	if len(errs) > 0 {
		return review.Review{}, apperrors.NewResponseError(
			fmt.Sprintf("Response validation failed: %s", strings.Join(errs, "; ")), raw,
		)
	}
	return r, nil
}

// extractCandidate runs the two-stage parse: JSON-lines mode first
// (splitting on newlines, looking for an agent_message line), falling back
// to treating the entire raw response as one JSON document.
func (p *Parser) extractCandidate(raw string) (candidate, bool) {
	if cand, ok := p.extractFromLines(raw); ok {
		return cand, true
	}

	var cand candidate
	if err := json.Unmarshal([]byte(raw), &cand); err == nil {
		return cand, true
	}
	return candidate{}, false
}

func (p *Parser) extractFromLines(raw string) (candidate, bool) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry agentMessageLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			p.debugf("skipping unparsable JSON-lines entry: %v", err)
			continue
		}
		if entry.Msg.Type != "agent_message" || entry.Msg.Message == "" {
			continue
		}

		var cand candidate
		if err := json.Unmarshal([]byte(entry.Msg.Message), &cand); err == nil {
			return cand, true
		}

		if obj, ok := extractBalancedObject(entry.Msg.Message); ok {
			if err := json.Unmarshal([]byte(obj), &cand); err == nil {
				return cand, true
			}
		}
	}
	return candidate{}, false
}

// extractBalancedObject returns the first top-level {...} substring of s, or
// false if s contains no balanced brace pair.
func extractBalancedObject(s string) (string, bool) {
	depth := 0
	start := -1
	for i, ch := range s {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// shapeOK is the cheap pre-acceptance check: overall must be a finite number
// in [0,100] and verdict one of the three literals. It runs before the full
// field-by-field validation so a candidate that merely resembles a review
// shape (e.g. an unrelated JSON object) is not mistaken for one.
func shapeOK(c candidate) bool {
	n, ok := asFiniteNumber(c.Overall)
	if !ok || n < 0 || n > 100 {
		return false
	}
	v, ok := c.Verdict.(string)
	if !ok {
		return false
	}
	return review.Verdict(v).IsValid()
}

func (p *Parser) debugf(format string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(fmt.Sprintf(format, args...))
}

func asFiniteNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
