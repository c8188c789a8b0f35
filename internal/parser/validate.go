package parser

import (
	"fmt"
	"math"

	"github.com/codeauditor/codeauditor/internal/review"
)

// validateAndNormalize applies spec.md §4.4's field-by-field rules to c,
// accumulating every error found rather than stopping at the first. It
// returns a fully-normalized Review only when errs is empty; callers must
// not use the returned Review otherwise.
func validateAndNormalize(c candidate) (review.Review, []string) {
	var errs []string
	r := review.Review{}

	overall, ok := asFiniteNumber(c.Overall)
	if !ok {
		errs = append(errs, "overall must be a finite number")
	} else {
		r.Overall = clampRound(overall)
	}

	verdictStr, ok := c.Verdict.(string)
	if !ok || !review.Verdict(verdictStr).IsValid() {
		errs = append(errs, fmt.Sprintf("verdict %v is not one of pass, revise, reject", c.Verdict))
	} else {
		r.Verdict = review.Verdict(verdictStr)
	}

	r.Dimensions, errs = validateDimensions(c.Dimensions, errs)
	r.Summary, errs = validateSummary(c.Summary, errs)
	r.Inline = validateInline(c.Inline)
	r.Citations = validateCitations(c.Citations)

	r.Iterations, errs = validateIterations(c.Iterations, errs)
	r.JudgeCards, errs = validateJudgeCards(c.JudgeCards, errs)
	r.ProposedDiff, errs = validateProposedDiff(c.ProposedDiff, errs)

	return r, errs
}

func clampRound(n float64) int {
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return int(math.Round(n))
}

func validateDimensions(raw []map[string]any, errs []string) ([]review.Dimension, []string) {
	if len(raw) == 0 {
		return nil, append(errs, "dimensions must be a non-empty list")
	}

	dims := make([]review.Dimension, 0, len(raw))
	for i, d := range raw {
		name, ok := d["name"].(string)
		if !ok || name == "" {
			errs = append(errs, fmt.Sprintf("dimensions[%d]: name must be a non-empty string", i))
			continue
		}
		score, ok := asFiniteNumber(d["score"])
		if !ok {
			errs = append(errs, fmt.Sprintf("dimensions[%d] (%s): score must be a finite number", i, name))
			continue
		}
		dims = append(dims, review.Dimension{Name: name, Score: clampRound(score)})
	}
	if len(dims) == 0 {
		errs = append(errs, "no valid dimensions remained after validation")
	}
	return dims, errs
}

func validateSummary(raw any, errs []string) (string, []string) {
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", append(errs, "review.summary is required and must be a non-empty string")
	}
	return s, errs
}

// validateInline drops malformed entries silently from the returned slice;
// nothing is recorded for a dropped entry, and it is not a hard failure —
// a thought can still pass with zero usable inline comments.
func validateInline(raw []map[string]any) []review.InlineComment {
	out := make([]review.InlineComment, 0, len(raw))
	for _, entry := range raw {
		path, ok := entry["path"].(string)
		if !ok || path == "" {
			continue
		}
		comment, ok := entry["comment"].(string)
		if !ok {
			continue
		}
		line, ok := asFiniteNumber(entry["line"])
		if !ok || line < 1 {
			continue
		}
		out = append(out, review.InlineComment{Path: path, Line: int(line), Comment: comment})
	}
	return out
}

func validateCitations(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if s, ok := c.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func validateIterations(raw any, errs []string) (int, []string) {
	if raw == nil {
		return 1, errs
	}
	n, ok := asFiniteNumber(raw)
	if !ok || n < 1 || n != math.Trunc(n) {
		return 0, append(errs, "iterations must be a positive integer")
	}
	return int(n), errs
}

func validateJudgeCards(raw []map[string]any, errs []string) ([]review.JudgeCard, []string) {
	if len(raw) == 0 {
		return nil, append(errs, "judge_cards must be a non-empty list")
	}

	cards := make([]review.JudgeCard, 0, len(raw))
	for i, jc := range raw {
		model, ok := jc["model"].(string)
		if !ok || model == "" {
			errs = append(errs, fmt.Sprintf("judge_cards[%d]: model must be a non-empty string", i))
			continue
		}
		score, ok := asFiniteNumber(jc["score"])
		if !ok {
			errs = append(errs, fmt.Sprintf("judge_cards[%d] (%s): score must be a finite number", i, model))
			continue
		}
		card := review.JudgeCard{Model: model, Score: clampRound(score)}
		if notes, ok := jc["notes"].(string); ok {
			card.Notes = &notes
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		errs = append(errs, "no valid judge_cards remained after validation")
	}
	return cards, errs
}

func validateProposedDiff(raw any, errs []string) (*string, []string) {
	if raw == nil {
		return nil, errs
	}
	s, ok := raw.(string)
	if !ok {
		return nil, append(errs, "proposed_diff must be a string or null")
	}
	return &s, errs
}
