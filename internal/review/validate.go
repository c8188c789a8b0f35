package review

import "fmt"

// Validate reports the first structural problem with r, or nil if r
// satisfies the canonical Review invariant. internal/parser performs the
// authoritative, error-accumulating validation of judge output; this method
// is a cheaper sanity check used by the engine's fallback-synthesis path and
// by tests to guard against constructing a malformed Review directly.
func (r Review) Validate() error {
	if r.Overall < 0 || r.Overall > 100 {
		return fmt.Errorf("review: overall %d out of range [0,100]", r.Overall)
	}
	if !r.Verdict.IsValid() {
		return fmt.Errorf("review: invalid verdict %q", r.Verdict)
	}
	if len(r.Dimensions) == 0 {
		return fmt.Errorf("review: dimensions must be non-empty")
	}
	for _, d := range r.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("review: dimension with empty name")
		}
		if d.Score < 0 || d.Score > 100 {
			return fmt.Errorf("review: dimension %q score %d out of range [0,100]", d.Name, d.Score)
		}
	}
	if r.Summary == "" {
		return fmt.Errorf("review: summary is required")
	}
	for _, ic := range r.Inline {
		if ic.Path == "" {
			return fmt.Errorf("review: inline comment with empty path")
		}
		if ic.Line < 1 {
			return fmt.Errorf("review: inline comment %q line %d must be positive", ic.Path, ic.Line)
		}
	}
	if r.Iterations < 1 {
		return fmt.Errorf("review: iterations must be >= 1")
	}
	if len(r.JudgeCards) == 0 {
		return fmt.Errorf("review: judge_cards must be non-empty")
	}
	for _, jc := range r.JudgeCards {
		if jc.Model == "" {
			return fmt.Errorf("review: judge card with empty model")
		}
		if jc.Score < 0 || jc.Score > 100 {
			return fmt.Errorf("review: judge card %q score %d out of range [0,100]", jc.Model, jc.Score)
		}
	}
	return nil
}
