// Package review defines the canonical Review data model returned by the
// audit engine, and the EvidenceItem type used to populate session workflow
// history. Every other domain package (parser, engine, cache, session)
// shares these types rather than defining its own.
package review

import "fmt"

// Verdict is the judge's overall disposition toward a candidate.
type Verdict string

const (
	VerdictPass   Verdict = "pass"
	VerdictRevise Verdict = "revise"
	VerdictReject Verdict = "reject"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// IsValid reports whether v is one of the three recognized verdict literals.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictPass, VerdictRevise, VerdictReject:
		return true
	}
	return false
}

// Severity classifies an EvidenceItem's urgency.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether s is one of the three recognized severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Weight returns a descending numeric priority for sorting EvidenceItems,
// critical first.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// Dimension is a single rubric axis and the score the judge assigned it.
type Dimension struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// InlineComment anchors a review remark to a specific file and line.
type InlineComment struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Comment string `json:"comment"`
}

// JudgeCard records which judge model produced a score, and any notes.
type JudgeCard struct {
	Model string  `json:"model"`
	Score int     `json:"score"`
	Notes *string `json:"notes,omitempty"`
}

// Review is the engine's only success shape: every field is required and
// in-range by the time a Review is constructed. internal/parser is
// responsible for enforcing that invariant on judge output; the engine's
// fallback-synthesis path is the only other place permitted to construct one
// directly.
type Review struct {
	Overall      int             `json:"overall"`
	Dimensions   []Dimension     `json:"dimensions"`
	Verdict      Verdict         `json:"verdict"`
	Summary      string          `json:"summary"`
	Inline       []InlineComment `json:"inline"`
	Citations    []string        `json:"citations"`
	ProposedDiff *string         `json:"proposed_diff"`
	Iterations   int             `json:"iterations"`
	JudgeCards   []JudgeCard     `json:"judge_cards"`
}

// IsPassing reports whether the verdict is pass.
func (r Review) IsPassing() bool {
	return r.Verdict == VerdictPass
}

// DimensionScore returns the score for the named dimension and whether it
// was found.
func (r Review) DimensionScore(name string) (int, bool) {
	for _, d := range r.Dimensions {
		if d.Name == name {
			return d.Score, true
		}
	}
	return 0, false
}

// EvidenceItem documents a single concrete finding surfaced while working a
// thought. It populates session workflow history (internal/session) and is
// never part of a canonical Review.
type EvidenceItem struct {
	Type              string   `json:"type"`
	Severity          Severity `json:"severity"`
	Location          string   `json:"location"`
	Description       string   `json:"description"`
	Proof             string   `json:"proof"`
	SuggestedFix      *string  `json:"suggestedFix,omitempty"`
	ReproductionSteps []string `json:"reproductionSteps,omitempty"`
}

// Validate reports the first structural problem with e, or nil if e is
// well-formed.
func (e EvidenceItem) Validate() error {
	if !e.Severity.IsValid() {
		return fmt.Errorf("evidence item: invalid severity %q", e.Severity)
	}
	if e.Location == "" {
		return fmt.Errorf("evidence item: location is required")
	}
	if e.Description == "" {
		return fmt.Errorf("evidence item: description is required")
	}
	if e.Proof == "" {
		return fmt.Errorf("evidence item: proof is required")
	}
	return nil
}

// SortEvidenceBySeverity returns items ordered critical-first, preserving
// relative order within a severity (stable).
func SortEvidenceBySeverity(items []EvidenceItem) []EvidenceItem {
	sorted := make([]EvidenceItem, len(items))
	copy(sorted, items)
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && sorted[j-1].Severity.Weight() < sorted[j].Severity.Weight() {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
			j--
		}
	}
	return sorted
}
