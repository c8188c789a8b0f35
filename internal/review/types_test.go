package review

import "testing"

func TestVerdictIsValid(t *testing.T) {
	tests := []struct {
		v    Verdict
		want bool
	}{
		{VerdictPass, true},
		{VerdictRevise, true},
		{VerdictReject, true},
		{Verdict("unsure"), false},
		{Verdict(""), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsValid(); got != tt.want {
			t.Errorf("Verdict(%q).IsValid() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestSeverityWeight(t *testing.T) {
	if SeverityCritical.Weight() <= SeverityMajor.Weight() {
		t.Error("Critical should outweigh Major")
	}
	if SeverityMajor.Weight() <= SeverityMinor.Weight() {
		t.Error("Major should outweigh Minor")
	}
	if Severity("bogus").Weight() != 0 {
		t.Error("unrecognized severity should weight 0")
	}
}

func TestSortEvidenceBySeverity(t *testing.T) {
	items := []EvidenceItem{
		{Type: "a", Severity: SeverityMinor, Location: "x", Description: "d", Proof: "p"},
		{Type: "b", Severity: SeverityCritical, Location: "x", Description: "d", Proof: "p"},
		{Type: "c", Severity: SeverityMajor, Location: "x", Description: "d", Proof: "p"},
	}
	sorted := SortEvidenceBySeverity(items)
	if sorted[0].Type != "b" || sorted[1].Type != "c" || sorted[2].Type != "a" {
		t.Errorf("SortEvidenceBySeverity() order = %v, want critical,major,minor", sorted)
	}
	if items[0].Type != "a" {
		t.Error("SortEvidenceBySeverity() should not mutate its input")
	}
}

func TestEvidenceItemValidate(t *testing.T) {
	valid := EvidenceItem{Severity: SeverityMajor, Location: "main.go:10", Description: "leak", Proof: "trace"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	tests := []EvidenceItem{
		{Severity: "unknown", Location: "x", Description: "d", Proof: "p"},
		{Severity: SeverityMinor, Location: "", Description: "d", Proof: "p"},
		{Severity: SeverityMinor, Location: "x", Description: "", Proof: "p"},
		{Severity: SeverityMinor, Location: "x", Description: "d", Proof: ""},
	}
	for _, tt := range tests {
		if err := tt.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want an error", tt)
		}
	}
}

func validReview() Review {
	notes := "looks fine"
	diff := "--- a\n+++ b\n"
	return Review{
		Overall:      85,
		Dimensions:   []Dimension{{Name: "correctness", Score: 90}},
		Verdict:      VerdictPass,
		Summary:      "solid submission",
		Inline:       []InlineComment{{Path: "main.go", Line: 10, Comment: "nice"}},
		Citations:    []string{"PEP8"},
		ProposedDiff: &diff,
		Iterations:   1,
		JudgeCards:   []JudgeCard{{Model: "judge-1", Score: 85, Notes: &notes}},
	}
}

func TestReviewValidate_Valid(t *testing.T) {
	if err := validReview().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestReviewValidate_Invalid(t *testing.T) {
	tests := map[string]func(*Review){
		"overall out of range": func(r *Review) { r.Overall = 150 },
		"bad verdict":          func(r *Review) { r.Verdict = "maybe" },
		"no dimensions":        func(r *Review) { r.Dimensions = nil },
		"dimension score bad":  func(r *Review) { r.Dimensions[0].Score = -1 },
		"empty summary":        func(r *Review) { r.Summary = "" },
		"inline bad line":      func(r *Review) { r.Inline[0].Line = 0 },
		"iterations zero":      func(r *Review) { r.Iterations = 0 },
		"no judge cards":       func(r *Review) { r.JudgeCards = nil },
	}
	for name, mutate := range tests {
		r := validReview()
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want an error", name)
		}
	}
}

func TestReviewIsPassing(t *testing.T) {
	r := validReview()
	if !r.IsPassing() {
		t.Error("IsPassing() should be true for pass verdict")
	}
	r.Verdict = VerdictRevise
	if r.IsPassing() {
		t.Error("IsPassing() should be false for revise verdict")
	}
}

func TestReviewDimensionScore(t *testing.T) {
	r := validReview()
	score, ok := r.DimensionScore("correctness")
	if !ok || score != 90 {
		t.Errorf("DimensionScore(correctness) = (%d, %v), want (90, true)", score, ok)
	}
	if _, ok := r.DimensionScore("missing"); ok {
		t.Error("DimensionScore(missing) should report not found")
	}
}
