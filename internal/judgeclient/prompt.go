package judgeclient

import (
	"fmt"
	"strconv"
	"strings"
)

// sanitizeText strips C0 control characters other than tab, newline, and
// carriage return, then escapes backticks, dollar signs, and backslashes so
// candidate text cannot break out of the prompt's fenced sections or be
// misread as shell/template interpolation by the judge.
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '`':
			b.WriteString("\\`")
		case '$':
			b.WriteString(`\$`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// buildPrompt renders req into the text the judge binary receives as its
// positional argument. The judge is instructed to emit only a JSON object
// matching the canonical Review shape.
func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("# Audit Task\n\n")
	b.WriteString(sanitizeText(req.Task))
	b.WriteString("\n\n# Candidate\n\n```\n")
	b.WriteString(sanitizeText(req.Candidate))
	b.WriteString("\n```\n")

	if req.ContextPack != "" {
		b.WriteString("\n# Context\n\n")
		b.WriteString(sanitizeText(req.ContextPack))
		b.WriteString("\n")
	}

	b.WriteString("\n# Rubric\n\n")
	for _, item := range req.Rubric {
		fmt.Fprintf(&b, "- %s (weight %s): %s\n",
			sanitizeText(item.Name), strconv.FormatFloat(item.Weight, 'g', -1, 64), sanitizeText(item.Description))
	}

	fmt.Fprintf(&b, "\n# Budget\n\nmaxCycles=%d candidates=%d passThreshold=%d\n",
		req.Budget.MaxCycles, req.Budget.Candidates, req.Budget.Threshold)

	b.WriteString("\n# Verdict Thresholds\n\n")
	fmt.Fprintf(&b, "pass: overall >= %d\nrevise: overall in [%d,%d)\nreject: overall < %d\n",
		req.Budget.Threshold, req.Budget.Threshold/2, req.Budget.Threshold, req.Budget.Threshold/2)

	b.WriteString("\n# Required Output\n\n")
	b.WriteString("Respond with exactly one JSON object and nothing else: no prose, no markdown fences. Shape:\n\n")
	b.WriteString("```json\n")
	b.WriteString(`{"overall": number 0-100, "dimensions": [{"name": string, "score": number 0-100}, ...], ` +
		`"verdict": "pass"|"revise"|"reject", "summary": string, "inline": [{"path": string, "line": integer >=1, "comment": string}, ...], ` +
		`"citations": [string, ...], "proposed_diff": string|null, "iterations": integer >=1, ` +
		`"judge_cards": [{"model": string, "score": number 0-100, "notes": string?}, ...]}`)
	b.WriteString("\n```\n")

	return b.String()
}

// commandArgs returns the judge binary's invocation arguments for one
// review prompt, per spec.md §4.5's fixed command form.
func commandArgs(prompt string) []string {
	return []string{"exec", "--sandbox", "read-only", "--json", "--skip-git-repo-check", prompt}
}
