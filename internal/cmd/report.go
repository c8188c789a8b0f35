package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/codeauditor/codeauditor/internal/review"
)

var badgeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var passBadge = badgeStyle.Background(lipgloss.Color("34")).Foreground(lipgloss.Color("0"))
var reviseBadge = badgeStyle.Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0"))
var rejectBadge = badgeStyle.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("15"))

var headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
var dimNameStyle = lipgloss.NewStyle().Width(20)
var summaryStyle = lipgloss.NewStyle().Italic(true).MarginTop(1)
var boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

func verdictBadge(v review.Verdict) string {
	switch v {
	case review.VerdictPass:
		return passBadge.Render("PASS")
	case review.VerdictReject:
		return rejectBadge.Render("REJECT")
	default:
		return reviseBadge.Render("REVISE")
	}
}

// renderReview formats a Review as a human-readable report: a verdict
// badge and overall score, a dimension table, the summary, and inline
// comments/citations when present.
func renderReview(r review.Review) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n\n", verdictBadge(r.Verdict), headingStyle.Render(fmt.Sprintf("Overall: %d/100", r.Overall)))

	fmt.Fprintln(&b, headingStyle.Render("Dimensions"))
	for _, d := range r.Dimensions {
		fmt.Fprintf(&b, "  %s %d/100\n", dimNameStyle.Render(d.Name), d.Score)
	}

	fmt.Fprintln(&b, summaryStyle.Render(r.Summary))

	if len(r.Inline) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, headingStyle.Render("Inline comments"))
		for _, c := range r.Inline {
			fmt.Fprintf(&b, "  %s:%d  %s\n", c.Path, c.Line, c.Comment)
		}
	}

	if len(r.Citations) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, headingStyle.Render("Citations"))
		for _, c := range r.Citations {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}

	if r.ProposedDiff != nil && *r.ProposedDiff != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, headingStyle.Render("Proposed diff"))
		fmt.Fprintln(&b, *r.ProposedDiff)
	}

	fmt.Fprintln(&b)
	var cards []string
	for _, jc := range r.JudgeCards {
		cards = append(cards, fmt.Sprintf("%s=%d", jc.Model, jc.Score))
	}
	fmt.Fprintf(&b, "iterations=%d judge_cards=[%s]\n", r.Iterations, strings.Join(cards, ", "))

	return boxStyle.Render(b.String())
}
