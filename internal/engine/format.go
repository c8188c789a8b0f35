package engine

import (
	"regexp"
	"strings"
)

// Format is the engine's best guess at what kind of text a Thought carries.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatTS       Format = "ts"
	FormatJS       Format = "js"
	FormatPy       Format = "py"
	FormatPlain    Format = "plain"
)

var (
	fencePattern       = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\\n?([\\s\\S]*?)```")
	fenceOpenPattern   = regexp.MustCompile("```")
	inlineCodePattern  = regexp.MustCompile("`[^`\\n]+`")
	codeTokenPattern   = regexp.MustCompile(`\b(function|class|import|export|const|let|var|def|return)\b`)
	typeAnnotPattern   = regexp.MustCompile(`:\s*(string|number|boolean|any|void|int|str|float|bool)\b`)
	blockCommentOpen   = "/*"
	lineCommentMarkers = []string{"//", "# "}

	pyLangs = map[string]bool{"py": true, "python": true, "python3": true}
	jsLangs = map[string]bool{"js": true, "javascript": true, "jsx": true}
	tsLangs = map[string]bool{"ts": true, "typescript": true, "tsx": true}
)

// hasCodeLikeContent applies the audit-required heuristic: any fenced
// block, inline backtick span, recognized language token, type annotation,
// or comment marker counts as code-like.
func hasCodeLikeContent(text string) bool {
	if strings.Contains(text, "```") {
		return true
	}
	if inlineCodePattern.MatchString(text) {
		return true
	}
	if codeTokenPattern.MatchString(text) {
		return true
	}
	if typeAnnotPattern.MatchString(text) {
		return true
	}
	if strings.Contains(text, blockCommentOpen) {
		return true
	}
	for _, marker := range lineCommentMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// detectFormat classifies text by its dominant fenced-code language tag,
// falling back to markdown (fenced but untagged) or plain (no fences).
func detectFormat(text string) Format {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		if strings.Contains(text, "```") {
			return FormatMarkdown
		}
		return FormatPlain
	}

	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		switch {
		case tsLangs[lang]:
			return FormatTS
		case jsLangs[lang]:
			return FormatJS
		case pyLangs[lang]:
			return FormatPy
		}
	}
	return FormatMarkdown
}

// formatIssues flags non-fatal submission-format problems: nested fences,
// empty fenced blocks, and language identifiers the engine does not
// recognize. Detection only — the engine proceeds on the original text
// regardless of what this reports (spec.md §4.9 step 2: "format issues
// never abort").
func formatIssues(text string) []string {
	var issues []string

	if count := fenceOpenPattern.FindAllStringIndex(text, -1); len(count)%2 != 0 {
		issues = append(issues, "unbalanced code fence markers")
	}

	// A closing fence has nothing else on its line, so a fence followed by
	// more text opens an inner block inside the current one.
	for _, loc := range fencePattern.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		if strings.TrimSpace(rest) != "" {
			issues = append(issues, "nested code fence")
			break
		}
	}

	matches := fencePattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		body := strings.TrimSpace(m[2])
		if body == "" {
			issues = append(issues, "empty fenced code block")
		}
		if lang != "" && !tsLangs[lang] && !jsLangs[lang] && !pyLangs[lang] && !knownPlainLangs[lang] {
			issues = append(issues, "unsupported language identifier: "+lang)
		}
	}
	return issues
}

var knownPlainLangs = map[string]bool{
	"":         true,
	"text":     true,
	"markdown": true,
	"md":       true,
	"json":     true,
	"yaml":     true,
	"yml":      true,
	"bash":     true,
	"sh":       true,
	"go":       true,
	"java":     true,
	"c":        true,
	"cpp":      true,
	"rust":     true,
	"sql":      true,
	"html":     true,
	"css":      true,
}
