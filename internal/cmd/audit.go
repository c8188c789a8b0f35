package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codeauditor/codeauditor/internal/engine"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/codeauditor/codeauditor/internal/session"
	"github.com/spf13/cobra"
)

var auditSessionID string
var auditTask string
var auditThreshold int
var auditMaxCycles int
var auditCandidates int
var auditJSON bool
var auditThoughtNum int

var auditCmd = &cobra.Command{
	Use:   "audit [file]",
	Short: "Audit a candidate submission and print the resulting review",
	Long: `Reads candidate text from a file argument (or stdin if omitted), submits it
to the audit engine as one thought, and prints the canonical review once the
judge resolves it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditSessionID, "session", "", "session id to append this audit to (generated if empty)")
	auditCmd.Flags().StringVar(&auditTask, "task", "Review the submitted code for correctness and quality.", "task description given to the judge")
	auditCmd.Flags().IntVar(&auditThreshold, "threshold", 80, "passing score threshold")
	auditCmd.Flags().IntVar(&auditMaxCycles, "max-cycles", 3, "maximum improvement cycles budgeted")
	auditCmd.Flags().IntVar(&auditCandidates, "candidates", 1, "candidate count budgeted")
	auditCmd.Flags().IntVar(&auditThoughtNum, "thought-number", 1, "monotonic thought number within the session")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print the review as JSON instead of a formatted report")
}

func runAudit(cmd *cobra.Command, args []string) error {
	var text []byte
	var err error
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read candidate text: %w", err)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	sessionID := auditSessionID
	if sessionID == "" {
		sessionID = session.GenerateSessionID(mustGetwd(), time.Now().UnixMilli())
	}

	thought := engine.Thought{ThoughtNumber: auditThoughtNum, Text: string(text)}
	sessionCfg := engine.SessionConfig{
		Task:       auditTask,
		Threshold:  auditThreshold,
		MaxCycles:  auditMaxCycles,
		Candidates: auditCandidates,
		Rubric: []review.RubricItem{
			{Name: "accuracy", Weight: 1, Description: "Is the code correct?"},
			{Name: "completeness", Weight: 1, Description: "Does it fully address the task?"},
			{Name: "clarity", Weight: 1, Description: "Is it easy to follow?"},
		},
	}

	result := p.engine.AuditAndWait(thought, sessionID, sessionCfg, "")

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(os.Stdout, "session: %s  success: %v  timed_out: %v  duration: %.2fs\n\n",
		result.SessionID, result.Success, result.TimedOut, result.Duration)
	fmt.Println(renderReview(result.Review))
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", result.Error)
	}
	return nil
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
