package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeauditor/codeauditor/internal/logging"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect persisted audit sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every persisted session",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's full state",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsAnalyzeCmd = &cobra.Command{
	Use:   "analyze <session-id>",
	Short: "Report progress and stagnation analysis for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsAnalyze,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove sessions older than the configured retention window",
	RunE:  runSessionsCleanup,
}

var sessionsLogsFormat string
var sessionsLogsOutput string
var sessionsLogsLevel string

var sessionsLogsCmd = &cobra.Command{
	Use:   "logs <session-id>",
	Short: "Export the debug log entries recorded for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsLogs,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsAnalyzeCmd, sessionsDeleteCmd, sessionsCleanupCmd, sessionsLogsCmd)

	sessionsLogsCmd.Flags().StringVar(&sessionsLogsFormat, "format", "json", "export format: json, text, or csv")
	sessionsLogsCmd.Flags().StringVar(&sessionsLogsOutput, "output", "", "output file (default: <session-id>-logs.<format>)")
	sessionsLogsCmd.Flags().StringVar(&sessionsLogsLevel, "level", "", "minimum log level to include (DEBUG, INFO, WARN, ERROR)")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	infos, err := p.store.GetAllSessions()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	fmt.Printf("%-18s %-22s %-22s %6s\n", "ID", "CREATED", "UPDATED", "LOOPS")
	fmt.Println(strings.Repeat("─", 70))
	for _, info := range infos {
		fmt.Printf("%-18s %-22s %-22s %6d\n",
			info.ID,
			info.CreatedAt.Format(time.RFC3339),
			info.UpdatedAt.Format(time.RFC3339),
			info.Loops)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	st, err := p.store.GetSession(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func runSessionsAnalyze(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	progressReport, err := p.store.AnalyzeProgress(args[0])
	if err != nil {
		return err
	}
	stagnation, err := p.store.DetectStagnation(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("current loop:        %d\n", progressReport.CurrentLoop)
	fmt.Printf("score progression:   %v\n", progressReport.ScoreProgression)
	fmt.Printf("average improvement: %.2f\n", progressReport.AverageImprovement)
	fmt.Printf("stagnant:            %v\n", progressReport.IsStagnant)
	fmt.Println()
	fmt.Printf("stagnation detected: %v\n", stagnation.IsStagnant)
	fmt.Printf("detected at loop:    %d\n", stagnation.DetectedAtLoop)
	fmt.Printf("similarity score:    %.2f\n", stagnation.SimilarityScore)
	fmt.Printf("recommendation:      %s\n", stagnation.Recommendation)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	if err := p.store.DeleteSession(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func runSessionsCleanup(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	maxAge := p.cfg.Session.MaxSessionAge()
	if maxAge == 0 {
		// A zero max age disables the age limit; only unreadable files go.
		maxAge = time.Duration(1<<63 - 1)
	}
	removed, err := p.store.Cleanup(maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d session(s)\n", removed)
	return nil
}

func runSessionsLogs(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	sessionID := args[0]
	entries, err := logging.AggregateLogs(logDir(p.cfg))
	if err != nil {
		return err
	}

	filtered := logging.FilterLogs(entries, logging.LogFilter{
		SessionID: sessionID,
		Level:     sessionsLogsLevel,
	})

	output := sessionsLogsOutput
	if output == "" {
		output = fmt.Sprintf("%s-logs.%s", sessionID, sessionsLogsFormat)
	}

	if err := logging.ExportLogEntries(filtered, output, sessionsLogsFormat); err != nil {
		return err
	}
	fmt.Printf("exported %d log entries to %s\n", len(filtered), output)
	return nil
}
