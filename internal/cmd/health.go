package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Validate the judge executable and report process manager health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	result := p.val.Validate(os.Getenv("PATH"))

	fmt.Println(headingStyle.Render("Judge validation"))
	fmt.Printf("  available:      %v\n", result.IsAvailable)
	if result.ExecutablePath != "" {
		fmt.Printf("  executable:     %s\n", result.ExecutablePath)
	}
	if result.Version != "" {
		fmt.Printf("  version:        %s\n", result.Version)
	}
	if len(result.EnvironmentIssues) > 0 {
		fmt.Printf("  issues:         %s\n", strings.Join(result.EnvironmentIssues, "; "))
	}
	if len(result.Recommendations) > 0 {
		fmt.Printf("  recommendations: %s\n", strings.Join(result.Recommendations, "; "))
	}

	fmt.Println()
	fmt.Println(headingStyle.Render("Process manager health"))
	hm := p.procs.Health()
	fmt.Printf("  healthy:        %v\n", hm.Healthy)
	fmt.Printf("  started:        %d\n", hm.Started)
	fmt.Printf("  succeeded:      %d\n", hm.Succeeded)
	fmt.Printf("  failed:         %d\n", hm.Failed)
	fmt.Printf("  timed out:      %d\n", hm.TimedOut)
	fmt.Printf("  avg execution:  %s\n", hm.AvgExecution)
	if !hm.LastActivity.IsZero() {
		fmt.Printf("  last activity:  %s\n", hm.LastActivity)
	}

	fmt.Println()
	fmt.Println(headingStyle.Render("Audit queue"))
	qs := p.queue.Stats()
	fmt.Printf("  pending:        %d\n", qs.Pending)
	fmt.Printf("  running:        %d\n", qs.Running)
	fmt.Printf("  completed:      %d\n", qs.Completed)
	fmt.Printf("  failed:         %d\n", qs.Failed)
	fmt.Printf("  utilization:    %.2f\n", qs.Utilization)

	fmt.Println()
	fmt.Println(headingStyle.Render("Audit cache"))
	cs := p.cache.Stats()
	fmt.Printf("  size:           %d\n", cs.Size)
	fmt.Printf("  hits:           %d\n", cs.Hits)
	fmt.Printf("  misses:         %d\n", cs.Misses)

	if !result.IsAvailable {
		return fmt.Errorf("judge executable is not available")
	}
	return nil
}
