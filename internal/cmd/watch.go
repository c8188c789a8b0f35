package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/codeauditor/codeauditor/internal/engine"
	"github.com/codeauditor/codeauditor/internal/events"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/codeauditor/codeauditor/internal/session"
)

var watchDebounceMs int

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-audit a file on every write, showing live progress",
	Long: `Watches a single file with fsnotify and re-submits its contents as a new
thought to the audit engine on every debounced write, rendering the in-flight
audit's progress with a small Bubble Tea view (spec.md §4.7's progress
tracker observed out-of-band, SPEC_FULL.md §4.12's fsnotify wiring).`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchDebounceMs, "debounce-ms", 500, "milliseconds to wait after the last write before re-auditing")
}

// watchMsg values are sent into the Bubble Tea program from the fsnotify
// loop and the progress-event subscriber; tea.Program.Send is safe to call
// from any goroutine.
type watchMsg struct {
	progress *events.ProgressUpdateEvent
	result   *engine.AuditResult
	err      error
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	model := newWatchModel(path)
	program := tea.NewProgram(model)

	sub := p.bus.Subscribe("progress.update", func(ev events.Event) {
		pu, ok := ev.(events.ProgressUpdateEvent)
		if !ok {
			return
		}
		program.Send(watchMsg{progress: &pu})
	})
	defer p.bus.Unsubscribe(sub)

	sessionID := session.GenerateSessionID(mustGetwd(), time.Now().UnixMilli())
	go runWatchLoop(watcher, path, dir, p, sessionID, program)

	_, err = program.Run()
	return err
}

func runWatchLoop(watcher *fsnotify.Watcher, path, dir string, p *pipeline, sessionID string, program *tea.Program) {
	var debounceTimer *time.Timer
	thoughtNumber := 0

	submit := func() {
		thoughtNumber++
		text, err := os.ReadFile(path)
		if err != nil {
			program.Send(watchMsg{err: err})
			return
		}
		result := p.engine.AuditAndWait(
			engine.Thought{ThoughtNumber: thoughtNumber, Text: string(text)},
			sessionID,
			engine.SessionConfig{
				Task:      "Review the watched file for correctness and quality.",
				Threshold: 80,
				MaxCycles: 3,
				Rubric: []review.RubricItem{
					{Name: "accuracy", Weight: 1},
					{Name: "clarity", Weight: 1},
				},
			},
			"",
		)
		program.Send(watchMsg{result: &result})
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(time.Duration(watchDebounceMs)*time.Millisecond, submit)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			program.Send(watchMsg{err: err})
		}
	}
}
