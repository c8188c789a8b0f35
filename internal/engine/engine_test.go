package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codeauditor/codeauditor/internal/auditcache"
	"github.com/codeauditor/codeauditor/internal/auditqueue"
	"github.com/codeauditor/codeauditor/internal/env"
	"github.com/codeauditor/codeauditor/internal/judgeclient"
	"github.com/codeauditor/codeauditor/internal/parser"
	"github.com/codeauditor/codeauditor/internal/procmanager"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/codeauditor/codeauditor/internal/validator"
)

const fakeJudgeReviewJSON = `{"overall":88,"dimensions":[{"name":"correctness","score":90}],` +
	`"verdict":"pass","summary":"looks good","inline":[],"citations":[],` +
	`"proposed_diff":null,"iterations":1,"judge_cards":[{"model":"fake","score":88}]}`

func writeFakeJudge(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "codex")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeRecorder struct {
	mu      sync.Mutex
	history []review.Review
	failed  []string
}

func (f *fakeRecorder) AddAuditToHistory(sessionID string, thoughtNumber int, rev review.Review, cfg SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, rev)
	return nil
}

func (f *fakeRecorder) RecordCodexFailure(sessionID string, thoughtNumber int, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, errMsg)
}

func newTestEngine(t *testing.T, judgePath string, cfg Config, recorder SessionRecorder) *Engine {
	t.Helper()
	dir := filepath.Dir(judgePath)
	resolver := env.New("codex", []string{dir}, "", "", nil)
	procs := procmanager.New(3, time.Second, time.Second, nil)
	v := validator.New(resolver, procs, "0.29.0", 2*time.Second)
	p := parser.New(nil)
	judge := judgeclient.New(resolver, v, procs, p, 0, 2*time.Second, nil)
	cache := auditcache.New(10, time.Hour)
	queue := auditqueue.New(auditqueue.Options{MaxConcurrent: 2, TickInterval: 2 * time.Millisecond})
	t.Cleanup(queue.Destroy)
	return New(cfg, cache, queue, judge, nil, recorder, nil)
}

func fakeJudgeScript(body string) string {
	return "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"--version) echo 0.30.0 ;;\n" +
		"-h) exit 0 ;;\n" +
		"exec) echo '" + body + "' ;;\n" +
		"esac\n"
}

func defaultSessionCfg() SessionConfig {
	return SessionConfig{
		Task:       "review this function",
		Threshold:  70,
		MaxCycles:  1,
		Candidates: 1,
		Rubric:     []review.RubricItem{{Name: "correctness", Weight: 1}},
	}
}

func TestAuditAndWait_SkipsWhenAuditDisabled(t *testing.T) {
	e := newTestEngine(t, writeFakeJudge(t, fakeJudgeScript(fakeJudgeReviewJSON)), Config{EnableAudit: false}, nil)
	res := e.AuditAndWait(Thought{ThoughtNumber: 1, Text: "```go\nfunc f() {}\n```"}, "s1", defaultSessionCfg(), "")

	if !res.Success || res.Review.Overall != 100 || !res.Review.IsPassing() {
		t.Errorf("AuditAndWait() = %+v, want a skipped perfect-score review", res)
	}
}

func TestAuditAndWait_SkipsWhenNoCodeLikeContent(t *testing.T) {
	e := newTestEngine(t, writeFakeJudge(t, fakeJudgeScript(fakeJudgeReviewJSON)), Config{EnableAudit: true}, nil)
	res := e.AuditAndWait(Thought{ThoughtNumber: 1, Text: "Please summarize the sprint status."}, "s1", defaultSessionCfg(), "")

	if !res.Success || res.Review.Overall != 100 {
		t.Errorf("AuditAndWait() = %+v, want a skipped perfect-score review", res)
	}
}

func TestAuditAndWait_HappyPath(t *testing.T) {
	recorder := &fakeRecorder{}
	e := newTestEngine(t, writeFakeJudge(t, fakeJudgeScript(fakeJudgeReviewJSON)), Config{EnableAudit: true}, recorder)
	res := e.AuditAndWait(Thought{ThoughtNumber: 1, Text: "```go\nfunc add(a, b int) int { return a+b }\n```"}, "s1", defaultSessionCfg(), "")

	if !res.Success || res.TimedOut || res.Review.Overall != 88 || !res.Review.IsPassing() {
		t.Errorf("AuditAndWait() = %+v, want success with overall 88", res)
	}
	if res.SessionID != "s1" {
		t.Errorf("AuditAndWait() SessionID = %q, want s1", res.SessionID)
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.history) != 1 {
		t.Errorf("session history = %d entries, want 1", len(recorder.history))
	}
}

func TestAuditAndWait_CacheHitSkipsSecondJudgeInvocation(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	script := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"--version) echo 0.30.0 ;;\n" +
		"-h) exit 0 ;;\n" +
		"exec) echo -n x >> " + countFile + "; echo '" + fakeJudgeReviewJSON + "' ;;\n" +
		"esac\n"
	e := newTestEngine(t, writeFakeJudge(t, script), Config{EnableAudit: true}, nil)
	thought := Thought{ThoughtNumber: 1, Text: "```go\nfunc add(a, b int) int { return a+b }\n```"}

	first := e.AuditAndWait(thought, "s1", defaultSessionCfg(), "")
	second := e.AuditAndWait(thought, "s1", defaultSessionCfg(), "")

	if !first.Success || !second.Success {
		t.Fatalf("both audits should succeed: first=%+v second=%+v", first, second)
	}
	data, err := os.ReadFile(countFile)
	if err != nil {
		t.Fatalf("reading attempt counter: %v", err)
	}
	if got := len(data); got != 1 {
		t.Errorf("judge invoked %d times, want 1 (second request should hit the cache)", got)
	}
}

func TestAuditAndWait_JudgeNotAvailableSynthesizesFallback(t *testing.T) {
	resolver := env.New("codex", []string{t.TempDir()}, "", "", nil)
	procs := procmanager.New(2, time.Second, time.Second, nil)
	v := validator.New(resolver, procs, "0.29.0", 2*time.Second)
	judge := judgeclient.New(resolver, v, procs, parser.New(nil), 0, 2*time.Second, nil)
	cache := auditcache.New(10, time.Hour)
	queue := auditqueue.New(auditqueue.Options{MaxConcurrent: 2, TickInterval: 2 * time.Millisecond})
	defer queue.Destroy()

	recorder := &fakeRecorder{}
	e := New(Config{EnableAudit: true}, cache, queue, judge, nil, recorder, nil)
	res := e.AuditAndWait(Thought{ThoughtNumber: 1, Text: "```go\nfunc f() {}\n```"}, "s1", defaultSessionCfg(), "")

	if res.Success {
		t.Error("AuditAndWait() should not report success when the judge is unavailable")
	}
	if res.Review.Overall != 50 || res.Review.Verdict != review.VerdictRevise {
		t.Errorf("fallback review = %+v, want overall 50 revise", res.Review)
	}
	if len(res.Review.JudgeCards) != 1 || res.Review.JudgeCards[0].Model != fallbackJudgeModel {
		t.Errorf("fallback review judge cards = %+v, want a single fallback card", res.Review.JudgeCards)
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.failed) != 1 {
		t.Errorf("RecordCodexFailure should have been called once, got %d", len(recorder.failed))
	}
}

func TestAuditAndWait_EngineTimeoutMarksTimedOut(t *testing.T) {
	script := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"--version) echo 0.30.0 ;;\n" +
		"-h) exit 0 ;;\n" +
		"exec) sleep 1; echo '" + fakeJudgeReviewJSON + "' ;;\n" +
		"esac\n"
	e := newTestEngine(t, writeFakeJudge(t, script), Config{EnableAudit: true, EngineTimeout: 20 * time.Millisecond}, nil)
	res := e.AuditAndWait(Thought{ThoughtNumber: 1, Text: "```go\nfunc f() {}\n```"}, "s1", defaultSessionCfg(), "")

	if res.Success || !res.TimedOut {
		t.Errorf("AuditAndWait() = %+v, want a timed-out failure", res)
	}
}
