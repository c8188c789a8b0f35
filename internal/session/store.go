package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/codeauditor/codeauditor/internal/engine"
	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/review"
)

// sessionConfigFrom narrows an engine.SessionConfig down to the fields this
// package persists.
func sessionConfigFrom(cfg engine.SessionConfig) Config {
	return Config{
		Task:       cfg.Task,
		Scope:      cfg.Scope,
		Threshold:  cfg.Threshold,
		MaxCycles:  cfg.MaxCycles,
		Candidates: cfg.Candidates,
	}
}

const (
	defaultStateDir = ".mcp-gan-state"
	ioRetryAttempts = 2
)

var unsafeFilenameChars = regexp.MustCompile(`[^0-9a-zA-Z._-]`)

// FileSessionStore persists one JSON file per session under a configured
// state directory. It is parameterized over afero.Fs so tests can swap in
// an in-memory filesystem instead of touching disk.
type FileSessionStore struct {
	fs       afero.Fs
	stateDir string
	mu       sync.Mutex
}

// New creates a FileSessionStore rooted at stateDir (default
// ".mcp-gan-state", relative to cwd unless absolute or "~"-prefixed). The
// directory is created recursively on first write, not here.
func New(fs afero.Fs, stateDir string) *FileSessionStore {
	if stateDir == "" {
		stateDir = defaultStateDir
	}
	if strings.HasPrefix(stateDir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			stateDir = filepath.Join(home, strings.TrimPrefix(stateDir, "~"))
		}
	}
	return &FileSessionStore{fs: fs, stateDir: stateDir}
}

// NewOS creates a FileSessionStore backed by the real OS filesystem.
func NewOS(stateDir string) *FileSessionStore {
	return New(afero.NewOsFs(), stateDir)
}

// GenerateSessionID derives a new session id from cwd, user, and the
// current time: SHA-256 hex of "<cwd>:<user>:<now-ms>", truncated to 16
// hex characters (spec.md §4.10).
func GenerateSessionID(cwd string, nowMillis int64) string {
	u := "unknown"
	if cu, err := user.Current(); err == nil && cu.Username != "" {
		u = cu.Username
	}
	sum := sha256.Sum256([]byte(cwd + ":" + u + ":" + strconv.FormatInt(nowMillis, 10)))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *FileSessionStore) path(sessionID string) string {
	safe := unsafeFilenameChars.ReplaceAllString(sessionID, "_")
	return filepath.Join(s.stateDir, safe+".json")
}

// load reads and validates+repairs sessionID's state. A missing file
// returns (nil, nil) per spec.md §4.10's "not found" treatment — never an
// error on its own.
func (s *FileSessionStore) load(sessionID string) (*State, error) {
	path := s.path(sessionID)

	var data []byte
	var readErr error
	for attempt := 0; attempt <= ioRetryAttempts; attempt++ {
		data, readErr = afero.ReadFile(s.fs, path)
		if readErr == nil || os.IsNotExist(readErr) {
			break
		}
	}
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, nil
		}
		return nil, apperrors.NewSessionPersistenceError(sessionID, "failed to read session file after retries", readErr)
	}

	st, repaired, ok := validateAndRepair(sessionID, data)
	if !ok {
		// Total corruption: the JSON does not parse. Treat as not found;
		// upstream may create fresh.
		return nil, nil
	}
	if repaired {
		if err := s.write(st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// validateAndRepair checks the required fields (id, history, createdAt,
// updatedAt). On partial corruption it fills each missing one with a
// default (id from sessionID, createdAt now, updatedAt from createdAt, an
// empty history), preserving every other field. Only JSON that does not
// parse counts as total corruption, for which ok is false.
func validateAndRepair(sessionID string, data []byte) (st *State, repaired bool, ok bool) {
	var raw State
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, false
	}
	if raw.ID == "" {
		raw.ID = sessionID
		repaired = true
	}
	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = time.Now()
		repaired = true
	}
	if raw.UpdatedAt.IsZero() {
		raw.UpdatedAt = raw.CreatedAt
		repaired = true
	}
	if raw.History == nil {
		raw.History = []HistoryEntry{}
		repaired = true
	}
	return &raw, repaired, true
}

// write persists st atomically: write to a temp file in the state
// directory, then rename over the target.
func (s *FileSessionStore) write(st *State) error {
	if err := s.fs.MkdirAll(s.stateDir, 0o755); err != nil {
		return apperrors.NewDirectoryCreationError(s.stateDir, err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return apperrors.NewSessionPersistenceError(st.ID, "failed to marshal session state", err)
	}

	path := s.path(st.ID)
	tmp := path + fmt.Sprintf(".tmp-%d", time.Now().UnixNano())

	var writeErr error
	for attempt := 0; attempt <= ioRetryAttempts; attempt++ {
		writeErr = afero.WriteFile(s.fs, tmp, data, 0o644)
		if writeErr == nil {
			writeErr = s.fs.Rename(tmp, path)
		}
		if writeErr == nil {
			break
		}
	}
	if writeErr != nil {
		_ = s.fs.Remove(tmp)
		return apperrors.NewSessionPersistenceError(st.ID, "failed to write session file after retries", writeErr)
	}
	return nil
}

func (s *FileSessionStore) mutate(sessionID string, fn func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(sessionID)
	if err != nil {
		return err
	}
	if st == nil {
		now := time.Now()
		st = &State{ID: sessionID, CreatedAt: now, UpdatedAt: now, History: []HistoryEntry{}}
	}
	fn(st)
	st.UpdatedAt = time.Now()
	return s.write(st)
}

// AddAuditToHistory appends a completed audit to sessionID's history and
// updates lastReview/updatedAt. It implements engine.SessionRecorder.
func (s *FileSessionStore) AddAuditToHistory(sessionID string, thoughtNumber int, rev review.Review, cfg engine.SessionConfig) error {
	return s.mutate(sessionID, func(st *State) {
		st.Config = sessionConfigFrom(cfg)
		st.History = append(st.History, HistoryEntry{ThoughtNumber: thoughtNumber, Review: rev, RecordedAt: time.Now()})
		revCopy := rev
		st.LastReview = &revCopy
	})
}

// AddIteration appends an iteration, increments currentLoop, and retains
// only the last 25.
func (s *FileSessionStore) AddIteration(sessionID string, summary string) error {
	return s.mutate(sessionID, func(st *State) {
		st.CurrentLoop++
		st.Iterations = append(st.Iterations, Iteration{LoopNumber: st.CurrentLoop, Summary: summary, RecordedAt: time.Now()})
		if len(st.Iterations) > maxIterations {
			st.Iterations = st.Iterations[len(st.Iterations)-maxIterations:]
		}
	})
}

// AddWorkflowStepResult appends a step result and retains only the last 100.
func (s *FileSessionStore) AddWorkflowStepResult(sessionID, stepName, stepResult string, thoughtNumber int) error {
	return s.mutate(sessionID, func(st *State) {
		st.WorkflowHistory = append(st.WorkflowHistory, WorkflowStepResult{
			ThoughtNumber: thoughtNumber, StepName: stepName, StepResult: stepResult, RecordedAt: time.Now(),
		})
		if len(st.WorkflowHistory) > maxWorkflowEntries {
			st.WorkflowHistory = st.WorkflowHistory[len(st.WorkflowHistory)-maxWorkflowEntries:]
		}
	})
}

// TrackQualityProgression appends a quality entry, retains only the last
// 50, and marks the session complete if the entry's completion analysis
// says so.
func (s *FileSessionStore) TrackQualityProgression(sessionID string, qp QualityProgression) error {
	return s.mutate(sessionID, func(st *State) {
		if qp.RecordedAt.IsZero() {
			qp.RecordedAt = time.Now()
		}
		st.QualityProgression = append(st.QualityProgression, qp)
		if len(st.QualityProgression) > maxQualityEntries {
			st.QualityProgression = st.QualityProgression[len(st.QualityProgression)-maxQualityEntries:]
		}
		if qp.CompletionAnalysis.Status == "completed" {
			st.IsComplete = true
			st.CompletionReason = qp.CompletionAnalysis.Reason
		}
	})
}

// StorePromptContext overwrites the single continuity slot.
func (s *FileSessionStore) StorePromptContext(sessionID, context string) error {
	return s.mutate(sessionID, func(st *State) {
		st.PromptContext = &PromptContext{Context: context, StoredAt: time.Now(), SessionLoop: st.CurrentLoop}
	})
}

// GetPromptContext reads the continuity slot, or nil if none is stored.
func (s *FileSessionStore) GetPromptContext(sessionID string) (*PromptContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(sessionID)
	if err != nil || st == nil {
		return nil, err
	}
	return st.PromptContext, nil
}

// RecordCodexFailure appends a failure record and marks hasCodexIssues. It
// implements engine.SessionRecorder: per spec.md §4.10 this must never
// return an error to a caller that cannot act on it, so any failure of the
// write itself is swallowed.
func (s *FileSessionStore) RecordCodexFailure(sessionID string, thoughtNumber int, errMsg string) {
	_ = s.mutate(sessionID, func(st *State) {
		now := time.Now()
		st.HasCodexIssues = true
		st.LastCodexFailure = &now
		st.CodexFailures = append(st.CodexFailures, CodexFailure{ThoughtNumber: thoughtNumber, Error: errMsg, RecordedAt: now})
	})
}

// DeleteSession removes sessionID's file. Missing is not an error.
func (s *FileSessionStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return apperrors.NewSessionPersistenceError(sessionID, "failed to delete session file", err)
	}
	return nil
}

// GetSession returns sessionID's state, or a SessionNotFoundError if it
// does not exist (total corruption also reads as not found per load()).
func (s *FileSessionStore) GetSession(sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	return st, nil
}

// GetAllSessions lists every persisted session's summary.
func (s *FileSessionStore) GetAllSessions() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, s.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewSessionPersistenceError("", "failed to list session state directory", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sessionID := strings.TrimSuffix(entry.Name(), ".json")
		st, loadErr := s.load(sessionID)
		if loadErr != nil || st == nil {
			continue
		}
		infos = append(infos, Info{ID: st.ID, CreatedAt: st.CreatedAt, UpdatedAt: st.UpdatedAt, Loops: st.CurrentLoop})
	}
	return infos, nil
}

// Cleanup removes sessions older than maxAge (by updatedAt) or whose file
// fails validation and cannot be repaired. Intended to run on a periodic
// sweep (default hourly per spec.md §4.10); Cleanup itself performs one
// pass and returns how many sessions it removed.
func (s *FileSessionStore) Cleanup(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	entries, err := afero.ReadDir(s.fs, s.stateDir)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, apperrors.NewSessionPersistenceError("", "failed to list session state directory", err)
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sessionID := strings.TrimSuffix(entry.Name(), ".json")

		s.mu.Lock()
		st, loadErr := s.load(sessionID)
		s.mu.Unlock()

		if loadErr != nil || st == nil || st.UpdatedAt.Before(cutoff) {
			if delErr := s.DeleteSession(sessionID); delErr == nil {
				removed++
			}
		}
	}
	return removed, nil
}
