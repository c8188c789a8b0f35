package session

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"sync"

	"github.com/codeauditor/codeauditor/internal/engine"
)

// compactIterationWindow is how many of a session's most recent iterations
// CompactStore keeps decompressed in memory.
const compactIterationWindow = 5

// compactEntry holds one session's gzip-compressed overflow iterations,
// kept out of the hot State so large histories don't stay fully resident.
type compactEntry struct {
	compressed []byte // gzip(json([]Iteration))
	rawLen     int
}

// CompactStore decorates a FileSessionStore so that only the most recent
// iterations of each session stay decompressed; older ones are gzip-encoded
// and held separately, trading CPU for memory on long-running sessions
// (SPEC_FULL.md §4.13).
type CompactStore struct {
	*FileSessionStore

	mu       sync.Mutex
	overflow map[string]compactEntry
}

// NewCompact wraps store with compaction.
func NewCompact(store *FileSessionStore) *CompactStore {
	return &CompactStore{FileSessionStore: store, overflow: make(map[string]compactEntry)}
}

// AddIteration appends an iteration through the underlying store, then
// compacts anything beyond the decompressed window into gzip overflow.
func (c *CompactStore) AddIteration(sessionID string, summary string) error {
	if err := c.FileSessionStore.AddIteration(sessionID, summary); err != nil {
		return err
	}
	return c.compact(sessionID)
}

func (c *CompactStore) compact(sessionID string) error {
	st, err := c.GetSession(sessionID)
	if err != nil {
		return err
	}
	if len(st.Iterations) <= compactIterationWindow {
		return nil
	}

	overflow := st.Iterations[:len(st.Iterations)-compactIterationWindow]
	kept := st.Iterations[len(st.Iterations)-compactIterationWindow:]

	raw, err := json.Marshal(overflow)
	if err != nil {
		return err
	}

	c.mu.Lock()
	existing := c.overflow[sessionID]
	merged, err := mergeCompacted(existing, raw)
	if err != nil {
		return err
	}
	c.overflow[sessionID] = merged
	c.mu.Unlock()

	return c.FileSessionStore.mutate(sessionID, func(s *State) {
		s.Iterations = kept
	})
}

// mergeCompacted decompresses any existing overflow, appends the newly
// overflowing iterations, and recompresses the combined set.
func mergeCompacted(existing compactEntry, newRaw []byte) (compactEntry, error) {
	var combined []Iteration
	if len(existing.compressed) > 0 {
		decompressed, err := decompress(existing.compressed)
		if err != nil {
			return compactEntry{}, err
		}
		if err := json.Unmarshal(decompressed, &combined); err != nil {
			return compactEntry{}, err
		}
	}

	var added []Iteration
	if err := json.Unmarshal(newRaw, &added); err != nil {
		return compactEntry{}, err
	}
	combined = append(combined, added...)

	raw, err := json.Marshal(combined)
	if err != nil {
		return compactEntry{}, err
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return compactEntry{}, err
	}
	if err := gw.Close(); err != nil {
		return compactEntry{}, err
	}
	return compactEntry{compressed: buf.Bytes(), rawLen: len(raw)}, nil
}

func decompress(compressed []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := gr.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

// FullIterations returns every iteration recorded for sessionID, merging
// the decompressed overflow with whatever is currently held in the hot
// state.
func (c *CompactStore) FullIterations(sessionID string) ([]Iteration, error) {
	st, err := c.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry := c.overflow[sessionID]
	c.mu.Unlock()

	var all []Iteration
	if len(entry.compressed) > 0 {
		decompressed, err := decompress(entry.compressed)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(decompressed, &all); err != nil {
			return nil, err
		}
	}
	return append(all, st.Iterations...), nil
}

// MemoryStats reports compressed-vs-raw bytes held in overflow, per session
// and in total.
type MemoryStats struct {
	PerSession map[string]SessionMemoryStats
	TotalBytes int
}

// SessionMemoryStats is one session's overflow footprint.
type SessionMemoryStats struct {
	CompressedBytes int
	RawBytes        int
}

// MemoryUsage reports CompactStore's current overflow footprint.
func (c *CompactStore) MemoryUsage() MemoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := MemoryStats{PerSession: make(map[string]SessionMemoryStats, len(c.overflow))}
	for id, entry := range c.overflow {
		stats.PerSession[id] = SessionMemoryStats{CompressedBytes: len(entry.compressed), RawBytes: entry.rawLen}
		stats.TotalBytes += len(entry.compressed)
	}
	return stats
}

var _ engine.SessionRecorder = (*CompactStore)(nil)
