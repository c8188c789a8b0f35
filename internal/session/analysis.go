package session

import (
	"math"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
)

const stagnationWindow = 5

// AnalyzeProgress reports how a session's overall quality score has moved
// across its recorded qualityProgression entries (spec.md §4.10). A
// session is stagnant when the spread (max-min) over the last 5 scores is
// at most 2, and at least 3 scores are available.
func (s *FileSessionStore) AnalyzeProgress(sessionID string) (ProgressReport, error) {
	s.mu.Lock()
	st, err := s.load(sessionID)
	s.mu.Unlock()
	if err != nil {
		return ProgressReport{}, err
	}
	if st == nil {
		return ProgressReport{}, apperrors.NewSessionNotFoundError(sessionID)
	}

	scores := scoreProgression(st)
	report := ProgressReport{
		CurrentLoop:      st.CurrentLoop,
		ScoreProgression: scores,
	}

	window := lastN(scores, stagnationWindow)
	if len(window) >= 3 {
		report.IsStagnant = spread(window) <= 2
	}
	report.AverageImprovement = averageDelta(scores)
	return report, nil
}

// DetectStagnation reports a similarity score over the last 5 quality
// scores: 1.0 means the scores have not moved at all, 0.0 means they moved
// by 10 points or more on average between consecutive entries.
func (s *FileSessionStore) DetectStagnation(sessionID string) (StagnationReport, error) {
	s.mu.Lock()
	st, err := s.load(sessionID)
	s.mu.Unlock()
	if err != nil {
		return StagnationReport{}, err
	}
	if st == nil {
		return StagnationReport{}, apperrors.NewSessionNotFoundError(sessionID)
	}

	scores := scoreProgression(st)
	window := lastN(scores, stagnationWindow)

	similarity := 1.0
	if len(window) >= 2 {
		similarity = math.Max(0, 1-averageAbsDelta(window)/10)
	}

	report := StagnationReport{
		SimilarityScore: similarity,
		IsStagnant:      len(window) >= 3 && similarity >= 0.8,
	}
	if report.IsStagnant {
		report.DetectedAtLoop = st.CurrentLoop
		report.Recommendation = "quality scores have plateaued; consider widening scope or escalating the rubric"
	}
	return report, nil
}

func scoreProgression(st *State) []int {
	scores := make([]int, 0, len(st.QualityProgression))
	for _, qp := range st.QualityProgression {
		scores = append(scores, qp.OverallScore)
	}
	return scores
}

func lastN(values []int, n int) []int {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func spread(values []int) int {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func averageDelta(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0
	for i := 1; i < len(values); i++ {
		sum += values[i] - values[i-1]
	}
	return float64(sum) / float64(len(values)-1)
}

func averageAbsDelta(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(values); i++ {
		sum += math.Abs(float64(values[i] - values[i-1]))
	}
	return sum / float64(len(values)-1)
}
