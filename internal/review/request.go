package review

// RubricItem is one scored dimension a judge evaluates a candidate against.
// Shared by the judge client (prompt construction), the audit cache
// (fingerprinting), and the engine (AuditRequest), so it lives here rather
// than in any one of them.
type RubricItem struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Budget bounds how much iteration and evidence an audit may consume.
type Budget struct {
	MaxCycles  int `json:"maxCycles"`
	Candidates int `json:"candidates"`
	Threshold  int `json:"threshold"`
}
