package catalog

import (
	"sort"

	"github.com/xrash/smetrics"
)

// DefaultSimilarityThreshold is deliberately strict: at 0.95 a single
// typo in a long name ("Red Hot Chilli Peppers") still collapses onto
// the known artist, while short near-misses ("The Beatless") stay
// distinct entities. Tunable via config.
const DefaultSimilarityThreshold = 0.95

// Similarity returns a normalized edit-distance similarity in [0,1]
// between two already-normalized names.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(dist)/float64(longest)
}

// Match resolves a display name against known candidate names. It is a
// pure function: exact match after normalization wins, otherwise the
// most similar candidate at or above the threshold (lexicographically
// first normalized form on ties), otherwise ok is false and the caller
// should create a new entity.
func Match(name string, candidates []string, threshold float64) (string, bool) {
	n := Normalize(name)

	byNorm := make(map[string]string, len(candidates))
	norms := make([]string, 0, len(candidates))
	for _, c := range candidates {
		cn := Normalize(c)
		if _, seen := byNorm[cn]; !seen {
			byNorm[cn] = c
			norms = append(norms, cn)
		}
	}
	if c, ok := byNorm[n]; ok {
		return c, true
	}

	sort.Strings(norms)
	best, bestScore := "", 0.0
	for _, cn := range norms {
		if score := Similarity(n, cn); score > bestScore {
			best, bestScore = cn, score
		}
	}
	if bestScore >= threshold {
		return byNorm[best], true
	}
	return "", false
}

// Matcher accumulates the names known in a scope (artists globally,
// albums under one album artist) and resolves incoming names against
// them, registering names that resolve to nothing.
type Matcher struct {
	threshold float64
	names     []string
	seen      map[string]struct{} // normalized forms
}

// NewMatcher creates a matcher with the given similarity threshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Matcher{threshold: threshold, seen: make(map[string]struct{})}
}

// Add registers an already-known canonical name, e.g. from the
// persisted snapshot.
func (m *Matcher) Add(name string) {
	n := Normalize(name)
	if _, ok := m.seen[n]; ok {
		return
	}
	m.seen[n] = struct{}{}
	m.names = append(m.names, name)
}

// Resolve maps a display name onto the canonical name it collapses to.
// created reports whether the name was new to this scope.
func (m *Matcher) Resolve(name string) (canonical string, created bool) {
	if c, ok := Match(name, m.names, m.threshold); ok {
		return c, false
	}
	m.Add(name)
	return name, true
}
