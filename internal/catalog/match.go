package catalog

// MatchThreshold is the minimum auto-detection score. A best match below it
// is rejected, but its score and overlap are still reported for diagnostics.
const MatchThreshold = 0.35

// Match is the outcome of scoring a dataset's columns against the catalog.
type Match struct {
	// Schema is the chosen schema name; empty when nothing matched.
	Schema string
	// Score is overlap / max(len(expected), 1), in [0, 1].
	Score float64
	// Overlap counts observed columns present in the schema's expected set.
	Overlap int
}

// Matched reports whether a schema was selected.
func (m Match) Matched() bool { return m.Schema != "" }

// Detect scores the observed columns against every registered schema and
// picks the one with the strictly highest score. Ties keep the
// first-registered schema. Schemas whose documents failed to parse are
// skipped. A best score below MatchThreshold yields an empty Schema with the
// best score/overlap preserved.
func (c *Catalog) Detect(columns []string) Match {
	c.build()
	observed := toSet(columns)

	var best Match
	for _, e := range c.entries {
		if e.err != nil {
			continue
		}
		score, overlap := scoreColumns(observed, e.spec.ExpectedColumns)
		// Strict inequality: first-registered wins ties.
		if score > best.Score {
			best = Match{Schema: e.reg.Name, Score: score, Overlap: overlap}
		}
	}

	if best.Score < MatchThreshold {
		best.Schema = ""
	}
	return best
}

// ScoreAgainst scores the observed columns against one named schema only,
// skipping the detection threshold. It is used when the caller already knows
// (or asserts) which schema a dataset should follow. A schema that is
// unavailable scores zero.
func (c *Catalog) ScoreAgainst(name string, columns []string) Match {
	spec, err := c.Spec(name)
	if err != nil {
		return Match{Schema: name}
	}
	score, overlap := scoreColumns(toSet(columns), spec.ExpectedColumns)
	return Match{Schema: name, Score: score, Overlap: overlap}
}

func scoreColumns(observed map[string]struct{}, expected []string) (float64, int) {
	overlap := 0
	for _, col := range expected {
		if _, ok := observed[col]; ok {
			overlap++
		}
	}
	denom := len(expected)
	if denom < 1 {
		denom = 1
	}
	return float64(overlap) / float64(denom), overlap
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
