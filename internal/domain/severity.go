package domain

// SeverityModel selects the scoring formula.
type SeverityModel string

const (
	// SeverityComposite sums per-factor band points and rescales to 1-5.
	SeverityComposite SeverityModel = "composite"
	// SeverityThreshold takes the highest band reached by any single factor.
	SeverityThreshold SeverityModel = "threshold"
)

// ParseSeverityModel returns the model named by s and whether it is known.
func ParseSeverityModel(s string) (SeverityModel, bool) {
	switch SeverityModel(s) {
	case SeverityComposite, SeverityThreshold:
		return SeverityModel(s), true
	}
	return "", false
}

// Band thresholds, highest first. A value strictly above bands[i] earns
// 5-i points.
var (
	deathBands    = [5]float64{10_000, 1_000, 100, 10, 0}
	affectedBands = [5]float64{1_000_000, 100_000, 10_000, 1_000, 0}
	lossBands     = [5]float64{1e9, 1e8, 1e7, 1e6, 0}
)

func bandPoints(v float64, bands [5]float64) int {
	for i, b := range bands {
		if v > b {
			return 5 - i
		}
	}
	return 0
}

// ScoreSeverity computes the composite severity: each factor earns 0-5 band
// points, the sum (at most 15) is rescaled with ceil(sum/15*5) and clamped to
// [1,5]. Economic loss is in raw USD.
func ScoreSeverity(deaths, affected, economicLossUSD float64) SeverityLevel {
	sum := bandPoints(deaths, deathBands) +
		bandPoints(affected, affectedBands) +
		bandPoints(economicLossUSD, lossBands)

	// ceil(sum*5/15) in integers.
	level := SeverityLevel((sum + 2) / 3)
	return clampSeverity(level)
}

// ThresholdSeverity is the older max-of-thresholds formula: the first band
// reached by any factor decides the level.
func ThresholdSeverity(deaths, affected, economicLossUSD float64) SeverityLevel {
	switch {
	case deaths > 10_000 || affected > 1_000_000 || economicLossUSD > 1e10:
		return 5
	case deaths > 1_000 || affected > 100_000 || economicLossUSD > 1e9:
		return 4
	case deaths > 100 || affected > 10_000 || economicLossUSD > 1e8:
		return 3
	case deaths > 10 || affected > 1_000 || economicLossUSD > 1e7:
		return 2
	default:
		return 1
	}
}

// Score dispatches to the formula selected by m. Unknown models score as
// composite.
func (m SeverityModel) Score(deaths, affected, economicLossUSD float64) SeverityLevel {
	if m == SeverityThreshold {
		return ThresholdSeverity(deaths, affected, economicLossUSD)
	}
	return ScoreSeverity(deaths, affected, economicLossUSD)
}

func clampSeverity(l SeverityLevel) SeverityLevel {
	if l < MinSeverity {
		return MinSeverity
	}
	if l > MaxSeverity {
		return MaxSeverity
	}
	return l
}
