package screening

import "strings"

// qualityScore aggregates the per-check diagnostics into one number in
// [0,1], starting at 1.0 and subtracting capped, independently traceable
// penalties:
//
//	response time: up to 0.30 (mean deficit) + 0.1*fast_ratio when > 0.3
//	longstring:    up to 0.25, linear in run length capped at 20
//	consistency:   up to 0.25, linear in correlation deficit
//	mahalanobis:   flat 0.20 when a computed p-value < 0.01
//	low variance:  flat 0.20
//
// The stated check weights do not sum to 100 once the low-variance flat
// penalty is counted; the literal arithmetic here is authoritative.
// Penalties read the rounded diagnostic values so a verdict's score is
// always reproducible from its own details.
func (d *Detector) qualityScore(details Details) float64 {
	score := 1.0

	rt := details.ResponseTime
	if rt.AvgTime < d.cfg.MinTimePerItem {
		score -= 0.3 * (d.cfg.MinTimePerItem - rt.AvgTime) / d.cfg.MinTimePerItem
	}
	if rt.FastRatio > 0.3 {
		score -= 0.1 * rt.FastRatio
	}

	ls := details.Longstring
	if ls.MaxStreak >= d.cfg.LongstringThreshold {
		severity := float64(ls.MaxStreak) / 20
		if severity > 1 {
			severity = 1
		}
		score -= 0.25 * severity
	}

	cons := details.Consistency
	if cons.Computed && cons.Correlation < d.cfg.CorrelationThreshold {
		score -= 0.25 * (d.cfg.CorrelationThreshold - cons.Correlation) / d.cfg.CorrelationThreshold
	}

	if m := details.Mahalanobis; m != nil && m.Computed && m.PValue < 0.01 {
		score -= 0.20
	}

	if details.Variance.IsFlagged {
		score -= 0.20
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Recommend maps a quality score to the categorical recommendation. The
// cutoffs are fixed; callers gating on a single boolean should test for
// RecommendReject rather than IsCareless.
func Recommend(score float64) string {
	switch {
	case score >= 0.8:
		return RecommendExcellent
	case score >= 0.6:
		return RecommendAcceptable
	case score >= 0.4:
		return RecommendWarning
	default:
		return RecommendReject
	}
}

// WarningMessage builds the respondent-facing explanation for a low
// quality verdict, one line per fired flag.
func WarningMessage(result *QualityCheckResult) string {
	lines := []string{"Response quality is too low:"}

	for _, flag := range result.Flags {
		switch flag {
		case FlagSpeeding:
			lines = append(lines, "- You answered too quickly.")
		case FlagLongstring:
			lines = append(lines, "- Too many identical answers in a row.")
		case FlagInconsistent:
			lines = append(lines, "- Your answers were not consistent.")
		case FlagStatisticalOutlier:
			lines = append(lines, "- Your response pattern is statistically unusual.")
		case FlagLowVariance:
			lines = append(lines, "- Your answers showed almost no variation.")
		}
	}

	lines = append(lines, "Answering again at a slower, steadier pace will give a more accurate result.")
	return strings.Join(lines, "\n")
}
