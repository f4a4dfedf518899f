// Package styles implements the response-style corrector: detection of
// extreme, midpoint and acquiescence response biases, with conditional
// rewrites of the response vector to counteract whichever biases exceed
// their thresholds.
package styles

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/esteem-assess/core/internal/config"
	"github.com/esteem-assess/core/internal/survey"
)

// Correction names, in the fixed order corrections are applied.
const (
	CorrectionExtreme      = "extreme_responding"
	CorrectionMidpoint     = "midpoint_responding"
	CorrectionAcquiescence = "acquiescence_bias"
)

// nearZeroStdDev is the spread below which extreme-response rescaling is
// skipped: with no variance there is nothing meaningful to rescale.
const nearZeroStdDev = 0.1

// acquiescenceTolerance allows pair sums of 4 and 6 (e.g. 2+2, 3+3) to
// still count as anti-correlated on the 1-4 scale, where perfect reversal
// sums to 5.
const acquiescenceTolerance = 1

// StyleScores holds the three bias magnitudes. Acquiescence is nil when no
// reverse items were supplied, since the score is undefined without them.
type StyleScores struct {
	ExtremeResponding  float64  `json:"extreme_responding"`
	MidpointResponding float64  `json:"midpoint_responding"`
	Acquiescence       *float64 `json:"acquiescence"`
}

// CorrectionResult is the corrector's output for one respondent. If
// CorrectionsApplied is empty, CorrectedResponses equals OriginalResponses
// element-wise.
type CorrectionResult struct {
	CorrectedResponses []int       `json:"corrected_responses"`
	CorrectionsApplied []string    `json:"corrections_applied"`
	OriginalResponses  []int       `json:"original_responses"`
	StyleScores        StyleScores `json:"style_scores"`
}

// Corrector holds the three bias thresholds. It is stateless beyond the
// configuration and safe for concurrent use.
type Corrector struct {
	cfg config.Styles
}

// NewCorrector builds a corrector from validated style thresholds.
func NewCorrector(cfg config.Styles) *Corrector {
	return &Corrector{cfg: cfg}
}

// Correct detects the three biases against the original vector and applies
// whichever corrections fire, in the fixed order extreme -> midpoint ->
// acquiescence, to a working copy. Scores are never recomputed against
// partially corrected data, but each correction operates on the output of
// the previous one. The input is never mutated.
func (c *Corrector) Correct(responses []int, reverseItems []int) (*CorrectionResult, error) {
	if err := survey.ValidateResponses(responses); err != nil {
		return nil, err
	}
	if err := survey.ValidateReverseItems(reverseItems, len(responses)); err != nil {
		return nil, err
	}

	original := make([]int, len(responses))
	copy(original, responses)
	corrected := make([]int, len(responses))
	copy(corrected, responses)

	corrections := []string{}

	ers := extremeScore(responses)
	mrs := midpointScore(responses)
	var aq *float64
	if len(reverseItems) > 0 {
		score := acquiescenceScore(responses, reverseItems)
		aq = &score
	}

	if ers > c.cfg.ExtremeThreshold {
		corrected = correctExtreme(corrected)
		corrections = append(corrections, CorrectionExtreme)
	}
	if mrs > c.cfg.MidpointThreshold {
		corrected = correctMidpoint(corrected)
		corrections = append(corrections, CorrectionMidpoint)
	}
	if aq != nil && *aq > c.cfg.AcquiescenceThreshold {
		corrected = correctAcquiescence(corrected, reverseItems)
		corrections = append(corrections, CorrectionAcquiescence)
	}

	return &CorrectionResult{
		CorrectedResponses: corrected,
		CorrectionsApplied: corrections,
		OriginalResponses:  original,
		StyleScores: StyleScores{
			ExtremeResponding:  round3(ers),
			MidpointResponding: round3(mrs),
			Acquiescence:       roundPtr3(aq),
		},
	}, nil
}

// extremeScore is the fraction of responses at the scale endpoints.
func extremeScore(responses []int) float64 {
	count := 0
	for _, r := range responses {
		if r == survey.ScaleMin || r == survey.ScaleMax {
			count++
		}
	}
	return float64(count) / float64(len(responses))
}

// midpointScore is the fraction of responses at the scale midpoints.
func midpointScore(responses []int) float64 {
	count := 0
	for _, r := range responses {
		if r == 2 || r == 3 {
			count++
		}
	}
	return float64(count) / float64(len(responses))
}

// acquiescenceScore walks adjacent item pairs whose polarity differs
// (exactly one of the pair is a reverse item) and counts how often the
// pair's response sum strays from the anti-correlated expectation of 5.
// Only adjacent pairs are considered; reverse items are not matched to
// their logical forward counterparts elsewhere in the instrument.
func acquiescenceScore(responses []int, reverseItems []int) float64 {
	reverse := make(map[int]bool, len(reverseItems))
	for _, idx := range reverseItems {
		reverse[idx] = true
	}

	mismatches, pairs := 0, 0
	for i := 0; i < len(responses)-1; i++ {
		if reverse[i] == reverse[i+1] {
			continue
		}
		pairs++
		deviation := responses[i] + responses[i+1] - 5
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > acquiescenceTolerance {
			mismatches++
		}
	}

	if pairs == 0 {
		return 0.0
	}
	return float64(mismatches) / float64(pairs)
}

// correctExtreme z-score normalizes the vector and remaps it onto the 1-4
// scale with a compressed spread (center 2.5, 0.75 scale units per
// standard deviation). Skipped when the vector has near-zero spread.
func correctExtreme(responses []int) []int {
	data := toFloats(responses)
	std, _ := stats.StandardDeviationPopulation(data)
	if std < nearZeroStdDev {
		return responses
	}
	mean, _ := stats.Mean(data)

	out := make([]int, len(responses))
	for i, r := range responses {
		z := (float64(r) - mean) / std
		out[i] = clampRound(2.5 + z*0.75)
	}
	return out
}

// correctMidpoint nudges midpoint answers away from the scale center:
// above-mean answers up, below-mean down, and a small deterministic nudge
// outward when exactly at the mean. Non-midpoint answers pass through.
func correctMidpoint(responses []int) []int {
	mean, _ := stats.Mean(toFloats(responses))

	out := make([]int, len(responses))
	for i, r := range responses {
		if r != 2 && r != 3 {
			out[i] = r
			continue
		}
		var adjustment float64
		switch {
		case float64(r) > mean:
			adjustment = 0.5
		case float64(r) < mean:
			adjustment = -0.5
		case r == 3:
			adjustment = 0.3
		default:
			adjustment = -0.3
		}
		out[i] = clampRound(float64(r) + adjustment)
	}
	return out
}

// correctAcquiescence reverse-scores every listed reverse item with the
// standard 5-x transform for a 1-4 scale. Applied to all reverse items
// once the correction fires, not just mismatching pairs.
func correctAcquiescence(responses []int, reverseItems []int) []int {
	out := make([]int, len(responses))
	copy(out, responses)
	for _, idx := range reverseItems {
		out[idx] = 5 - responses[idx]
	}
	return out
}

func clampRound(score float64) int {
	if score < float64(survey.ScaleMin) {
		score = float64(survey.ScaleMin)
	}
	if score > float64(survey.ScaleMax) {
		score = float64(survey.ScaleMax)
	}
	return int(math.Round(score))
}

func toFloats(responses []int) []float64 {
	out := make([]float64, len(responses))
	for i, r := range responses {
		out[i] = float64(r)
	}
	return out
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }

func roundPtr3(x *float64) *float64 {
	if x == nil {
		return nil
	}
	r := round3(*x)
	return &r
}
