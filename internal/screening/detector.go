// Package screening implements the careless-response detector: five
// independent data-quality heuristics over a response vector and its
// per-item latencies, aggregated into flags, a continuous quality score
// and a categorical recommendation.
//
// Heuristics:
//  1. Response time (speeding)
//  2. Longstring (identical consecutive answers)
//  3. Even-odd consistency
//  4. Mahalanobis distance (statistical outlier, needs reference data)
//  5. Low variance
package screening

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/esteem-assess/core/internal/config"
	"github.com/esteem-assess/core/internal/survey"
)

// Flag names, in the fixed order checks run.
const (
	FlagSpeeding           = "speeding"
	FlagLongstring         = "longstring"
	FlagInconsistent       = "inconsistent"
	FlagStatisticalOutlier = "statistical_outlier"
	FlagLowVariance        = "low_variance"
)

// Recommendation values, derived from the quality score alone.
const (
	RecommendExcellent  = "excellent"
	RecommendAcceptable = "acceptable"
	RecommendWarning    = "warning"
	RecommendReject     = "reject"
)

// fastAnswerCutoff is the latency below which a single answer counts as
// "too fast to have read the item" (Huang et al. 2012).
const fastAnswerCutoff = 1.0

// minConsistencyLength is the smallest vector the even-odd split gives a
// meaningful correlation for.
const minConsistencyLength = 20

// QualityCheckResult is the screener's verdict for one respondent.
type QualityCheckResult struct {
	IsCareless     bool     `json:"is_careless"`
	Flags          []string `json:"flags"`
	QualityScore   float64  `json:"quality_score"`
	Details        Details  `json:"details"`
	Recommendation string   `json:"recommendation"`
}

// Details carries the per-heuristic diagnostics. Mahalanobis is nil when
// no reference data was supplied.
type Details struct {
	ResponseTime ResponseTimeDetails `json:"response_time"`
	Longstring   LongstringDetails   `json:"longstring"`
	Consistency  ConsistencyDetails  `json:"consistency"`
	Mahalanobis  *MahalanobisDetails `json:"mahalanobis,omitempty"`
	Variance     VarianceDetails     `json:"variance"`
}

// ResponseTimeDetails describes the speeding check.
type ResponseTimeDetails struct {
	AvgTime            float64 `json:"avg_time"`
	MinTime            float64 `json:"min_time"`
	MaxTime            float64 `json:"max_time"`
	MaxConsecutiveFast int     `json:"max_consecutive_fast"`
	FastCount          int     `json:"fast_count"`
	FastRatio          float64 `json:"fast_ratio"`
	Threshold          float64 `json:"threshold"`
	IsFlagged          bool    `json:"is_flagged"`
}

// Streak records one run of identical consecutive responses.
type Streak struct {
	Value      int `json:"value"`
	Length     int `json:"length"`
	StartIndex int `json:"start_index"`
}

// LongstringDetails describes the identical-run check. LongStreaks lists
// every run of length >= 5, flagged or not.
type LongstringDetails struct {
	MaxStreak   int      `json:"max_streak"`
	Threshold   int      `json:"threshold"`
	LongStreaks []Streak `json:"long_streaks"`
	IsFlagged   bool     `json:"is_flagged"`
}

// ConsistencyDetails describes the even-odd correlation check. Computed is
// false when the vector was too short; Note then explains why.
type ConsistencyDetails struct {
	Computed       bool    `json:"computed"`
	Correlation    float64 `json:"correlation"`
	Threshold      float64 `json:"threshold"`
	EvenItemsCount int     `json:"even_items_count,omitempty"`
	OddItemsCount  int     `json:"odd_items_count,omitempty"`
	EvenMean       float64 `json:"even_mean,omitempty"`
	OddMean        float64 `json:"odd_mean,omitempty"`
	Note           string  `json:"note,omitempty"`
	IsFlagged      bool    `json:"is_flagged"`
}

// VarianceDetails describes the low-variance check.
type VarianceDetails struct {
	Variance  float64 `json:"variance"`
	Threshold float64 `json:"threshold"`
	IsFlagged bool    `json:"is_flagged"`
}

// Detector runs the five quality checks. It holds thresholds only; a
// single instance is safe for concurrent use.
type Detector struct {
	cfg config.Screener
}

// NewDetector builds a detector from validated screener thresholds.
func NewDetector(cfg config.Screener) *Detector {
	return &Detector{cfg: cfg}
}

// Analyze runs every applicable check and aggregates the verdict. The
// Mahalanobis check only runs when reference data is supplied; its absence
// does not affect the other four. Input shape violations return a
// *survey.InvalidInputError.
func (d *Detector) Analyze(responses []int, times []float64, reference [][]float64) (*QualityCheckResult, error) {
	if err := survey.ValidateResponses(responses); err != nil {
		return nil, err
	}
	if err := survey.ValidateTimings(responses, times); err != nil {
		return nil, err
	}

	flags := []string{}
	var details Details

	details.ResponseTime = d.checkResponseTime(times)
	if details.ResponseTime.IsFlagged {
		flags = append(flags, FlagSpeeding)
	}

	details.Longstring = d.checkLongstring(responses)
	if details.Longstring.IsFlagged {
		flags = append(flags, FlagLongstring)
	}

	details.Consistency = d.checkConsistency(responses)
	if details.Consistency.IsFlagged {
		flags = append(flags, FlagInconsistent)
	}

	if len(reference) > 0 {
		m := d.checkMahalanobis(responses, reference)
		details.Mahalanobis = &m
		if m.IsFlagged {
			flags = append(flags, FlagStatisticalOutlier)
		}
	}

	details.Variance = d.checkLowVariance(responses)
	if details.Variance.IsFlagged {
		flags = append(flags, FlagLowVariance)
	}

	score := d.qualityScore(details)

	return &QualityCheckResult{
		IsCareless:     len(flags) >= 2,
		Flags:          flags,
		QualityScore:   score,
		Details:        details,
		Recommendation: Recommend(score),
	}, nil
}

// checkResponseTime flags respondents whose mean latency falls under the
// configured minimum, or who answered three or more consecutive items in
// under a second.
func (d *Detector) checkResponseTime(times []float64) ResponseTimeDetails {
	avg, _ := stats.Mean(times)
	min, _ := stats.Min(times)
	max, _ := stats.Max(times)

	consecutiveFast := 0
	maxConsecutiveFast := 0
	fastCount := 0
	for _, t := range times {
		if t < fastAnswerCutoff {
			consecutiveFast++
			fastCount++
			if consecutiveFast > maxConsecutiveFast {
				maxConsecutiveFast = consecutiveFast
			}
		} else {
			consecutiveFast = 0
		}
	}

	isSpeeder := avg < d.cfg.MinTimePerItem || maxConsecutiveFast >= 3

	return ResponseTimeDetails{
		AvgTime:            round2(avg),
		MinTime:            round2(min),
		MaxTime:            round2(max),
		MaxConsecutiveFast: maxConsecutiveFast,
		FastCount:          fastCount,
		FastRatio:          round3(float64(fastCount) / float64(len(times))),
		Threshold:          d.cfg.MinTimePerItem,
		IsFlagged:          isSpeeder,
	}
}

// checkLongstring scans for runs of identical consecutive values. Runs of
// length >= 5 are recorded; the flag fires on the configured threshold.
// The trailing run is closed explicitly after the scan.
func (d *Detector) checkLongstring(responses []int) LongstringDetails {
	maxStreak := 1
	currentStreak := 1
	var streaks []Streak

	for i := 1; i < len(responses); i++ {
		if responses[i] == responses[i-1] {
			currentStreak++
			continue
		}
		if currentStreak >= 5 {
			streaks = append(streaks, Streak{
				Value:      responses[i-1],
				Length:     currentStreak,
				StartIndex: i - currentStreak,
			})
		}
		if currentStreak > maxStreak {
			maxStreak = currentStreak
		}
		currentStreak = 1
	}

	if currentStreak >= 5 {
		streaks = append(streaks, Streak{
			Value:      responses[len(responses)-1],
			Length:     currentStreak,
			StartIndex: len(responses) - currentStreak,
		})
	}
	if currentStreak > maxStreak {
		maxStreak = currentStreak
	}

	return LongstringDetails{
		MaxStreak:   maxStreak,
		Threshold:   d.cfg.LongstringThreshold,
		LongStreaks: streaks,
		IsFlagged:   maxStreak >= d.cfg.LongstringThreshold,
	}
}

// checkConsistency correlates the even- and odd-indexed subsequences.
// Within one attentive session the two halves of a coherent instrument
// should correlate; a near-zero r suggests random responding. A
// zero-variance half yields correlation 0.0, not NaN.
func (d *Detector) checkConsistency(responses []int) ConsistencyDetails {
	if len(responses) < minConsistencyLength {
		return ConsistencyDetails{
			Computed:  false,
			Threshold: d.cfg.CorrelationThreshold,
			Note:      "too few responses for consistency check",
			IsFlagged: false,
		}
	}

	var even, odd []float64
	for i, r := range responses {
		if i%2 == 0 {
			even = append(even, float64(r))
		} else {
			odd = append(odd, float64(r))
		}
	}
	if len(odd) < len(even) {
		even = even[:len(odd)]
	}

	correlation, err := stats.Pearson(even, odd)
	if err != nil || math.IsNaN(correlation) {
		// Zero variance in either half. Treat as fully inconsistent
		// rather than propagating NaN.
		correlation = 0.0
	}
	correlation = round3(correlation)

	evenMean, _ := stats.Mean(even)
	oddMean, _ := stats.Mean(odd)

	return ConsistencyDetails{
		Computed:       true,
		Correlation:    correlation,
		Threshold:      d.cfg.CorrelationThreshold,
		EvenItemsCount: len(even),
		OddItemsCount:  len(odd),
		EvenMean:       round2(evenMean),
		OddMean:        round2(oddMean),
		IsFlagged:      correlation < d.cfg.CorrelationThreshold,
	}
}

// checkLowVariance catches low-spread answer patterns the longstring check
// misses, such as strict alternation between two adjacent values.
func (d *Detector) checkLowVariance(responses []int) VarianceDetails {
	variance, _ := stats.PopulationVariance(toFloats(responses))
	variance = round3(variance)

	return VarianceDetails{
		Variance:  variance,
		Threshold: d.cfg.VarianceThreshold,
		IsFlagged: variance < d.cfg.VarianceThreshold,
	}
}

func toFloats(responses []int) []float64 {
	out := make([]float64, len(responses))
	for i, r := range responses {
		out[i] = float64(r)
	}
	return out
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
func round6(x float64) float64 { return math.Round(x*1e6) / 1e6 }
