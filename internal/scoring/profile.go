// Package scoring turns a validated, bias-corrected response vector into
// the downstream self-esteem profile: the Rosenberg score, the four
// supplemental sub-scores and the categorical esteem type.
package scoring

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/esteem-assess/core/internal/survey"
)

// Item index maps for the 50-item reference instrument (0-based).
var (
	rosenbergPositive = []int{0, 1, 3, 5, 6}
	rosenbergNegative = []int{2, 4, 7, 8, 9}

	selfKindnessItems   = []int{10, 11, 12}
	selfJudgmentItems   = []int{13, 14, 15} // reverse-scored
	commonHumanityItems = []int{16, 17, 18}
	isolationItems      = []int{19, 20, 21} // reverse-scored

	fixedMindsetItems  = []int{22, 23, 24, 25} // reverse-scored
	growthMindsetItems = []int{26, 27, 28, 29}

	dependentItems   = []int{30, 31, 32, 33, 34} // reverse-scored
	independentItems = []int{35, 36, 37, 38, 39}

	implicitItems = []int{40, 41, 42, 43, 44, 45, 46, 47, 48, 49}
)

// RosenbergMax is the highest attainable Rosenberg score on this scoring.
const RosenbergMax = 40

// Esteem type classifications.
const (
	TypeVulnerable          = "vulnerable"
	TypeCompassionateGrower = "compassionate_grower"
	TypeDevelopingCritic    = "developing_critic"
	TypeDevelopingBalanced  = "developing_balanced"
	TypeThriving            = "thriving"
	TypeStableRigid         = "stable_rigid"
)

// Scores holds the raw sub-scores of one profile.
type Scores struct {
	Rosenberg      int     `json:"rosenberg"`
	RosenbergMax   int     `json:"rosenberg_max"`
	SelfCompassion float64 `json:"self_compassion"`
	Mindset        float64 `json:"mindset"`
	Relational     float64 `json:"relational"`
	Implicit       float64 `json:"implicit"`
}

// Profile is the full multi-dimension analysis of one respondent.
// Dimensions rescales every sub-score onto 0-10 for presentation.
type Profile struct {
	Scores     Scores             `json:"scores"`
	EsteemType string             `json:"esteem_type"`
	Dimensions map[string]float64 `json:"dimensions"`
}

// RosenbergScore sums the positive Rosenberg items and the reverse-scored
// negative items. Range 10-40 on the 1-4 scale; higher is higher esteem.
func RosenbergScore(responses []int) int {
	score := 0
	for _, i := range rosenbergPositive {
		score += responses[i]
	}
	for _, i := range rosenbergNegative {
		score += 5 - responses[i]
	}
	return score
}

// SelfCompassionScore averages the four self-compassion facets, with the
// self-judgment and isolation blocks reverse-scored.
func SelfCompassionScore(responses []int) float64 {
	kindness := meanOf(responses, selfKindnessItems, false)
	judgment := meanOf(responses, selfJudgmentItems, true)
	humanity := meanOf(responses, commonHumanityItems, false)
	isolation := meanOf(responses, isolationItems, true)
	return (kindness + judgment + humanity + isolation) / 4
}

// MindsetScore averages the reverse-scored fixed-mindset block against the
// growth block.
func MindsetScore(responses []int) float64 {
	fixed := meanOf(responses, fixedMindsetItems, true)
	growth := meanOf(responses, growthMindsetItems, false)
	return (fixed + growth) / 2
}

// RelationalScore measures independence of self-worth from others, with
// the dependence block reverse-scored.
func RelationalScore(responses []int) float64 {
	dependent := meanOf(responses, dependentItems, true)
	independent := meanOf(responses, independentItems, false)
	return (dependent + independent) / 2
}

// ImplicitScore blends the implicit-item mean with a latency-stability
// term over the last ten response times. Without usable timings the
// stability term defaults to the scale midpoint.
func ImplicitScore(responses []int, times []float64) float64 {
	consistency := 3.0
	if len(times) >= 10 {
		tail := times[len(times)-10:]
		maxT, _ := stats.Max(tail)
		minT, _ := stats.Min(tail)
		consistency = 5.0 - (maxT-minT)/2
	}
	avg := meanOf(responses, implicitItems, false)
	return (consistency + avg) / 2
}

// ClassifyEsteemType buckets a Rosenberg score by level and splits each
// level on self-compassion.
func ClassifyEsteemType(rosenberg int, selfCompassion float64) string {
	switch {
	case rosenberg < 20:
		if selfCompassion < 2.5 {
			return TypeVulnerable
		}
		return TypeCompassionateGrower
	case rosenberg < 30:
		if selfCompassion < 3.0 {
			return TypeDevelopingCritic
		}
		return TypeDevelopingBalanced
	default:
		if selfCompassion >= 3.5 {
			return TypeThriving
		}
		return TypeStableRigid
	}
}

// AnalyzeProfile computes the full profile. The vector must cover the
// whole reference instrument; times may be nil.
func AnalyzeProfile(responses []int, times []float64) (*Profile, error) {
	if err := survey.ValidateResponses(responses); err != nil {
		return nil, err
	}
	if len(responses) != survey.DefaultItemCount {
		return nil, &survey.InvalidInputError{
			Field:  "responses",
			Reason: fmt.Sprintf("profile scoring needs the full %d-item instrument, got %d", survey.DefaultItemCount, len(responses)),
		}
	}
	if times != nil {
		if err := survey.ValidateTimings(responses, times); err != nil {
			return nil, err
		}
	}

	rosenberg := RosenbergScore(responses)
	selfCompassion := SelfCompassionScore(responses)
	mindset := MindsetScore(responses)
	relational := RelationalScore(responses)
	implicit := ImplicitScore(responses, times)

	return &Profile{
		Scores: Scores{
			Rosenberg:      rosenberg,
			RosenbergMax:   RosenbergMax,
			SelfCompassion: round2(selfCompassion),
			Mindset:        round2(mindset),
			Relational:     round2(relational),
			Implicit:       round2(implicit),
		},
		EsteemType: ClassifyEsteemType(rosenberg, selfCompassion),
		Dimensions: map[string]float64{
			"esteem_stability":        round1(float64(rosenberg) / 4),
			"self_compassion":         round1(selfCompassion * 2),
			"growth_mindset":          round1(mindset * 2),
			"relational_independence": round1(relational * 2),
			"implicit_esteem":         round1(implicit * 2),
		},
	}, nil
}

// meanOf averages the responses at the given indices, reverse-scoring
// with the standard 5-x transform when reversed is set.
func meanOf(responses []int, indices []int, reversed bool) float64 {
	sum := 0
	for _, i := range indices {
		if reversed {
			sum += 5 - responses[i]
		} else {
			sum += responses[i]
		}
	}
	return float64(sum) / float64(len(indices))
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
