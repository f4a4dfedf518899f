package scoring

import (
	"math"
	"testing"

	"github.com/esteem-assess/core/internal/survey"
)

func repeatInts(value, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// setItems writes value at the given indices.
func setItems(responses []int, indices []int, value int) {
	for _, i := range indices {
		responses[i] = value
	}
}

func TestRosenbergScore(t *testing.T) {
	responses := repeatInts(1, 50)
	setItems(responses, rosenbergPositive, 4)
	setItems(responses, rosenbergNegative, 1)
	if got := RosenbergScore(responses); got != 40 {
		t.Errorf("ceiling pattern: expected 40, got %d", got)
	}

	responses = repeatInts(4, 50)
	setItems(responses, rosenbergPositive, 1)
	setItems(responses, rosenbergNegative, 4)
	if got := RosenbergScore(responses); got != 10 {
		t.Errorf("floor pattern: expected 10, got %d", got)
	}

	if got := RosenbergScore(repeatInts(3, 50)); got != 25 {
		t.Errorf("all-3s: expected 25, got %d", got)
	}
}

func TestSelfCompassionScore(t *testing.T) {
	// Kind, non-judging, connected: forward facets at 4, reverse facets
	// at 1 (reverse-scored to 4) give the 4.0 ceiling.
	responses := repeatInts(2, 50)
	setItems(responses, selfKindnessItems, 4)
	setItems(responses, selfJudgmentItems, 1)
	setItems(responses, commonHumanityItems, 4)
	setItems(responses, isolationItems, 1)
	if got := SelfCompassionScore(responses); !almostEqual(got, 4.0) {
		t.Errorf("expected 4.0, got %f", got)
	}

	if got := SelfCompassionScore(repeatInts(3, 50)); !almostEqual(got, 2.5) {
		t.Errorf("all-3s: expected 2.5, got %f", got)
	}
}

func TestMindsetScore(t *testing.T) {
	responses := repeatInts(2, 50)
	setItems(responses, fixedMindsetItems, 1)
	setItems(responses, growthMindsetItems, 4)
	if got := MindsetScore(responses); !almostEqual(got, 4.0) {
		t.Errorf("expected 4.0, got %f", got)
	}
}

func TestRelationalScore(t *testing.T) {
	responses := repeatInts(2, 50)
	setItems(responses, dependentItems, 4)
	setItems(responses, independentItems, 1)
	if got := RelationalScore(responses); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestImplicitScore(t *testing.T) {
	responses := repeatInts(2, 50)
	setItems(responses, implicitItems, 4)

	// Steady timings on the last ten items: consistency 5 - 0/2 = 5,
	// blended with the implicit mean of 4 gives 4.5.
	times := make([]float64, 50)
	for i := range times {
		times[i] = 3.0
	}
	if got := ImplicitScore(responses, times); !almostEqual(got, 4.5) {
		t.Errorf("steady timings: expected 4.5, got %f", got)
	}

	// Without timings the stability term is the 3.0 midpoint.
	if got := ImplicitScore(responses, nil); !almostEqual(got, 3.5) {
		t.Errorf("no timings: expected 3.5, got %f", got)
	}

	// A 4-second spread over the tail halves the stability term.
	times[49] = 7.0
	if got := ImplicitScore(responses, times); !almostEqual(got, 3.5) {
		t.Errorf("erratic timings: expected 3.5, got %f", got)
	}
}

func TestClassifyEsteemType(t *testing.T) {
	tests := []struct {
		rosenberg      int
		selfCompassion float64
		want           string
	}{
		{15, 2.0, TypeVulnerable},
		{15, 2.5, TypeCompassionateGrower},
		{19, 2.49, TypeVulnerable},
		{20, 2.9, TypeDevelopingCritic},
		{25, 3.0, TypeDevelopingBalanced},
		{29, 3.5, TypeDevelopingBalanced},
		{30, 3.4, TypeStableRigid},
		{30, 3.5, TypeThriving},
		{40, 4.0, TypeThriving},
	}

	for _, tt := range tests {
		if got := ClassifyEsteemType(tt.rosenberg, tt.selfCompassion); got != tt.want {
			t.Errorf("ClassifyEsteemType(%d, %.2f) = %q, want %q",
				tt.rosenberg, tt.selfCompassion, got, tt.want)
		}
	}
}

func TestAnalyzeProfile(t *testing.T) {
	profile, err := AnalyzeProfile(repeatInts(3, 50), nil)
	if err != nil {
		t.Fatalf("AnalyzeProfile failed: %v", err)
	}

	if profile.Scores.Rosenberg != 25 {
		t.Errorf("expected rosenberg 25, got %d", profile.Scores.Rosenberg)
	}
	if profile.Scores.RosenbergMax != RosenbergMax {
		t.Errorf("expected rosenberg_max %d, got %d", RosenbergMax, profile.Scores.RosenbergMax)
	}
	if !almostEqual(profile.Scores.SelfCompassion, 2.5) {
		t.Errorf("expected self-compassion 2.5, got %f", profile.Scores.SelfCompassion)
	}
	if profile.EsteemType != TypeDevelopingCritic {
		t.Errorf("expected %q, got %q", TypeDevelopingCritic, profile.EsteemType)
	}

	if got := profile.Dimensions["esteem_stability"]; !almostEqual(got, 6.3) {
		t.Errorf("expected esteem_stability 6.3, got %f", got)
	}
	if got := profile.Dimensions["self_compassion"]; !almostEqual(got, 5.0) {
		t.Errorf("expected self_compassion 5.0, got %f", got)
	}
	if len(profile.Dimensions) != 5 {
		t.Errorf("expected 5 dimensions, got %d", len(profile.Dimensions))
	}
}

func TestAnalyzeProfile_Thriving(t *testing.T) {
	responses := repeatInts(2, 50)
	setItems(responses, rosenbergPositive, 4)
	setItems(responses, rosenbergNegative, 1)
	setItems(responses, selfKindnessItems, 4)
	setItems(responses, selfJudgmentItems, 1)
	setItems(responses, commonHumanityItems, 4)
	setItems(responses, isolationItems, 1)

	profile, err := AnalyzeProfile(responses, nil)
	if err != nil {
		t.Fatalf("AnalyzeProfile failed: %v", err)
	}

	if profile.Scores.Rosenberg != 40 {
		t.Errorf("expected rosenberg 40, got %d", profile.Scores.Rosenberg)
	}
	if !almostEqual(profile.Scores.SelfCompassion, 4.0) {
		t.Errorf("expected self-compassion 4.0, got %f", profile.Scores.SelfCompassion)
	}
	if profile.EsteemType != TypeThriving {
		t.Errorf("expected %q, got %q", TypeThriving, profile.EsteemType)
	}
}

func TestAnalyzeProfile_InvalidInput(t *testing.T) {
	cases := []struct {
		name      string
		responses []int
		times     []float64
	}{
		{"short vector", repeatInts(3, 20), nil},
		{"out of range", append(repeatInts(3, 49), 9), nil},
		{"timing length mismatch", repeatInts(3, 50), []float64{1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AnalyzeProfile(tc.responses, tc.times)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if _, ok := err.(*survey.InvalidInputError); !ok {
				t.Errorf("expected *survey.InvalidInputError, got %T", err)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}
