package screening

import (
	"math"
	"testing"
)

// twoDimReference spreads 8 rows over the patterns (2,2), (3,3), (2,3)
// and (3,2), giving a full-rank diagonal covariance of 2/7 per item.
func twoDimReference() [][]float64 {
	return [][]float64{
		{2, 2}, {3, 3}, {2, 3}, {3, 2},
		{2, 2}, {3, 3}, {2, 3}, {3, 2},
	}
}

func TestCheckMahalanobis_Outlier(t *testing.T) {
	d := newTestDetector()

	// (4,1) sits 1.5 raw units from the (2.5,2.5) mean on each axis:
	// d2 = 2 * 1.5^2 / (2/7) = 15.75, past the df=2 critical value 13.816.
	details := d.checkMahalanobis([]int{4, 1}, twoDimReference())
	if !details.Computed {
		t.Fatalf("expected computed outcome, got reason %q", details.Reason)
	}
	if !almostEqual(details.DistanceSquared, 15.75) {
		t.Errorf("expected squared distance 15.75, got %f", details.DistanceSquared)
	}
	if !almostEqual(details.Chi2Threshold, 13.816) {
		t.Errorf("expected chi2 threshold 13.816, got %f", details.Chi2Threshold)
	}
	if !details.IsFlagged {
		t.Error("expected outlier flag")
	}
	// p = exp(-15.75/2) for df=2.
	if math.Abs(details.PValue-math.Exp(-7.875)) > 1e-4 {
		t.Errorf("unexpected p-value %g", details.PValue)
	}
}

func TestCheckMahalanobis_TypicalRespondent(t *testing.T) {
	d := newTestDetector()

	// (2,3) is one of the reference patterns itself: d2 = 2*0.25/(2/7) = 1.75.
	details := d.checkMahalanobis([]int{2, 3}, twoDimReference())
	if !details.Computed {
		t.Fatalf("expected computed outcome, got reason %q", details.Reason)
	}
	if !almostEqual(details.DistanceSquared, 1.75) {
		t.Errorf("expected squared distance 1.75, got %f", details.DistanceSquared)
	}
	if details.IsFlagged {
		t.Error("typical respondent must not flag")
	}
	if details.PValue < 0.1 {
		t.Errorf("expected a comfortable p-value, got %g", details.PValue)
	}
}

func TestCheckMahalanobis_DegenerateInputs(t *testing.T) {
	d := newTestDetector()

	cases := []struct {
		name      string
		responses []int
		reference [][]float64
	}{
		{"no reference", []int{2, 3}, nil},
		{"single row", []int{2, 3}, [][]float64{{2, 3}}},
		{"ragged row", []int{2, 3}, [][]float64{{2, 3}, {2, 3, 4}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := d.checkMahalanobis(tc.responses, tc.reference)
			if details.Computed {
				t.Error("expected degenerate outcome")
			}
			if details.IsFlagged {
				t.Error("degenerate outcomes must never flag")
			}
			if details.Reason == "" {
				t.Error("expected a reason")
			}
		})
	}
}

// Identical reference rows give a rank-zero covariance matrix; the check
// must degrade instead of flagging or panicking.
func TestCheckMahalanobis_RankZeroCovariance(t *testing.T) {
	d := newTestDetector()

	reference := [][]float64{{3, 3}, {3, 3}, {3, 3}}
	details := d.checkMahalanobis([]int{1, 4}, reference)
	if details.Computed {
		t.Errorf("expected degenerate outcome, got d2 %f", details.DistanceSquared)
	}
	if details.IsFlagged {
		t.Error("rank-zero reference must never flag")
	}
}

// A singular but non-zero covariance takes the pseudo-inverse path. Two
// rows varying together along one axis leave the orthogonal deviation
// invisible, so the respondent on the mean projects to distance zero.
func TestCheckMahalanobis_SingularCovariancePseudoInverse(t *testing.T) {
	d := newTestDetector()

	reference := [][]float64{{2, 2}, {3, 3}, {2, 2}, {3, 3}}
	details := d.checkMahalanobis([]int{2, 3}, reference)
	if !details.Computed {
		t.Fatalf("expected computed outcome via pseudo-inverse, got reason %q", details.Reason)
	}
	if details.IsFlagged {
		t.Error("respondent on the reference mean must not flag")
	}
}

// Analyze wires the reference matrix through and appends the outlier flag
// after the four unconditional checks.
func TestAnalyze_WithReferenceOutlier(t *testing.T) {
	d := newTestDetector()

	responses := cleanResponses()
	reference := make([][]float64, 8)
	base := twoDimReference()
	for i := range reference {
		row := make([]float64, 50)
		for j := range row {
			row[j] = base[i][j%2]
		}
		reference[i] = row
	}

	result, err := d.Analyze(responses, repeatFloats(3.5, 50), reference)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Details.Mahalanobis == nil {
		t.Fatal("expected mahalanobis details with reference data")
	}
	if hasFlag(result.Flags, FlagStatisticalOutlier) != result.Details.Mahalanobis.IsFlagged {
		t.Errorf("flag list %v disagrees with detail flag %v",
			result.Flags, result.Details.Mahalanobis.IsFlagged)
	}
}
