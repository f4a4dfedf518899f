package screening

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MahalanobisDetails is the tagged outcome of the statistical-outlier
// check: Computed with the distance statistics, or degenerate with a
// Reason. Degenerate outcomes never fire the flag and never surface as
// errors; this check is best-effort and optional.
type MahalanobisDetails struct {
	Computed        bool    `json:"computed"`
	Distance        float64 `json:"distance,omitempty"`
	DistanceSquared float64 `json:"distance_squared,omitempty"`
	Chi2Threshold   float64 `json:"chi2_threshold,omitempty"`
	PValue          float64 `json:"p_value"`
	Reason          string  `json:"reason,omitempty"`
	IsFlagged       bool    `json:"is_flagged"`
}

func degenerateOutcome(reason string) MahalanobisDetails {
	return MahalanobisDetails{Computed: false, Reason: reason}
}

// checkMahalanobis measures how atypical the vector is relative to a
// reference population, as a squared Mahalanobis distance compared against
// the chi-squared critical value at the configured p threshold.
func (d *Detector) checkMahalanobis(responses []int, reference [][]float64) MahalanobisDetails {
	rows := len(reference)
	dim := len(responses)
	if rows < 2 {
		return degenerateOutcome(fmt.Sprintf("reference data needs at least 2 rows, got %d", rows))
	}

	flat := make([]float64, 0, rows*dim)
	for i, row := range reference {
		if len(row) != dim {
			return degenerateOutcome(fmt.Sprintf("reference row %d has length %d, want %d", i, len(row), dim))
		}
		flat = append(flat, row...)
	}
	ref := mat.NewDense(rows, dim, flat)

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, ref, nil)

	inv, err := invertCovariance(&cov)
	if err != nil {
		return degenerateOutcome(err.Error())
	}

	diff := mat.NewVecDense(dim, nil)
	col := make([]float64, rows)
	for j := 0; j < dim; j++ {
		mean := stat.Mean(mat.Col(col, j, ref), nil)
		diff.SetVec(j, float64(responses[j])-mean)
	}

	var tmp mat.VecDense
	tmp.MulVec(inv, diff)
	d2 := mat.Dot(diff, &tmp)
	if math.IsNaN(d2) || d2 < 0 {
		return degenerateOutcome(fmt.Sprintf("squared distance %g is not a usable statistic", d2))
	}

	chi := distuv.ChiSquared{K: float64(dim)}
	critical := chi.Quantile(1 - d.cfg.MahalanobisPThreshold)
	pValue := 1 - chi.CDF(d2)

	return MahalanobisDetails{
		Computed:        true,
		Distance:        round3(math.Sqrt(d2)),
		DistanceSquared: round3(d2),
		Chi2Threshold:   round3(critical),
		PValue:          round6(pValue),
		IsFlagged:       d2 > critical,
	}
}

// invertCovariance inverts cov directly, falling back to an SVD
// pseudo-inverse when the matrix is singular. Covariance from a reference
// set with fewer rows than items is always rank-deficient, so the fallback
// is the common path on sparse reference data.
func invertCovariance(cov *mat.SymDense) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(cov); err == nil {
		return &inv, nil
	}
	return pseudoInverse(cov)
}

func pseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("covariance SVD did not converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	maxSigma := 0.0
	for _, s := range values {
		if s > maxSigma {
			maxSigma = s
		}
	}
	if maxSigma == 0 {
		return nil, fmt.Errorf("covariance matrix has rank zero")
	}

	r, c := a.Dims()
	larger := r
	if c > larger {
		larger = c
	}
	tol := 1e-15 * float64(larger) * maxSigma

	k := len(values)
	sigmaInv := mat.NewDense(k, k, nil)
	for i, s := range values {
		if s > tol {
			sigmaInv.Set(i, i, 1/s)
		}
	}

	var tmp, pinv mat.Dense
	tmp.Mul(&v, sigmaInv)
	pinv.Mul(&tmp, u.T())
	return &pinv, nil
}
