// Package pipeline chains the quality screener, the style corrector and
// the profile scorer into the single assessment flow the delivery layers
// consume: screen, gate on a hard reject, correct, then score the
// corrected vector.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/esteem-assess/core/internal/config"
	"github.com/esteem-assess/core/internal/scoring"
	"github.com/esteem-assess/core/internal/screening"
	"github.com/esteem-assess/core/internal/styles"
	"github.com/esteem-assess/core/internal/survey"
)

// Assessment statuses. A warning-band screening verdict completes the
// flow but surfaces as StatusWarning so callers can caveat the result.
const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
	StatusWarning = "warning"
)

// Messages accompanying the completed statuses.
const (
	successMessage = "Assessment completed successfully."
	warningMessage = "Assessment completed, but your response quality had some issues."
)

// ReferenceSource supplies the prior-respondent matrix for the
// statistical-outlier check. The matrix is read-only and may be shared
// across concurrent assessments. A nil source skips the check.
type ReferenceSource interface {
	LoadMatrix(ctx context.Context, itemCount int) ([][]float64, error)
}

// Request is one respondent's submission. A nil ReverseItems falls back to
// the instrument default; an explicitly empty slice disables acquiescence
// detection.
type Request struct {
	UserID        string    `json:"user_id"`
	Responses     []int     `json:"responses"`
	ResponseTimes []float64 `json:"response_times"`
	ReverseItems  []int     `json:"reverse_items"`
}

// Result is the assessment verdict handed to delivery layers. Correction
// and Profile are nil when the screener rejected the submission.
type Result struct {
	UserID     string                        `json:"user_id"`
	Status     string                        `json:"status"`
	Message    string                        `json:"message,omitempty"`
	Quality    *screening.QualityCheckResult `json:"data_quality"`
	Correction *styles.CorrectionResult      `json:"style_corrections,omitempty"`
	Profile    *scoring.Profile              `json:"profile,omitempty"`
	Timestamp  string                        `json:"timestamp"`
}

// Assessor runs the full screen-correct-score flow. Construct once and
// reuse; it holds no per-call state.
type Assessor struct {
	itemCount int
	detector  *screening.Detector
	corrector *styles.Corrector
	refs      ReferenceSource
}

// NewAssessor builds an assessor from a validated configuration. refs may
// be nil when no reference population is available.
func NewAssessor(cfg config.Config, refs ReferenceSource) *Assessor {
	return &Assessor{
		itemCount: cfg.ItemCount,
		detector:  screening.NewDetector(cfg.Screener),
		corrector: styles.NewCorrector(cfg.Styles),
		refs:      refs,
	}
}

// Assess validates the submission shape, screens it, and unless the
// screener hard-rejects, corrects the vector and scores the corrected
// responses. Input contract violations return *survey.InvalidInputError.
func (a *Assessor) Assess(ctx context.Context, req Request) (*Result, error) {
	if len(req.Responses) != a.itemCount {
		return nil, &survey.InvalidInputError{
			Field:  "responses",
			Reason: fmt.Sprintf("expected %d items, got %d", a.itemCount, len(req.Responses)),
		}
	}

	reference := a.loadReference(ctx)

	quality, err := a.detector.Analyze(req.Responses, req.ResponseTimes, reference)
	if err != nil {
		return nil, err
	}

	now := time.Now().Format(time.RFC3339)

	if quality.Recommendation == screening.RecommendReject {
		return &Result{
			UserID:    req.UserID,
			Status:    StatusInvalid,
			Message:   screening.WarningMessage(quality),
			Quality:   quality,
			Timestamp: now,
		}, nil
	}

	reverseItems := req.ReverseItems
	if reverseItems == nil {
		reverseItems = survey.RosenbergReverseItems
	}

	correction, err := a.corrector.Correct(req.Responses, reverseItems)
	if err != nil {
		return nil, err
	}

	status, message := StatusSuccess, successMessage
	if quality.Recommendation == screening.RecommendWarning {
		status, message = StatusWarning, warningMessage
	}

	result := &Result{
		UserID:     req.UserID,
		Status:     status,
		Message:    message,
		Quality:    quality,
		Correction: correction,
		Timestamp:  now,
	}

	// Profile scoring only applies to the full reference instrument.
	if a.itemCount == survey.DefaultItemCount {
		profile, err := scoring.AnalyzeProfile(correction.CorrectedResponses, req.ResponseTimes)
		if err != nil {
			return nil, err
		}
		result.Profile = profile
	}

	return result, nil
}

// loadReference fetches the reference matrix when a source is wired. The
// outlier check is best-effort: a failing source is logged and skipped so
// the other four checks still run.
func (a *Assessor) loadReference(ctx context.Context) [][]float64 {
	if a.refs == nil {
		return nil
	}
	reference, err := a.refs.LoadMatrix(ctx, a.itemCount)
	if err != nil {
		log.Printf("WARN: reference data unavailable: %v — skipping outlier check", err)
		return nil
	}
	return reference
}
