// Package survey defines the fixed instrument constants and the input
// contract shared by the screening and style-correction packages.
package survey

import "fmt"

const (
	// ScaleMin and ScaleMax bound the Likert scale of the instrument.
	ScaleMin = 1
	ScaleMax = 4

	// DefaultItemCount is the length of the reference instrument. The
	// algorithms themselves work on any length; this is the deployment
	// default enforced at the pipeline boundary.
	DefaultItemCount = 50
)

// RosenbergReverseItems lists the 0-based indices of the reverse-keyed
// items in the reference instrument (Rosenberg negatives plus the
// self-judgment and isolation blocks). Callers pass this explicitly;
// nothing in the core assumes it.
var RosenbergReverseItems = []int{2, 4, 7, 8, 9, 13, 14, 15, 19, 20, 21}

// InvalidInputError reports a violated input precondition. It is returned
// immediately and never recovered locally.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// ValidateResponses checks that the response vector is non-empty and every
// value sits inside the declared Likert range.
func ValidateResponses(responses []int) error {
	if len(responses) == 0 {
		return &InvalidInputError{Field: "responses", Reason: "empty vector"}
	}
	for i, r := range responses {
		if r < ScaleMin || r > ScaleMax {
			return &InvalidInputError{
				Field:  "responses",
				Reason: fmt.Sprintf("value %d at index %d outside scale [%d,%d]", r, i, ScaleMin, ScaleMax),
			}
		}
	}
	return nil
}

// ValidateTimings checks that the timing vector is index-aligned with the
// response vector and contains no negative latencies.
func ValidateTimings(responses []int, times []float64) error {
	if len(times) != len(responses) {
		return &InvalidInputError{
			Field:  "response_times",
			Reason: fmt.Sprintf("length %d does not match responses length %d", len(times), len(responses)),
		}
	}
	for i, t := range times {
		if t < 0 {
			return &InvalidInputError{
				Field:  "response_times",
				Reason: fmt.Sprintf("negative time %.3f at index %d", t, i),
			}
		}
	}
	return nil
}

// ValidateReverseItems checks that every reverse-item index points into a
// vector of length n.
func ValidateReverseItems(reverseItems []int, n int) error {
	for _, idx := range reverseItems {
		if idx < 0 || idx >= n {
			return &InvalidInputError{
				Field:  "reverse_items",
				Reason: fmt.Sprintf("index %d out of bounds [0,%d)", idx, n),
			}
		}
	}
	return nil
}
