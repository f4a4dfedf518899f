package styles

// Interpretation levels.
const (
	LevelNormal   = "normal"
	LevelHigh     = "high"
	LevelVeryHigh = "very_high"
)

// Interpretation is the advisory reading of one style score: a qualitative
// level with guidance text. Presentation only, no effect on correction.
type Interpretation struct {
	Level          string `json:"level"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Interpret maps the numeric style scores onto qualitative levels with
// respondent-facing guidance. Acquiescence is omitted from the result when
// its score was never computed.
func Interpret(scores StyleScores) map[string]Interpretation {
	out := make(map[string]Interpretation, 3)

	switch ers := scores.ExtremeResponding; {
	case ers > 0.8:
		out["extreme_responding"] = Interpretation{
			Level:          LevelVeryHigh,
			Message:        "You answered almost every question at the extremes (1 or 4).",
			Recommendation: "Consider whether a middle answer sometimes fits better.",
		}
	case ers > 0.6:
		out["extreme_responding"] = Interpretation{
			Level:          LevelHigh,
			Message:        "You answered many questions at the extremes.",
			Recommendation: "Try choosing 2 or 3 on some questions.",
		}
	default:
		out["extreme_responding"] = Interpretation{
			Level:   LevelNormal,
			Message: "Your extreme-response tendency is within the normal range.",
		}
	}

	switch mrs := scores.MidpointResponding; {
	case mrs > 0.8:
		out["midpoint_responding"] = Interpretation{
			Level:          LevelVeryHigh,
			Message:        "You answered mostly 2 or 3.",
			Recommendation: "If you feel strongly, choosing 1 or 4 is fine.",
		}
	case mrs > 0.6:
		out["midpoint_responding"] = Interpretation{
			Level:          LevelHigh,
			Message:        "You chose middle answers often.",
			Recommendation: "When you have a clear opinion, the endpoints are there for it.",
		}
	default:
		out["midpoint_responding"] = Interpretation{
			Level:   LevelNormal,
			Message: "Your midpoint-response tendency is within the normal range.",
		}
	}

	if scores.Acquiescence != nil {
		if *scores.Acquiescence > 0.7 {
			out["acquiescence"] = Interpretation{
				Level:          LevelHigh,
				Message:        "You tend to agree regardless of what the question asks.",
				Recommendation: "Read reverse-worded questions carefully before answering.",
			}
		} else {
			out["acquiescence"] = Interpretation{
				Level:   LevelNormal,
				Message: "Your acquiescence tendency is within the normal range.",
			}
		}
	}

	return out
}
