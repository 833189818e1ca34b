package scoring

import (
	"fmt"
	"strconv"
)

// Verdict is the AI / not-AI decision for one analysis.
type Verdict struct {
	IsAI         bool
	AIPercentage float64
	Threshold    float64
	Label        string
}

// Decide flags media as AI generated when the percentage is strictly above threshold.
func Decide(aiPercentage, threshold float64) Verdict {
	isAI := aiPercentage > threshold

	label := "NO ES IA"
	if isAI {
		label = "ES IA"
	}

	return Verdict{
		IsAI:         isAI,
		AIPercentage: aiPercentage,
		Threshold:    threshold,
		Label:        fmt.Sprintf("%s (%s%%)", label, FormatPercentage(aiPercentage)),
	}
}

// FormatPercentage renders p in its shortest decimal form: 87, 87.5, 3.14.
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
