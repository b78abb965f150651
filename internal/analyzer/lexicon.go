package analyzer

import "strings"

var positiveWords = []string{
	"recommend", "excellent", "great", "best", "reliable", "trusted",
	"leading", "popular", "innovative", "strong", "quality", "top",
}

var negativeWords = []string{
	"avoid", "poor", "bad", "worst", "unreliable", "scam",
	"complaint", "negative", "weak", "outdated", "expensive", "problem",
}

// lexicalSentiment scores the answer against small positive/negative keyword
// lists; majority vote decides, ties are neutral.
func lexicalSentiment(answer string) string {
	low := strings.ToLower(answer)

	positive, negative := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(low, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(low, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}
