package models

// Sentiment values for a brand mention.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Mention context values.
const (
	ContextRelevant   = "relevant"
	ContextIrrelevant = "irrelevant"
	ContextPartial    = "partial"
)

// MentionAnalysis is the outcome of analyzing one provider answer for a brand.
// Confidence is a 0-100 percentage.
type MentionAnalysis struct {
	Mentioned  bool    `json:"mentioned"`
	Confidence float64 `json:"confidence"`
	Sentiment  string  `json:"sentiment"`
	Context    string  `json:"context"`
	Excerpt    string  `json:"excerpt"`
	Reasoning  string  `json:"reasoning"`
}

// ValidSentiment reports whether s is one of the sentiment enum values.
func ValidSentiment(s string) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// ValidContext reports whether c is one of the mention context enum values.
func ValidContext(c string) bool {
	return c == ContextRelevant || c == ContextIrrelevant || c == ContextPartial
}
