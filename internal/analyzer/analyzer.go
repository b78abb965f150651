// Package analyzer decides whether and how a brand is mentioned in a
// provider answer. The primary path asks an AI classifier; every failure
// degrades to a deterministic lexical analysis. Analyze never returns an
// error.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brandlens/brandlens/pkg/models"
)

const (
	substringConfidence = 85
	domainConfidence    = 80
	fuzzyConfidence     = 60
	fuzzyWordThreshold  = 0.7
	excerptFallbackLen  = 200
	maxExcerptLen       = 500
)

// Analyzer analyzes provider answers for brand mentions.
type Analyzer struct {
	classifier models.Provider // nil disables the AI path entirely
	timeout    time.Duration
}

// New creates an Analyzer. The classifier has its own timeout, distinct from
// any retry budget wrapping the providers being analyzed.
func New(classifier models.Provider, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Analyzer{classifier: classifier, timeout: timeout}
}

// Analyze inspects answer for mentions of the brand. A deterministic
// pre-check always runs first; the AI classifier is only consulted when the
// pre-check finds a mention, which keeps negative answers free.
func (a *Analyzer) Analyze(ctx context.Context, answer, brandName, domain string) models.MentionAnalysis {
	pre := precheck(answer, brandName, domain)

	if !pre.Mentioned {
		return models.MentionAnalysis{
			Mentioned:  false,
			Confidence: 0,
			Sentiment:  models.SentimentNeutral,
			Context:    models.ContextIrrelevant,
			Excerpt:    extractExcerpt(answer, brandName, domain),
			Reasoning:  "no brand reference found in answer",
		}
	}

	if a.classifier == nil {
		return a.lexical(answer, brandName, domain, pre, "no classifier configured")
	}

	classifyCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.classifier.Query(classifyCtx, classifierPrompt(answer, brandName, domain))
	if err != nil {
		slog.Warn("mention classifier failed, using lexical fallback",
			"error", err, "brand", brandName)
		return a.lexical(answer, brandName, domain, pre, "classifier call failed")
	}

	parsed, err := parseClassification(raw)
	if err != nil {
		slog.Warn("mention classifier returned unparseable JSON",
			"error", err, "brand", brandName)
		return a.lexical(answer, brandName, domain, pre, "classifier response unparseable")
	}

	return a.merge(parsed, answer, brandName, domain, pre)
}

// preResult is the outcome of the deterministic pre-check.
type preResult struct {
	Mentioned  bool
	Confidence float64
}

func precheck(answer, brandName, domain string) preResult {
	lowAnswer := strings.ToLower(answer)
	lowBrand := strings.ToLower(strings.TrimSpace(brandName))

	var res preResult

	if lowBrand != "" && strings.Contains(lowAnswer, lowBrand) {
		res.Mentioned = true
		res.Confidence = substringConfidence
	}

	if bare := bareDomain(domain); bare != "" && strings.Contains(lowAnswer, bare) {
		res.Mentioned = true
		if res.Confidence < domainConfidence {
			res.Confidence = domainConfidence
		}
	}

	if !res.Mentioned && fuzzyWordMatch(lowAnswer, lowBrand) {
		res.Mentioned = true
		res.Confidence = fuzzyConfidence
	}

	return res
}

// bareDomain strips protocol and www. from a domain string.
func bareDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, "/")
}

// fuzzyWordMatch reports whether at least 70% of the brand's words longer
// than 3 characters appear in the answer.
func fuzzyWordMatch(lowAnswer, lowBrand string) bool {
	var words []string
	for _, w := range strings.Fields(lowBrand) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return false
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(lowAnswer, w) {
			matched++
		}
	}
	return float64(matched)/float64(len(words)) >= fuzzyWordThreshold
}

// lexical is the deterministic fallback: sentiment by keyword vote, context
// defaults to relevant, mentioned/confidence from the pre-check.
func (a *Analyzer) lexical(answer, brandName, domain string, pre preResult, reason string) models.MentionAnalysis {
	return models.MentionAnalysis{
		Mentioned:  pre.Mentioned,
		Confidence: pre.Confidence,
		Sentiment:  lexicalSentiment(answer),
		Context:    models.ContextRelevant,
		Excerpt:    extractExcerpt(answer, brandName, domain),
		Reasoning:  fmt.Sprintf("lexical analysis (%s)", reason),
	}
}

// classification mirrors the classifier's JSON contract. Pointer fields
// distinguish missing from zero.
type classification struct {
	Mentioned  *bool    `json:"mentioned"`
	Confidence *float64 `json:"confidence"`
	Sentiment  string   `json:"sentiment"`
	Context    string   `json:"context"`
	Reasoning  string   `json:"reasoning"`
}

func classifierPrompt(answer, brandName, domain string) string {
	return fmt.Sprintf(`You are a brand mention classifier. Analyze the answer below and respond with ONLY a JSON object, no prose, no markdown fences, with exactly these fields:
{"mentioned": bool, "confidence": number 0-100, "sentiment": "positive"|"negative"|"neutral", "context": "relevant"|"irrelevant"|"partial", "reasoning": string}

Brand: %s
Domain: %s

Answer to analyze:
%s`, brandName, domain, answer)
}

// parseClassification extracts the first JSON object from raw and decodes it.
func parseClassification(raw string) (classification, error) {
	var c classification
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return c, fmt.Errorf("no JSON object in classifier response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &c); err != nil {
		return c, fmt.Errorf("decoding classifier response: %w", err)
	}
	return c, nil
}

// merge validates the classifier output field by field, falling back to the
// pre-check value for anything missing or invalid. Never a hard failure.
func (a *Analyzer) merge(c classification, answer, brandName, domain string, pre preResult) models.MentionAnalysis {
	out := models.MentionAnalysis{
		Mentioned:  pre.Mentioned,
		Confidence: pre.Confidence,
		Sentiment:  lexicalSentiment(answer),
		Context:    models.ContextRelevant,
		Excerpt:    extractExcerpt(answer, brandName, domain),
		Reasoning:  "ai classification",
	}

	if c.Mentioned != nil {
		out.Mentioned = *c.Mentioned
	}
	if c.Confidence != nil && *c.Confidence >= 0 && *c.Confidence <= 100 {
		out.Confidence = *c.Confidence
	}
	if models.ValidSentiment(c.Sentiment) {
		out.Sentiment = c.Sentiment
	}
	if models.ValidContext(c.Context) {
		out.Context = c.Context
	}
	if c.Reasoning != "" {
		out.Reasoning = c.Reasoning
	}
	return out
}

// extractExcerpt returns the first sentence containing the brand name or
// domain, or the first 200 characters when none matches.
func extractExcerpt(answer, brandName, domain string) string {
	lowBrand := strings.ToLower(strings.TrimSpace(brandName))
	bare := bareDomain(domain)

	for _, sentence := range splitSentences(answer) {
		low := strings.ToLower(sentence)
		if (lowBrand != "" && strings.Contains(low, lowBrand)) ||
			(bare != "" && strings.Contains(low, bare)) {
			return truncateString(strings.TrimSpace(sentence), maxExcerptLen)
		}
	}

	return truncateString(strings.TrimSpace(answer), excerptFallbackLen)
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := text[start : i+1]; strings.TrimSpace(s) != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if start < len(text) && strings.TrimSpace(text[start:]) != "" {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
