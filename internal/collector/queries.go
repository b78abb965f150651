package collector

import (
	"fmt"
	"strings"

	"github.com/brandlens/brandlens/pkg/models"
)

// BuildQueries returns the probe questions for a brand: either the single
// custom query, or the fixed contextual template library interpolating the
// brand name, domain, an industry guess, and the optional disambiguation
// context.
func BuildQueries(brand *models.Brand, customQuery string) []string {
	if q := strings.TrimSpace(customQuery); q != "" {
		return []string{q}
	}

	name := brand.Name
	industry := guessIndustry(brand.Domain)

	queries := []string{
		fmt.Sprintf("What do you know about %s?", name),
		fmt.Sprintf("Tell me about %s and what they offer.", name),
		fmt.Sprintf("Is %s a trustworthy company?", name),
		fmt.Sprintf("What are the best alternatives to %s?", name),
		fmt.Sprintf("Can you recommend companies similar to %s (%s)?", name, brand.Domain),
		fmt.Sprintf("What are the leading companies in %s?", industry),
		fmt.Sprintf("How does %s compare to its competitors?", name),
		fmt.Sprintf("Would you recommend %s for a %s project?", name, industry),
	}

	if ctx := strings.TrimSpace(brand.Context); ctx != "" {
		for i, q := range queries {
			queries[i] = fmt.Sprintf("%s (%s)", q, ctx)
		}
	}

	return queries
}

// industry keywords checked against the brand domain, first match wins.
var industryHints = []struct {
	keyword  string
	industry string
}{
	{"shop", "e-commerce"},
	{"store", "e-commerce"},
	{"bank", "financial services"},
	{"fin", "financial services"},
	{"pay", "financial services"},
	{"health", "healthcare"},
	{"med", "healthcare"},
	{"edu", "education"},
	{"learn", "education"},
	{"travel", "travel"},
	{"food", "food and beverage"},
	{".ai", "technology"},
	{".io", "technology"},
	{".dev", "technology"},
	{"tech", "technology"},
	{"soft", "technology"},
	{"cloud", "technology"},
}

func guessIndustry(domain string) string {
	d := strings.ToLower(domain)
	for _, hint := range industryHints {
		if strings.Contains(d, hint.keyword) {
			return hint.industry
		}
	}
	return "this industry"
}
