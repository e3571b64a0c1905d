// Package category provides canonical reading categories and alias
// normalization for the values clients file articles under.
package category

import "github.com/keepstackapp/keepstack-server/internal/normalize"

// aliases maps common variations to canonical category slugs.
var aliases = map[string]string{
	// Technology variations
	"tech":                    "technology",
	"software":                "programming",
	"software-engineering":    "programming",
	"coding":                  "programming",
	"dev":                     "programming",
	"development":             "programming",
	"ai":                      "machine-learning",
	"ml":                      "machine-learning",
	"artificial-intelligence": "machine-learning",

	// Business variations
	"startup":   "business",
	"startups":  "business",
	"finance":   "business",
	"money":     "business",
	"economics": "business",

	// Science variations
	"physics":   "science",
	"biology":   "science",
	"chemistry": "science",
	"space":     "science",

	// Culture variations
	"art":    "culture",
	"arts":   "culture",
	"film":   "culture",
	"movies": "culture",
	"music":  "culture",
	"books":  "culture",

	// News variations
	"current-events": "news",
	"politics":       "news",
	"world":          "news",

	// Health variations
	"fitness":   "health",
	"wellness":  "health",
	"nutrition": "health",
	"medicine":  "health",

	// Misc
	"essay":        "essays",
	"longform":     "essays",
	"long-form":    "essays",
	"howto":        "guides",
	"how-to":       "guides",
	"tutorial":     "guides",
	"tutorials":    "guides",
	"reference":    "guides",
	"self-help":    "personal-development",
	"productivity": "personal-development",
	"psychology":   "personal-development",
	"philosophy":   "essays",
	"biography":    "history",
	"cooking":      "food",
	"recipes":      "food",
	"sport":        "sports",
	"gaming":       "games",
	"videogames":   "games",
	"video-games":  "games",
}

// Default is the built-in category list. Users are free to file articles
// under anything else; these cover what clients offer as suggestions.
var Default = []string{
	"technology",
	"programming",
	"machine-learning",
	"science",
	"business",
	"culture",
	"news",
	"health",
	"essays",
	"guides",
	"personal-development",
	"history",
	"travel",
	"food",
	"sports",
	"games",
}

// Canonicalize maps free-form category input to its canonical slug.
// Unknown categories pass through slugified, so users can invent their own.
// Empty input stays empty.
func Canonicalize(input string) string {
	slug := normalize.TagSlug(input)
	if slug == "" {
		return ""
	}
	if canonical, ok := aliases[slug]; ok {
		return canonical
	}
	return slug
}

// IsDefault reports whether slug is one of the built-in categories.
func IsDefault(slug string) bool {
	for _, d := range Default {
		if d == slug {
			return true
		}
	}
	return false
}
