package engine

import "strings"

// categoryRule binds one display category to the keywords that imply
// it. The table is pure data so it can grow without touching detection
// logic; it is iterated in declaration order and the first match wins.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"Music", []string{"spotify", "apple music", "tidal", "deezer", "soundcloud", "pandora"}},
	{"Entertainment", []string{"netflix", "hulu", "disney", "hbo", "paramount", "peacock", "crunchyroll", "youtube", "twitch", "cinema"}},
	{"Software", []string{"adobe", "microsoft", "office", "github", "jetbrains", "notion", "slack", "zoom", "figma", "openai", "anthropic"}},
	{"Cloud Storage", []string{"dropbox", "icloud", "google one", "onedrive", "backblaze"}},
	{"Health & Fitness", []string{"gym", "fitness", "peloton", "strava", "myfitnesspal", "headspace", "calm", "yoga"}},
	{"News & Reading", []string{"times", "post", "medium", "substack", "kindle", "audible", "economist", "journal"}},
	{"Gaming", []string{"playstation", "xbox", "nintendo", "steam", "ea play"}},
	{"Food & Drink", []string{"hellofresh", "blue apron", "gousto", "coffee club"}},
	{"Telecom", []string{"vodafone", "t-mobile", "verizon", "at&t", "mobile", "telecom", "broadband"}},
	{"Utilities", []string{"electric", "energy", "water", "gas", "utility"}},
	{"Insurance", []string{"insurance", "insur", "mutual"}},
	{"Education", []string{"coursera", "udemy", "skillshare", "masterclass", "duolingo"}},
}

// CategoryOther is returned when no keyword matches.
const CategoryOther = "Other"

// Categorize maps a merchant name to a human-facing category by
// case-insensitive substring lookup against the keyword table.
func Categorize(merchantName string) string {
	name := strings.ToLower(merchantName)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// subscriptionKeywords are merchant fragments strongly associated with
// subscription services, reused by the confidence scorer as a bonus
// signal on top of the statistical checks.
var subscriptionKeywords = func() []string {
	var kws []string
	for _, rule := range categoryRules {
		kws = append(kws, rule.keywords...)
	}
	return kws
}()

// recurringHints are weaker generic markers of recurring billing.
var recurringHints = []string{"member", "premium", "plan", "plus", "pro", "club"}

// keywordBonus returns the confidence bonus for a merchant key: the
// full bonus for a known subscription brand, a smaller one for generic
// recurring-billing wording, zero otherwise.
func keywordBonus(normalizedKey string) int {
	key := strings.ToLower(normalizedKey)
	for _, kw := range subscriptionKeywords {
		if strings.Contains(key, kw) {
			return 20
		}
	}
	for _, hint := range recurringHints {
		if strings.Contains(key, hint) {
			return 15
		}
	}
	return 0
}
