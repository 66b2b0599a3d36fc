package engine

import (
	"regexp"
	"strings"
)

// UnknownMerchant is the grouping key used when a transaction carries
// no usable description.
const UnknownMerchant = "UNKNOWN MERCHANT"

var (
	// Payment processor prefixes like "PAYPAL *SPOTIFY" or "SQ *COFFEE CO".
	processorPrefixRe = regexp.MustCompile(`^(PAYPAL|SQ|STRIPE|TST|GOOGLE|AMZN)\s*\*\s*`)
	// Date-like fragments (DD/MM or MM/DD) embedded in descriptions.
	dateFragmentRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(/\d{2,4})?\b`)
	// Long numeric runs: card fragments, reference numbers, store ids.
	numericRunRe = regexp.MustCompile(`\d{4,}`)
	// Web suffixes glued to brand names ("NETFLIX.COM").
	webSuffixRe = regexp.MustCompile(`\.(COM|NET|ORG|CO|IO|TV)\b`)
	// Legal entity suffixes and generic payment nouns carry no grouping signal.
	noiseWordRe  = regexp.MustCompile(`\b(INC|LLC|CORP|LTD|CO|PAYMENT|BILL|SUBSCRIPTION|AUTOPAY|RECURRING|PURCHASE)\b`)
	punctRe      = regexp.MustCompile(`[*#.,:;/\\_-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeMerchant canonicalizes a free-text transaction description
// into a stable grouping key. It is pure and deterministic: distinct
// display variants of the same merchant ("NETFLIX.COM 4521",
// "NETFLIX AUTOPAY") must collapse to the same key, otherwise grouping
// falls apart.
func NormalizeMerchant(description string) string {
	s := strings.ToUpper(strings.TrimSpace(description))
	if s == "" {
		return UnknownMerchant
	}

	s = processorPrefixRe.ReplaceAllString(s, "")
	s = webSuffixRe.ReplaceAllString(s, "")
	s = dateFragmentRe.ReplaceAllString(s, " ")
	s = numericRunRe.ReplaceAllString(s, " ")
	s = noiseWordRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))

	if s == "" {
		return UnknownMerchant
	}
	return s
}
