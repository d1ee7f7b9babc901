// Package phone validates Kenyan guardian phone numbers and normalizes them to the local 0XXXXXXXXX form.
package phone

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason tells why a number was rejected.
type Reason string

const (
	ReasonEmpty             Reason = "empty"
	ReasonTooShort          Reason = "too_short"
	ReasonTooLong           Reason = "too_long"
	ReasonInvalidCharacters Reason = "invalid_characters"
	ReasonInvalidFormat     Reason = "invalid_format"
)

const countryCode = "254"

var reasonTexts = map[Reason]string{
	ReasonEmpty:             "phone number is empty",
	ReasonTooShort:          "phone number is too short",
	ReasonTooLong:           "phone number is too long",
	ReasonInvalidCharacters: "phone number contains invalid characters",
	ReasonInvalidFormat:     "invalid phone number format",
}

type Error struct {
	Reason Reason
	Input  string
}

func (err Error) Error() string {
	return reasonTexts[err.Reason]
}

func reject(reason Reason, raw string) error {
	return &Error{Reason: reason, Input: raw}
}

// Rules is a versioned table of the subscriber digits accepted after the trunk/country prefix.
type Rules struct {
	Version       string
	MobileDigits  string // digits opening a mobile number
	LandlineFirst byte
	LandlineLast  byte
}

var (
	// RulesV1 accepts landlines 02-09 (bulk upload rules).
	RulesV1 = Rules{Version: "v1", MobileDigits: "17", LandlineFirst: '2', LandlineLast: '9'}

	// RulesV2 only accepts the allocated landline area codes 02-06.
	RulesV2 = Rules{Version: "v2", MobileDigits: "17", LandlineFirst: '2', LandlineLast: '6'}

	DefaultRules = RulesV1

	rulesByVersion = map[string]Rules{
		RulesV1.Version: RulesV1,
		RulesV2.Version: RulesV2,
	}

	cleaner = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "-", "", "(", "", ")", "")
)

// RulesFor returns the rule table of the given version.
func RulesFor(version string) (Rules, error) {
	if version == "" {
		return DefaultRules, nil
	}
	rules, ok := rulesByVersion[strings.ToLower(version)]
	if !ok {
		return Rules{}, fmt.Errorf("unknown phone rules version %q", version)
	}
	return rules, nil
}

// IsMobile reports whether a normalized number is a mobile number.
func (r Rules) IsMobile(normalized string) bool {
	return len(normalized) == 10 && strings.IndexByte(r.MobileDigits, normalized[1]) >= 0
}

type Normalizer struct {
	rules   Rules
	pattern *regexp.Regexp
}

func NewNormalizer(rules Rules) *Normalizer {
	// local: 0 + 9 digits; international: [+]254 + optional trunk 0 + 9 digits
	expr := fmt.Sprintf(`^(?:0|\+?%s0?)([%s%c-%c]\d{8})$`,
		countryCode, regexp.QuoteMeta(rules.MobileDigits), rules.LandlineFirst, rules.LandlineLast)
	return &Normalizer{
		rules:   rules,
		pattern: regexp.MustCompile(expr),
	}
}

func (n *Normalizer) Rules() Rules { return n.rules }

// Normalize validates `raw` and returns it in the canonical 0XXXXXXXXX form.
func (n *Normalizer) Normalize(raw string) (string, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return "", reject(ReasonEmpty, raw)
	}

	if m := n.pattern.FindStringSubmatch(cleaned); m != nil {
		return "0" + m[1], nil
	}

	switch {
	case len(cleaned) < 10:
		return "", reject(ReasonTooShort, raw)
	case len(cleaned) > 13:
		return "", reject(ReasonTooLong, raw)
	case !(cleaned[0] == '+' || (cleaned[0] >= '0' && cleaned[0] <= '9')):
		return "", reject(ReasonInvalidCharacters, raw)
	default:
		return "", reject(ReasonInvalidFormat, raw)
	}
}

// Clean strips whitespace, hyphens and parentheses.
func Clean(raw string) string {
	return cleaner.Replace(strings.TrimSpace(raw))
}

// International converts a normalized number to the 254XXXXXXXXX form expected by SMS gateways.
func International(normalized string) string {
	if strings.HasPrefix(normalized, "0") {
		return countryCode + normalized[1:]
	}
	return normalized
}

var defaultNormalizer = NewNormalizer(DefaultRules)

// Normalize uses the DefaultRules.
func Normalize(raw string) (string, error) {
	return defaultNormalizer.Normalize(raw)
}
