// Package product classifies billing charge-frequency labels into product
// types. License and Shop are primary products; everything else is a
// dependent App subtype whose billing justification rides on an associated
// License item.
package product

import "strings"

// Type identifies the product category of a billing line item.
type Type string

// Product types derived from the charge frequency label.
const (
	// License is the primary website license product.
	License Type = "License"
	// Shop is an e-commerce / online store product.
	Shop Type = "Shop"

	// App subtypes. All of them are dependent products.

	// CookieConsent is the cookie consent banner add-on.
	CookieConsent Type = "CCB"
	// Accessibility is the accessibility overlay add-on.
	Accessibility Type = "AudioEye"
	// FormBuilder is the form builder add-on.
	FormBuilder Type = "Paperform"
	// SocialFeed is the RSS / social media feed add-on.
	SocialFeed Type = "RSS/Social"
	// SiteSearch is the site search add-on.
	SiteSearch Type = "SiteSearch"
	// BookingTool is the appointment booking add-on.
	BookingTool Type = "BookingTool"
	// IVR is the interactive voice response add-on.
	IVR Type = "IVR"
	// Apps is the fallback for add-ons without a dedicated subtype.
	Apps Type = "Apps"

	// Unknown is returned for an empty charge frequency label.
	Unknown Type = "Unknown"
)

// String returns the product type label.
func (t Type) String() string {
	return string(t)
}

// IsDependent reports whether the product type is a dependent App subtype.
// Dependent items are only billable-justified when an associated License
// item for the same site is itself justified.
func (t Type) IsDependent() bool {
	switch t {
	case CookieConsent, Accessibility, FormBuilder, SocialFeed, SiteSearch, BookingTool, IVR, Apps:
		return true
	default:
		return false
	}
}

// IsPrimary reports whether the product type stands on its own.
func (t Type) IsPrimary() bool {
	return t == License || t == Shop
}

// Rule maps a charge-frequency keyword to a product type. Rules are
// evaluated in order; the first keyword contained in the label wins.
type Rule struct {
	Keyword string `yaml:"keyword"`
	Type    Type   `yaml:"type"`
}

// DefaultRules is the built-in ordered classification table. Primary
// products come first so that an App keyword never shadows a license.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "dudaone monthly", Type: License},
		{Keyword: "ecom", Type: Shop},
		{Keyword: "store", Type: Shop},
		{Keyword: "cookiebot", Type: CookieConsent},
		{Keyword: "audioeye", Type: Accessibility},
		{Keyword: "paperform", Type: FormBuilder},
		{Keyword: "rss", Type: SocialFeed},
		{Keyword: "social", Type: SocialFeed},
		{Keyword: "sitesearch", Type: SiteSearch},
		{Keyword: "book like a boss", Type: BookingTool},
		{Keyword: "ivr", Type: IVR},
	}
}

// Classifier classifies charge frequency labels using an ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier with the given rules. With no rules it
// uses the built-in default table.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns a copy of the classifier's rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the product type for a charge frequency label. It is
// total: every input maps to exactly one type. Empty input yields Unknown,
// and labels matching no rule fall back to the generic Apps type.
func (c *Classifier) Classify(chargeFrequency string) Type {
	label := strings.ToLower(strings.TrimSpace(chargeFrequency))
	if label == "" {
		return Unknown
	}

	for _, rule := range c.rules {
		if strings.Contains(label, rule.Keyword) {
			return rule.Type
		}
	}
	return Apps
}

// Classify classifies a charge frequency label with the default rule table.
func Classify(chargeFrequency string) Type {
	return defaultClassifier.Classify(chargeFrequency)
}

var defaultClassifier = NewClassifier()
