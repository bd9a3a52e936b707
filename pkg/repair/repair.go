// Package repair fixes site identifiers corrupted by spreadsheet tools.
// Exports that pass through a numeric-coercing intermediary can turn a
// hex-like site id into floating-point scientific notation (e.g. "8.3E+07"),
// destroying the join key against the CRM. Repair derives the registrable
// domain from the row's site URL and recovers the true id from the CRM
// entry whose domain matches.
package repair

import (
	"regexp"
	"strings"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/tables"
)

// scientificNotation matches identifiers corrupted into float exponent
// form. A legitimate site id never contains an exponent marker.
var scientificNotation = regexp.MustCompile(`[eE][+-]`)

// IsCorrupted reports whether the site id looks like scientific notation.
func IsCorrupted(siteID string) bool {
	return scientificNotation.MatchString(siteID)
}

// Fix records the outcome of repairing one distinct corrupted identifier.
type Fix struct {
	// CorruptedID is the identifier as it appeared in the export.
	CorruptedID string

	// RepairedID is the recovered CRM identifier, empty when the repair
	// failed.
	RepairedID string

	// Domain is the registrable domain derived from the site URL.
	Domain string

	// BorrowedURL is set when an App row without a URL borrowed one from
	// a sibling row sharing the corrupted id.
	BorrowedURL bool

	// Rows is the number of billing rows rewritten.
	Rows int

	// Err is the advisory error for failed repairs (ambiguous or
	// unresolved); nil on success.
	Err *errors.RepairError
}

// Repaired reports whether the identifier was recovered.
func (f *Fix) Repaired() bool {
	return f.Err == nil && f.RepairedID != ""
}

// Repair rewrites corrupted site identifiers in the billing items using
// domain matches against the CRM entries. It returns the repaired items
// (the input slice is modified in place) and one Fix per distinct
// corrupted id, in first-appearance order.
//
// Zero or multiple CRM domain matches leave the id untouched; those rows
// surface later as "not in CRM" issues. Repair is idempotent: a repaired
// table contains no identifiers matching the scientific-notation pattern,
// so a second pass is a no-op.
func Repair(items []tables.BillingLineItem, crm []tables.CrmEntry) ([]tables.BillingLineItem, []Fix) {
	var fixes []Fix
	seen := make(map[string]bool)

	for i := range items {
		corruptedID := items[i].SiteID
		if !IsCorrupted(corruptedID) || seen[corruptedID] {
			continue
		}
		seen[corruptedID] = true
		fixes = append(fixes, repairOne(items, crm, i))
	}

	return items, fixes
}

// repairOne repairs every row sharing the corrupted id of items[idx].
func repairOne(items []tables.BillingLineItem, crm []tables.CrmEntry, idx int) Fix {
	item := &items[idx]
	fix := Fix{CorruptedID: item.SiteID}

	siteURL := item.SiteURL

	// App rows often lack a URL of their own; borrow it from a sibling
	// row with the same corrupted id (typically the license row).
	if item.Product.IsDependent() && !item.HasURL() {
		if url := siblingURL(items, item.SiteID); url != "" {
			siteURL = url
			fix.BorrowedURL = true
		}
	}

	if strings.TrimSpace(siteURL) == "" || strings.EqualFold(strings.TrimSpace(siteURL), "nan") {
		fix.Err = &errors.RepairError{
			SiteID: fix.CorruptedID,
			Kind:   errors.RepairUnresolved,
		}
		return fix
	}

	domain := Domain(siteURL)
	fix.Domain = domain

	matches := matchDomain(crm, domain)
	switch len(matches) {
	case 1:
		fix.RepairedID = matches[0].SiteID
		fix.Rows = rewrite(items, fix.CorruptedID, fix.RepairedID, siteURL)
	case 0:
		fix.Err = &errors.RepairError{
			SiteID: fix.CorruptedID,
			Domain: domain,
			Kind:   errors.RepairUnresolved,
		}
	default:
		fix.Err = &errors.RepairError{
			SiteID:  fix.CorruptedID,
			Domain:  domain,
			Kind:    errors.RepairAmbiguous,
			Matches: len(matches),
		}
	}

	return fix
}

// siblingURL returns the first usable URL among rows carrying the same id.
func siblingURL(items []tables.BillingLineItem, siteID string) string {
	for i := range items {
		if items[i].SiteID == siteID && items[i].HasURL() {
			return items[i].SiteURL
		}
	}
	return ""
}

// matchDomain returns CRM entries whose domain field contains the derived
// domain as a case-insensitive substring.
func matchDomain(crm []tables.CrmEntry, domain string) []tables.CrmEntry {
	if domain == "" {
		return nil
	}
	needle := strings.ToLower(domain)

	var matches []tables.CrmEntry
	for _, entry := range crm {
		if strings.Contains(strings.ToLower(entry.Domain), needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// rewrite replaces the corrupted id on every row carrying it and backfills
// the site URL onto rows still missing one. Returns the number of rows
// rewritten.
func rewrite(items []tables.BillingLineItem, corruptedID, repairedID, siteURL string) int {
	count := 0
	for i := range items {
		if items[i].SiteID != corruptedID {
			continue
		}
		items[i].SiteID = repairedID
		if !items[i].HasURL() {
			items[i].SiteURL = siteURL
		}
		count++
	}
	return count
}

// Domain derives the registrable domain from a site URL: scheme and
// leading "www." stripped, path discarded, lowercased.
func Domain(url string) string {
	domain := strings.TrimSpace(url)
	if domain == "" || strings.EqualFold(domain, "nan") {
		return ""
	}

	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.ToLower(domain)
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}
