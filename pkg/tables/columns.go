package tables

import "strings"

// Predicate decides whether a header name fills a column slot. Predicates
// are matched case-insensitively against trimmed header names.
type Predicate func(name string) bool

// containsAll matches headers containing every one of the given substrings.
func containsAll(substrs ...string) Predicate {
	return func(name string) bool {
		for _, s := range substrs {
			if !strings.Contains(name, s) {
				return false
			}
		}
		return true
	}
}

// exactAny matches headers equal to any of the given names.
func exactAny(names ...string) Predicate {
	return func(name string) bool {
		for _, n := range names {
			if name == n {
				return true
			}
		}
		return false
	}
}

// resolveColumn returns the index of the first header the predicate accepts.
func resolveColumn(headers []string, pred Predicate) (int, bool) {
	for i, h := range headers {
		if pred(normalizeHeader(h)) {
			return i, true
		}
	}
	return -1, false
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// CRM column detection predicates, kept as data so the exact matching
// behavior is visible and testable in one place. The two site-id slots are
// disambiguated by exact name: the standard column is "duda-site-id", the
// secondary landing-page column is "site-id-duda".
var (
	crmDomainColumn    = containsAll("domain")
	crmStandardIDNames = exactAny("duda-site-id", "duda_site_id")
	crmLandingIDNames  = exactAny("site-id-duda", "site_id_duda")
	crmStatusColumn    = containsAll("workflow", "status")
	crmProjectColumn   = containsAll("projekt")
)

// crmSiteIDCandidate gates both id slots: the header must mention all three
// of duda, site, and id before the exact-name heuristics apply.
var crmSiteIDCandidate = containsAll("duda", "site", "id")
