// Package tables parses the two raw delimited exports into canonical
// in-memory tables: billing line items from the platform invoice export and
// CRM entries from the CRM export. Encodings are auto-detected from raw
// bytes, required columns are validated, and landing-page identifiers are
// expanded into synthetic CRM rows.
package tables

import (
	"strings"

	"github.com/agencyops/billaudit/pkg/product"
)

// BillingLineItem is one charge record from the platform invoice export.
// Only rows with ShouldCharge set survive parsing.
type BillingLineItem struct {
	// SiteID is the site identifier (nominally 8+ hex-like characters).
	// It may arrive corrupted as scientific notation when the export has
	// passed through a numeric-coercing intermediary; see pkg/repair.
	SiteID string

	// SiteURL is the published URL of the site, if exported.
	SiteURL string

	// ChargeFrequency is the raw tariff label. It drives Product.
	ChargeFrequency string

	// ShouldCharge marks the row as billable. Parsing retains only
	// billable rows, so this is always true on parsed items.
	ShouldCharge bool

	// UnpublicationDate is the raw unpublication date string, empty when
	// the export lacks the column or the cell is blank.
	UnpublicationDate string

	// Product is the classified product type of the charge.
	Product product.Type
}

// HasURL reports whether the item carries a usable site URL.
func (b *BillingLineItem) HasURL() bool {
	url := strings.TrimSpace(b.SiteURL)
	return url != "" && !strings.EqualFold(url, "nan")
}

// CrmEntry is one row from the CRM export, keyed by SiteID.
type CrmEntry struct {
	SiteID         string
	WorkflowStatus string
	Domain         string
	ProjectName    string

	// LandingPage marks synthetic entries expanded from a secondary
	// landing-page identifier column.
	LandingPage bool
}

// CRMIndex is a SiteID lookup over CRM entries. Duplicate keys can occur
// when a landing-page id collides with a standard id or the raw export has
// duplicate rows; the first entry inserted wins.
type CRMIndex map[string]CrmEntry

// IndexCRM builds a first-match-wins lookup index over the entries.
func IndexCRM(entries []CrmEntry) CRMIndex {
	index := make(CRMIndex, len(entries))
	for _, entry := range entries {
		if _, ok := index[entry.SiteID]; !ok {
			index[entry.SiteID] = entry
		}
	}
	return index
}

// Lookup returns the entry for the given site id.
func (i CRMIndex) Lookup(siteID string) (CrmEntry, bool) {
	entry, ok := i[siteID]
	return entry, ok
}
