// Package policy classifies billed line items as OK or flagged. The rules
// are a pure function of the CRM workflow status, the unpublication date
// (grace-period rule), the product type, and, for dependent App items, the
// status of the sibling License item.
package policy

import (
	"strings"
	"time"

	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/tables"
)

// GraceDays is the grace-period bound: a site unpublished at most this
// many days ago is still legitimately billed for the current cycle
// ("same calendar month" rule).
const GraceDays = 31

// okStatusKeyword always justifies billing regardless of dates.
const okStatusKeyword = "website online"

// graceStatusKeywords are statuses that justify billing only when the site
// went offline within the grace period. "gekündigt" is the CRM's German
// label for terminated projects.
var graceStatusKeywords = []string{"offline", "gekündigt", "terminated"}

// Engine evaluates billing items against CRM entries. The clock is
// injectable for deterministic grace-period tests.
type Engine struct {
	// Now returns the evaluation time. Defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// StatusOK reports whether a CRM workflow status justifies billing. A
// status containing "website online" is always OK. Offline or terminated
// statuses are OK only when the unpublication date parses and lies within
// the grace period; an absent or unparseable date makes the grace branch
// inapplicable.
func (e *Engine) StatusOK(status, unpublicationDate string) bool {
	normalized := strings.ToLower(status)

	if strings.Contains(normalized, okStatusKeyword) {
		return true
	}

	for _, keyword := range graceStatusKeywords {
		if !strings.Contains(normalized, keyword) {
			continue
		}
		if days := DaysSince(unpublicationDate, e.now()); days != nil && *days <= GraceDays {
			return true
		}
		return false
	}

	return false
}

// Evaluate classifies every billing item and returns the flagged set.
// Items must already be repaired and classified; the CRM lookup is an
// exact string match on the site id with first-match-wins semantics.
func (e *Engine) Evaluate(items []tables.BillingLineItem, crm tables.CRMIndex) []Issue {
	var issues []Issue

	for i := range items {
		if issue := e.evaluateItem(&items[i], items, crm); issue != nil {
			issues = append(issues, *issue)
		}
	}

	return issues
}

// evaluateItem returns nil when the item's billing is justified.
func (e *Engine) evaluateItem(item *tables.BillingLineItem, all []tables.BillingLineItem, crm tables.CRMIndex) *Issue {
	effectiveDate := e.effectiveUnpublicationDate(item, all)

	entry, found := crm.Lookup(item.SiteID)
	if !found {
		return &Issue{
			SiteID:          item.SiteID,
			SiteURL:         item.SiteURL,
			Product:         item.Product,
			ChargeFrequency: item.ChargeFrequency,
			CRMStatus:       statusNotFound,
			ProjectName:     statusNotFound,
			Problem:         ProblemNotInCRM,
			DaysOffline:     DaysSince(effectiveDate, e.now()),
		}
	}

	if e.StatusOK(entry.WorkflowStatus, effectiveDate) {
		return nil
	}

	issue := &Issue{
		SiteID:          item.SiteID,
		SiteURL:         item.SiteURL,
		Product:         item.Product,
		ChargeFrequency: item.ChargeFrequency,
		CRMStatus:       entry.WorkflowStatus,
		ProjectName:     entry.ProjectName,
		DaysOffline:     DaysSince(effectiveDate, e.now()),
	}

	if !item.Product.IsDependent() {
		issue.Problem = ProblemStatusMismatch
		return issue
	}

	// Dependent App: justified when the sibling license is itself OK
	// under the same status and grace rule, judged on the license's own
	// unpublication date.
	license := licenseSibling(item.SiteID, all)
	if license != nil && e.StatusOK(entry.WorkflowStatus, license.UnpublicationDate) {
		return nil
	}

	if license == nil {
		issue.Problem = ProblemNoLicense
	} else {
		issue.Problem = problemWithoutLicense(item.Product)
	}
	return issue
}

// effectiveUnpublicationDate is the item's own date; dependent items
// without one fall back to the sibling license's date.
func (e *Engine) effectiveUnpublicationDate(item *tables.BillingLineItem, all []tables.BillingLineItem) string {
	date := strings.TrimSpace(item.UnpublicationDate)
	if date != "" || !item.Product.IsDependent() {
		return date
	}
	if license := licenseSibling(item.SiteID, all); license != nil {
		return strings.TrimSpace(license.UnpublicationDate)
	}
	return ""
}

// licenseSibling returns the first License item sharing the site id.
func licenseSibling(siteID string, all []tables.BillingLineItem) *tables.BillingLineItem {
	for i := range all {
		if all[i].SiteID == siteID && all[i].Product == product.License {
			return &all[i]
		}
	}
	return nil
}

// Summarize aggregates totals and the per-product breakdown for one run.
func Summarize(items []tables.BillingLineItem, issues []Issue) Summary {
	summary := Summary{
		TotalCharged: len(items),
		IssueCount:   len(issues),
		OKCount:      len(items) - len(issues),
		Breakdown:    make(map[product.Type]Counts),
	}

	issuesByType := make(map[product.Type]int, len(issues))
	for i := range issues {
		issuesByType[issues[i].Product]++
	}

	for i := range items {
		counts := summary.Breakdown[items[i].Product]
		counts.Total++
		summary.Breakdown[items[i].Product] = counts
	}
	for typ, counts := range summary.Breakdown {
		counts.Issues = issuesByType[typ]
		counts.OK = counts.Total - counts.Issues
		summary.Breakdown[typ] = counts
	}

	return summary
}
