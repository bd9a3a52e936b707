package policy

import (
	"fmt"

	"github.com/agencyops/billaudit/pkg/product"
)

// Problem strings attached to flagged billing items.
const (
	// ProblemNotInCRM marks items whose site id has no CRM entry.
	ProblemNotInCRM = "Site not in CRM"

	// ProblemStatusMismatch marks License/Shop items whose CRM status is
	// not justified. Never used for dependent App items.
	ProblemStatusMismatch = "status mismatch"

	// ProblemNoLicense marks App items with no license sibling at all.
	ProblemNoLicense = "no associated license found"

	// statusNotFound is the placeholder CRM status for unmatched items.
	statusNotFound = "Not found"
)

// problemWithoutLicense is the problem string for an App item whose
// license sibling exists but is itself not justified.
func problemWithoutLicense(typ product.Type) string {
	return fmt.Sprintf("%s without active license", typ)
}

// Issue is one flagged billing line item. Issues are created fresh per
// reconciliation run and never persisted. The API fields are filled by the
// remote verifier when it runs.
type Issue struct {
	SiteID          string
	SiteURL         string
	Product         product.Type
	ChargeFrequency string
	CRMStatus       string
	ProjectName     string
	Problem         string

	// DaysOffline is days since the unpublication date, nil when no date
	// was available or parseable.
	DaysOffline *int

	// Remote verification enrichment. APIPublished is "true"/"false", or
	// "ERROR" when the API call failed.
	APIPublished      string
	APILastPublished  string
	APIUnpublishDate  string
	APISiteDomain     string
	APIAnalysis       string
	APIRecommendation string
	APIErrorDetails   string
}

// Verified reports whether the issue carries remote verification data.
func (i *Issue) Verified() bool {
	return i.APIPublished != ""
}

// Counts is a per-product-type tally.
type Counts struct {
	Total  int
	OK     int
	Issues int
}

// Summary aggregates one reconciliation run. The invariant
// OKCount+IssueCount == TotalCharged holds overall and per breakdown entry.
type Summary struct {
	TotalCharged int
	OKCount      int
	IssueCount   int
	Breakdown    map[product.Type]Counts
}

// ProblemRate returns the share of flagged items in percent, rounded to
// one decimal place.
func (s *Summary) ProblemRate() float64 {
	if s.TotalCharged == 0 {
		return 0
	}
	rate := float64(s.IssueCount) / float64(s.TotalCharged) * 100
	return float64(int(rate*10+0.5)) / 10
}
