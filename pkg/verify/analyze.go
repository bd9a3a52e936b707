package verify

import (
	stderrors "errors"
	"fmt"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/policy"
)

// classification buckets for a verified issue.
type classification int

const (
	classConfirmed classification = iota
	classFalsePositive
	classAPIError
)

// analysis is the verifier's verdict on one issue, with a human-readable
// explanation and recommendation for the report.
type analysis struct {
	classification classification
	reason         string
	recommendation string
}

// analyze classifies the remote findings for one site. Published sites are
// false positives (the CRM record was stale). Unpublished sites get the
// same grace rule as the local policy, with the days-offline figure taken
// from the explicit unpublish date or, failing that, the most recent
// unpublish event in the activity history.
func (v *Verifier) analyze(status *SiteStatus, history []Activity, apiErr error) analysis {
	if apiErr != nil || status == nil {
		return analysis{
			classification: classAPIError,
			reason:         errorDetails(apiErr),
			recommendation: "Manual review required",
		}
	}

	if status.Published() {
		return analysis{
			classification: classFalsePositive,
			reason:         "Site is actually published and reachable",
			recommendation: "Billing justified - check and update the CRM status",
		}
	}

	daysOffline := policy.DaysSince(status.UnpublicationDate, v.now())
	if daysOffline == nil {
		daysOffline = daysFromHistory(history, v)
	}

	if daysOffline != nil && *daysOffline <= policy.GraceDays {
		return analysis{
			classification: classFalsePositive,
			reason: fmt.Sprintf("Site offline for %d days (within the %d-day grace period)",
				*daysOffline, policy.GraceDays),
			recommendation: "Billing justified - site went offline within the current billing cycle",
		}
	}

	offlineInfo := "offline date unknown"
	if daysOffline != nil {
		offlineInfo = fmt.Sprintf("for %d days", *daysOffline)
	}
	return analysis{
		classification: classConfirmed,
		reason:         fmt.Sprintf("Site is offline %s", offlineInfo),
		recommendation: "Manual review - possibly billed without justification",
	}
}

// daysFromHistory scans the bounded activity history for the most recent
// unpublish event with a parseable date.
func daysFromHistory(history []Activity, v *Verifier) *int {
	for _, activity := range history {
		if !activity.IsUnpublishEvent() {
			continue
		}
		if days := policy.DaysSince(activity.Date, v.now()); days != nil {
			return days
		}
	}
	return nil
}

// errorDetails renders an API failure for reports, using the interpreted
// HTTP status explanation when available.
func errorDetails(err error) string {
	if err == nil {
		return "API unavailable"
	}
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Interpret()
	}
	return err.Error()
}
