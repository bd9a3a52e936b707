package verify

import (
	"context"
	"time"

	"github.com/agencyops/billaudit/pkg/logging"
	"github.com/agencyops/billaudit/pkg/policy"
)

// DefaultDelay is the fixed pause between sequential API calls. It is a
// throttle to avoid overloading the API, not a rate limiter.
const DefaultDelay = 100 * time.Millisecond

// Result partitions the verified issues. It is an explicit value returned
// to the caller; no verification state is kept across runs.
type Result struct {
	// Remaining are issues that remote data did not clear: confirmed
	// issues plus every issue whose API call failed.
	Remaining []policy.Issue

	// FalsePositives are issues the platform shows to be unjustified:
	// the site is published, or it went offline within the grace period.
	FalsePositives []policy.Issue

	// Errors are issues whose API calls failed. They also appear in
	// Remaining; nothing is silently dropped.
	Errors []policy.Issue

	// Calls is the number of site-status API calls made.
	Calls int
}

// ConfirmedCount returns remaining issues that are confirmed problems
// rather than API errors.
func (r *Result) ConfirmedCount() int {
	return len(r.Remaining) - len(r.Errors)
}

// Verifier re-checks flagged issues against the platform API, one site at
// a time with a fixed inter-call delay.
type Verifier struct {
	client *Client
	delay  time.Duration
	now    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithDelay overrides the inter-call throttle delay.
func WithDelay(d time.Duration) Option {
	return func(v *Verifier) { v.delay = d }
}

// WithClock overrides the clock used for grace-period arithmetic.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a verifier around the given client. A nil or
// unconfigured client turns Verify into a pass-through no-op.
func NewVerifier(client *Client, opts ...Option) *Verifier {
	v := &Verifier{
		client: client,
		delay:  DefaultDelay,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify re-checks each issue against the platform API sequentially.
// Without credentials it returns all issues unchanged. API failures never
// drop an issue: the item stays in Remaining and is tallied in Errors.
// Verification stops between calls when the context is canceled; issues
// not yet checked are returned unverified in Remaining.
func (v *Verifier) Verify(ctx context.Context, issues []policy.Issue) (*Result, error) {
	result := &Result{}

	if !v.client.Configured() || len(issues) == 0 {
		result.Remaining = issues
		return result, nil
	}

	log := logging.Ctx(ctx)
	log.Info().Int("issues", len(issues)).Msg("Verifying flagged sites against platform API")

	for idx := range issues {
		if err := ctx.Err(); err != nil {
			result.Remaining = append(result.Remaining, issues[idx:]...)
			return result, err
		}

		issue := issues[idx]
		status, history, apiErr := v.fetch(ctx, issue.SiteID)
		result.Calls++

		verdict := v.analyze(status, history, apiErr)
		enrich(&issue, status, verdict, apiErr)

		switch verdict.classification {
		case classFalsePositive:
			log.Debug().Str("site_id", issue.SiteID).Str("reason", verdict.reason).Msg("False positive")
			result.FalsePositives = append(result.FalsePositives, issue)
		case classAPIError:
			log.Warn().Str("site_id", issue.SiteID).Err(apiErr).Msg("API call failed, issue retained")
			result.Errors = append(result.Errors, issue)
			result.Remaining = append(result.Remaining, issue)
		default:
			result.Remaining = append(result.Remaining, issue)
		}

		if idx < len(issues)-1 {
			v.sleep(ctx)
		}
	}

	log.Info().
		Int("calls", result.Calls).
		Int("false_positives", len(result.FalsePositives)).
		Int("confirmed", result.ConfirmedCount()).
		Int("api_errors", len(result.Errors)).
		Msg("Verification complete")

	return result, nil
}

// fetch retrieves site status and, when the status call succeeds, the
// publish history. History failures are tolerated: the explicit unpublish
// date may still settle the analysis.
func (v *Verifier) fetch(ctx context.Context, siteID string) (*SiteStatus, []Activity, error) {
	status, err := v.client.GetSiteStatus(ctx, siteID)
	if err != nil {
		return nil, nil, err
	}

	history, err := v.client.GetPublishHistory(ctx, siteID)
	if err != nil {
		logging.Ctx(ctx).Debug().Str("site_id", siteID).Err(err).Msg("Publish history unavailable")
		history = nil
	}
	return status, history, nil
}

func (v *Verifier) sleep(ctx context.Context) {
	if v.delay <= 0 {
		return
	}
	select {
	case <-time.After(v.delay):
	case <-ctx.Done():
	}
}

// enrich copies the verifier's findings onto the issue before it is
// classified into a result bucket.
func enrich(issue *policy.Issue, status *SiteStatus, verdict analysis, apiErr error) {
	if apiErr != nil || status == nil {
		issue.APIPublished = "ERROR"
		issue.APIErrorDetails = errorDetails(apiErr)
	} else {
		if status.Published() {
			issue.APIPublished = "true"
		} else {
			issue.APIPublished = "false"
		}
		issue.APILastPublished = status.LastPublished
		issue.APIUnpublishDate = status.UnpublicationDate
		issue.APISiteDomain = status.SiteDomain
	}
	issue.APIAnalysis = verdict.reason
	issue.APIRecommendation = verdict.recommendation
}
