package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/product"
)

var verifyNow = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

// newTestVerifier wires a verifier against an httptest server with zero
// throttle delay and a fixed clock.
func newTestVerifier(t *testing.T, handler http.Handler) *Verifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Credentials{
		Username: "api-user",
		Password: "api-pass",
		Endpoint: server.URL,
	})
	return NewVerifier(client,
		WithDelay(0),
		WithClock(func() time.Time { return verifyNow }),
	)
}

func siteHandler(t *testing.T, statuses map[string]SiteStatus, histories map[string][]Activity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "expected basic auth")
		require.Equal(t, "api-user", user)
		require.Equal(t, "api-pass", pass)

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		siteID := parts[len(parts)-1]

		if strings.HasSuffix(r.URL.Path, "/activities") {
			siteID = parts[len(parts)-2]
			_ = json.NewEncoder(w).Encode(histories[siteID])
			return
		}

		status, found := statuses[siteID]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}

func testIssue(siteID string) policy.Issue {
	return policy.Issue{
		SiteID:  siteID,
		Product: product.License,
		Problem: policy.ProblemStatusMismatch,
	}
}

func TestVerifyPassThroughWithoutCredentials(t *testing.T) {
	v := NewVerifier(NewClient(Credentials{}))
	issues := []policy.Issue{testIssue("63609f38")}

	result, err := v.Verify(context.Background(), issues)
	require.NoError(t, err)
	assert.Equal(t, issues, result.Remaining)
	assert.Empty(t, result.FalsePositives)
	assert.Empty(t, result.Errors)
	assert.Zero(t, result.Calls)
}

func TestVerifyPublishedSiteIsFalsePositive(t *testing.T) {
	v := newTestVerifier(t, siteHandler(t,
		map[string]SiteStatus{
			"63609f38": {PublishStatus: "PUBLISHED", SiteDomain: "bakery.example", LastPublished: "2024-07-30"},
		}, nil))

	result, err := v.Verify(context.Background(), []policy.Issue{testIssue("63609f38")})
	require.NoError(t, err)

	assert.Empty(t, result.Remaining)
	require.Len(t, result.FalsePositives, 1)
	fp := result.FalsePositives[0]
	assert.Equal(t, "true", fp.APIPublished)
	assert.Equal(t, "bakery.example", fp.APISiteDomain)
	assert.Contains(t, fp.APIAnalysis, "actually published")
	assert.Contains(t, fp.APIRecommendation, "Billing justified")
}

func TestVerifyGracePeriodFromUnpublishDate(t *testing.T) {
	v := newTestVerifier(t, siteHandler(t,
		map[string]SiteStatus{
			// 20 days before verifyNow.
			"abc123de": {PublishStatus: "UNPUBLISHED", UnpublicationDate: "2024-07-12"},
		}, nil))

	result, err := v.Verify(context.Background(), []policy.Issue{testIssue("abc123de")})
	require.NoError(t, err)

	assert.Empty(t, result.Remaining)
	require.Len(t, result.FalsePositives, 1)
	assert.Contains(t, result.FalsePositives[0].APIAnalysis, "20 days")
}

func TestVerifyDaysOfflineFromHistory(t *testing.T) {
	v := newTestVerifier(t, siteHandler(t,
		map[string]SiteStatus{
			"abc123de": {PublishStatus: "UNPUBLISHED"},
		},
		map[string][]Activity{
			"abc123de": {
				{Type: "site_published", Date: "2024-01-01"},
				// 61 days before verifyNow: outside the grace period.
				{Type: "site_unpublished", Date: "2024-06-01"},
			},
		}))

	result, err := v.Verify(context.Background(), []policy.Issue{testIssue("abc123de")})
	require.NoError(t, err)

	require.Len(t, result.Remaining, 1)
	assert.Empty(t, result.Errors)
	confirmed := result.Remaining[0]
	assert.Equal(t, "false", confirmed.APIPublished)
	assert.Contains(t, confirmed.APIAnalysis, "61 days")
	assert.Contains(t, confirmed.APIRecommendation, "Manual review")
}

func TestVerifyUnknownOfflineDateIsConfirmed(t *testing.T) {
	v := newTestVerifier(t, siteHandler(t,
		map[string]SiteStatus{
			"abc123de": {PublishStatus: "UNPUBLISHED"},
		}, nil))

	result, err := v.Verify(context.Background(), []policy.Issue{testIssue("abc123de")})
	require.NoError(t, err)

	require.Len(t, result.Remaining, 1)
	assert.Contains(t, result.Remaining[0].APIAnalysis, "offline date unknown")
}

// Scenario E: an API timeout retains the issue and tallies it as an error.
// Nothing is silently dropped.
func TestVerifyTimeoutRetainsIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Credentials{Username: "u", Password: "p", Endpoint: server.URL})
	client.httpClient.Timeout = 20 * time.Millisecond
	v := NewVerifier(client, WithDelay(0))

	result, err := v.Verify(context.Background(), []policy.Issue{testIssue("abc123de")})
	require.NoError(t, err)

	require.Len(t, result.Remaining, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ERROR", result.Remaining[0].APIPublished)
	assert.Equal(t, 1, result.Calls)
	assert.Zero(t, result.ConfirmedCount())
}

func TestVerifyHTTPErrorInterpretation(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "Forbidden"},
		{http.StatusNotFound, "Not found"},
		{http.StatusServiceUnavailable, "Service unavailable"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			v := newTestVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			result, err := v.Verify(context.Background(), []policy.Issue{testIssue("abc123de")})
			require.NoError(t, err)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0].APIErrorDetails, tt.want)
		})
	}
}

func TestVerifyMixedBatch(t *testing.T) {
	v := newTestVerifier(t, siteHandler(t,
		map[string]SiteStatus{
			"live1111": {PublishStatus: "PUBLISHED"},
			"dead2222": {PublishStatus: "UNPUBLISHED", UnpublicationDate: "2024-01-01"},
			// gone3333 yields a 404.
		}, nil))

	issues := []policy.Issue{testIssue("live1111"), testIssue("dead2222"), testIssue("gone3333")}
	result, err := v.Verify(context.Background(), issues)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Calls)
	assert.Len(t, result.FalsePositives, 1)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Remaining, 2)
	assert.Equal(t, 1, result.ConfirmedCount())

	// Every input issue lands in exactly one of false positives or
	// remaining.
	assert.Equal(t, len(issues), len(result.FalsePositives)+len(result.Remaining))
}

func TestVerifyContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newTestVerifier(t, siteHandler(t, nil, nil))
	issues := []policy.Issue{testIssue("a"), testIssue("b")}

	result, err := v.Verify(ctx, issues)
	require.Error(t, err)
	// Unchecked issues come back unverified rather than vanishing.
	assert.Len(t, result.Remaining, 2)
}

func TestGetPublishHistoryFiltersAndCaps(t *testing.T) {
	var activities []Activity
	for i := 0; i < 30; i++ {
		activities = append(activities,
			Activity{Type: "site_unpublished", Date: "2024-06-01"},
			Activity{Type: "page_edited", Date: "2024-06-02"},
		)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(activities)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Credentials{Username: "u", Password: "p", Endpoint: server.URL})
	history, err := client.GetPublishHistory(context.Background(), "abc123de")
	require.NoError(t, err)

	assert.Len(t, history, 10)
	for _, activity := range history {
		assert.True(t, activity.IsPublishEvent())
	}
}

func TestCredentialsConfigured(t *testing.T) {
	assert.False(t, Credentials{}.Configured())
	assert.False(t, Credentials{Username: "u"}.Configured())
	assert.True(t, Credentials{Username: "u", Password: "p"}.Configured())
}

func TestTestConnectionRequiresCredentials(t *testing.T) {
	client := NewClient(Credentials{})
	_, err := client.TestConnection(context.Background(), "63609f38")
	require.Error(t, err)
}
