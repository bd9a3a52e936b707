package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/verify"
)

func fixedWriter() *Writer {
	return &Writer{Now: func() time.Time {
		return time.Date(2024, 8, 1, 14, 30, 0, 0, time.UTC)
	}}
}

func sampleSummary() policy.Summary {
	return policy.Summary{
		TotalCharged: 10,
		OKCount:      8,
		IssueCount:   2,
		Breakdown: map[product.Type]policy.Counts{
			product.License:       {Total: 6, OK: 5, Issues: 1},
			product.Shop:          {Total: 2, OK: 2},
			product.CookieConsent: {Total: 2, OK: 1, Issues: 1},
		},
	}
}

func sampleIssues() []policy.Issue {
	days := 61
	return []policy.Issue{
		{
			SiteID: "abc123de", SiteURL: "https://garage.example", Product: product.License,
			ChargeFrequency: "DudaOne Monthly", CRMStatus: "gekündigt", ProjectName: "Garage",
			Problem: policy.ProblemStatusMismatch, DaysOffline: &days,
		},
		{
			SiteID: "def456gh", Product: product.CookieConsent,
			ChargeFrequency: "Cookiebot Pro monthly", CRMStatus: "Offline", ProjectName: "Bakery",
			Problem: "CCB without active license",
		},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := fixedWriter().WriteReport(&buf, sampleIssues(), sampleSummary(), nil)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "# Billing reconciliation report")
	assert.Contains(t, out, "# Date: 01.08.2024 14:30")
	assert.Contains(t, out, "# - Total charged: 10")
	assert.Contains(t, out, "# - OK: 8")
	assert.Contains(t, out, "# - Manual review: 2")
	assert.Contains(t, out, "# - License: 6 total, 5 OK, 1 issues")
	assert.NotContains(t, out, "API verification")

	assert.Contains(t, out, "Site ID;Site URL;Product;Charge Frequency;CRM Status;Project;Problem;Days Offline")
	assert.Contains(t, out, "abc123de;https://garage.example;License;DudaOne Monthly;gekündigt;Garage;status mismatch;61")
	assert.Contains(t, out, "def456gh;;CCB;Cookiebot Pro monthly;Offline;Bakery;CCB without active license;")
}

func TestWriteReportWithVerification(t *testing.T) {
	issues := sampleIssues()
	issues[0].APIPublished = "false"
	issues[0].APIAnalysis = "Site is offline for 61 days"
	issues[0].APIRecommendation = "Manual review - possibly billed without justification"
	issues[1].APIPublished = "ERROR"
	issues[1].APIErrorDetails = "Not found - the site does not exist or belongs to another account"

	verification := &verify.Result{
		Remaining: issues,
		Errors:    issues[1:],
		Calls:     3,
		FalsePositives: []policy.Issue{
			{SiteID: "live1111", Product: product.License, Problem: policy.ProblemStatusMismatch},
		},
	}

	var buf bytes.Buffer
	err := fixedWriter().WriteReport(&buf, issues, sampleSummary(), verification)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "# - API verification: 3 calls")
	assert.Contains(t, out, "# - False positives: 1")
	assert.Contains(t, out, "# - API errors: 1")
	assert.Contains(t, out, "API Published")
	assert.Contains(t, out, "Site is offline for 61 days")
	assert.Contains(t, out, "ERROR")
}

func TestWriteReportNoIssues(t *testing.T) {
	var buf bytes.Buffer
	summary := policy.Summary{TotalCharged: 5, OKCount: 5}
	err := fixedWriter().WriteReport(&buf, nil, summary, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Site ID;Site URL")
	assert.Contains(t, buf.String(), "# No flagged items found!")
}

func TestWriteFalsePositives(t *testing.T) {
	fps := []policy.Issue{
		{
			SiteID: "live1111", Product: product.License, Problem: policy.ProblemStatusMismatch,
			APIAnalysis:       "Site is actually published and reachable",
			APIRecommendation: "Billing justified - check and update the CRM status",
		},
	}

	var buf bytes.Buffer
	err := fixedWriter().WriteFalsePositives(&buf, fps)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "# Eliminated false positives: 1")
	assert.Contains(t, out, "live1111;License;status mismatch;Site is actually published")
}

func TestWriteFalsePositivesEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := fixedWriter().WriteFalsePositives(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "# No false positives found\n", buf.String())
}

func TestBreakdownRowsSorted(t *testing.T) {
	rows := BreakdownRows(sampleSummary())
	require.Len(t, rows, 3)

	// Sorted by issues descending, then by product name.
	assert.Equal(t, product.CookieConsent, rows[0].Product)
	assert.Equal(t, product.License, rows[1].Product)
	assert.Equal(t, product.Shop, rows[2].Product)
}

func TestBuildMetrics(t *testing.T) {
	metrics := BuildMetrics(sampleSummary(), nil)
	assert.Equal(t, 10, metrics.TotalCharged)
	assert.Equal(t, 2, metrics.IssueCount)
	assert.InDelta(t, 20.0, metrics.ProblemRatePercent, 0.01)
	assert.Zero(t, metrics.APICalls)
	assert.Nil(t, metrics.FinalProblemRatePercent)
}

func TestBuildMetricsWithVerification(t *testing.T) {
	verification := &verify.Result{
		Calls:          2,
		FalsePositives: []policy.Issue{{SiteID: "live1111"}},
		Errors:         nil,
	}

	metrics := BuildMetrics(sampleSummary(), verification)
	assert.Equal(t, 2, metrics.APICalls)
	assert.Equal(t, 1, metrics.FalsePositivesEliminated)
	assert.Equal(t, 1, metrics.FinalIssueCount)
	require.NotNil(t, metrics.FinalProblemRatePercent)
	assert.InDelta(t, 10.0, *metrics.FinalProblemRatePercent, 0.01)
}

func TestRenderSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSummaryTable(&buf, sampleSummary(), nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "License")
	assert.Contains(t, out, "Total charged: 10")
	assert.NotContains(t, out, "API verification")
}

func TestRenderIssuesTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderIssuesTable(&buf, sampleIssues())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "abc123de")

	buf.Reset()
	require.NoError(t, RenderIssuesTable(&buf, nil))
	assert.Contains(t, buf.String(), "No flagged items")
}

func TestReportIsCommentPrefixedUntilTable(t *testing.T) {
	var buf bytes.Buffer
	err := fixedWriter().WriteReport(&buf, sampleIssues(), sampleSummary(), nil)
	require.NoError(t, err)

	lines := strings.Split(buf.String(), "\n")
	sawTable := false
	for _, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Site ID;") {
			sawTable = true
			break
		}
		assert.True(t, strings.HasPrefix(line, "#"), "header line %q must be comment-prefixed", line)
	}
	assert.True(t, sawTable)
}
