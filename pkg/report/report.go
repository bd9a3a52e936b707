// Package report turns flagged issues and summary statistics into
// exportable output: a semicolon-delimited report with a comment-prefixed
// summary header, a separate false-positives report, and a terminal
// summary table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/verify"
)

// reportTimeFormat is the timestamp format in report headers.
const reportTimeFormat = "02.01.2006 15:04"

// issueHeaders are the delimited columns of the issue table.
var issueHeaders = []string{
	"Site ID", "Site URL", "Product", "Charge Frequency",
	"CRM Status", "Project", "Problem", "Days Offline",
}

// apiHeaders extend the issue table once issues carry verification data.
var apiHeaders = []string{
	"API Published", "API Last Published", "API Unpublish Date",
	"API Domain", "API Analysis", "API Recommendation", "API Error",
}

// Writer renders reports. The clock is injectable for deterministic
// header timestamps in tests.
type Writer struct {
	// Now returns the report timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewWriter creates a report writer using the wall clock.
func NewWriter() *Writer {
	return &Writer{Now: time.Now}
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// WriteReport writes the reconciliation report: a comment-prefixed summary
// header followed by the flagged issues as semicolon-delimited rows.
// A nil verification drops the verification tallies from the header.
func (w *Writer) WriteReport(out io.Writer, issues []policy.Issue, summary policy.Summary, verification *verify.Result) error {
	header := fmt.Sprintf("# Billing reconciliation report\n# Date: %s\n#\n", w.now().Format(reportTimeFormat))
	header += "# Summary:\n"
	header += fmt.Sprintf("# - Total charged: %d\n", summary.TotalCharged)
	header += fmt.Sprintf("# - OK: %d\n", summary.OKCount)
	header += fmt.Sprintf("# - Manual review: %d\n", summary.IssueCount)

	if verification != nil {
		header += fmt.Sprintf("# - API verification: %d calls\n", verification.Calls)
		header += fmt.Sprintf("# - False positives: %d\n", len(verification.FalsePositives))
		header += fmt.Sprintf("# - API errors: %d\n", len(verification.Errors))
	}
	header += "#\n"

	if len(summary.Breakdown) > 0 {
		header += "# Breakdown by product type:\n"
		for _, row := range BreakdownRows(summary) {
			header += fmt.Sprintf("# - %s: %d total, %d OK, %d issues\n",
				row.Product, row.Total, row.OK, row.Issues)
		}
		header += "#\n"
	}

	header += "# Flagged items:\n#\n"

	if _, err := io.WriteString(out, header); err != nil {
		return errors.WrapIO("write", "report header", err)
	}

	return writeIssueTable(out, issues, anyVerified(issues))
}

// WriteFalsePositives writes the report of issues eliminated by remote
// verification.
func (w *Writer) WriteFalsePositives(out io.Writer, falsePositives []policy.Issue) error {
	if len(falsePositives) == 0 {
		_, err := io.WriteString(out, "# No false positives found\n")
		return errors.WrapIO("write", "false positives report", err)
	}

	header := fmt.Sprintf("# False positives report - eliminated issues\n# Date: %s\n#\n",
		w.now().Format(reportTimeFormat))
	header += fmt.Sprintf("# Eliminated false positives: %d\n#\n", len(falsePositives))

	if _, err := io.WriteString(out, header); err != nil {
		return errors.WrapIO("write", "false positives header", err)
	}

	cw := csv.NewWriter(out)
	cw.Comma = ';'

	if err := cw.Write([]string{"Site ID", "Product", "Problem", "API Analysis", "API Recommendation"}); err != nil {
		return errors.WrapIO("write", "false positives report", err)
	}
	for i := range falsePositives {
		fp := &falsePositives[i]
		record := []string{fp.SiteID, fp.Product.String(), fp.Problem, fp.APIAnalysis, fp.APIRecommendation}
		if err := cw.Write(record); err != nil {
			return errors.WrapIO("write", "false positives report", err)
		}
	}

	cw.Flush()
	return errors.WrapIO("write", "false positives report", cw.Error())
}

// writeIssueTable renders the flagged issues as semicolon-delimited rows.
func writeIssueTable(out io.Writer, issues []policy.Issue, withAPI bool) error {
	cw := csv.NewWriter(out)
	cw.Comma = ';'

	headers := issueHeaders
	if withAPI {
		headers = append(append([]string{}, issueHeaders...), apiHeaders...)
	}
	if err := cw.Write(headers); err != nil {
		return errors.WrapIO("write", "report", err)
	}

	if len(issues) == 0 {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return errors.WrapIO("write", "report", err)
		}
		_, err := io.WriteString(out, "# No flagged items found!\n")
		return errors.WrapIO("write", "report", err)
	}

	for i := range issues {
		if err := cw.Write(issueRecord(&issues[i], withAPI)); err != nil {
			return errors.WrapIO("write", "report", err)
		}
	}

	cw.Flush()
	return errors.WrapIO("write", "report", cw.Error())
}

func issueRecord(issue *policy.Issue, withAPI bool) []string {
	daysOffline := ""
	if issue.DaysOffline != nil {
		daysOffline = strconv.Itoa(*issue.DaysOffline)
	}

	record := []string{
		issue.SiteID,
		issue.SiteURL,
		issue.Product.String(),
		issue.ChargeFrequency,
		issue.CRMStatus,
		issue.ProjectName,
		issue.Problem,
		daysOffline,
	}
	if withAPI {
		record = append(record,
			issue.APIPublished,
			issue.APILastPublished,
			issue.APIUnpublishDate,
			issue.APISiteDomain,
			issue.APIAnalysis,
			issue.APIRecommendation,
			issue.APIErrorDetails,
		)
	}
	return record
}

func anyVerified(issues []policy.Issue) bool {
	for i := range issues {
		if issues[i].Verified() {
			return true
		}
	}
	return false
}

// BreakdownRow is one product type's share of the summary, for report
// headers and table previews.
type BreakdownRow struct {
	Product product.Type
	Total   int
	OK      int
	Issues  int
}

// BreakdownRows flattens the summary breakdown, sorted by issue count
// descending with the product name as tiebreaker.
func BreakdownRows(summary policy.Summary) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(summary.Breakdown))
	for typ, counts := range summary.Breakdown {
		rows = append(rows, BreakdownRow{
			Product: typ,
			Total:   counts.Total,
			OK:      counts.OK,
			Issues:  counts.Issues,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Issues != rows[j].Issues {
			return rows[i].Issues > rows[j].Issues
		}
		return rows[i].Product < rows[j].Product
	})
	return rows
}
