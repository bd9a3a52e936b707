package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/verify"
)

// RenderSummaryTable renders the per-product breakdown as a terminal
// table, followed by the run totals and verification tallies.
func RenderSummaryTable(out io.Writer, summary policy.Summary, verification *verify.Result) error {
	table := tablewriter.NewTable(out)
	table.Header("Product", "Total", "OK", "Issues")

	for _, row := range BreakdownRows(summary) {
		err := table.Append(
			row.Product.String(),
			strconv.Itoa(row.Total),
			strconv.Itoa(row.OK),
			strconv.Itoa(row.Issues),
		)
		if err != nil {
			return errors.WrapIO("write", "summary table", err)
		}
	}

	if err := table.Render(); err != nil {
		return errors.WrapIO("write", "summary table", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal charged: %d   OK: %d   Manual review: %d (%.1f%%)\n",
		summary.TotalCharged, summary.OKCount, summary.IssueCount, summary.ProblemRate())
	if err != nil {
		return errors.WrapIO("write", "summary table", err)
	}

	if verification != nil {
		_, err = fmt.Fprintf(out, "API verification: %d calls, %d false positives, %d confirmed, %d errors\n",
			verification.Calls, len(verification.FalsePositives),
			verification.ConfirmedCount(), len(verification.Errors))
		if err != nil {
			return errors.WrapIO("write", "summary table", err)
		}
	}

	return nil
}

// RenderIssuesTable renders the flagged issues as a terminal table.
func RenderIssuesTable(out io.Writer, issues []policy.Issue) error {
	if len(issues) == 0 {
		_, err := io.WriteString(out, "No flagged items found!\n")
		return errors.WrapIO("write", "issues table", err)
	}

	table := tablewriter.NewTable(out)
	table.Header("Site ID", "Product", "CRM Status", "Project", "Problem", "Days Offline")

	for i := range issues {
		issue := &issues[i]
		daysOffline := ""
		if issue.DaysOffline != nil {
			daysOffline = strconv.Itoa(*issue.DaysOffline)
		}
		err := table.Append(issue.SiteID, issue.Product.String(), issue.CRMStatus,
			issue.ProjectName, issue.Problem, daysOffline)
		if err != nil {
			return errors.WrapIO("write", "issues table", err)
		}
	}

	if err := table.Render(); err != nil {
		return errors.WrapIO("write", "issues table", err)
	}
	return nil
}
