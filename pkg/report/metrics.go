package report

import (
	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/verify"
)

// Metrics is a compact numeric overview of one reconciliation run, suited
// for JSON/YAML output and dashboards.
type Metrics struct {
	TotalCharged       int     `json:"total_charged" yaml:"total_charged"`
	OKCount            int     `json:"ok_count" yaml:"ok_count"`
	IssueCount         int     `json:"issues_count" yaml:"issues_count"`
	ProblemRatePercent float64 `json:"problem_rate_percent" yaml:"problem_rate_percent"`

	// Verification metrics, zero-valued when the verifier did not run.
	APICalls                 int      `json:"api_calls_made,omitempty" yaml:"api_calls_made,omitempty"`
	FalsePositivesEliminated int      `json:"false_positives_eliminated,omitempty" yaml:"false_positives_eliminated,omitempty"`
	APIErrors                int      `json:"api_errors,omitempty" yaml:"api_errors,omitempty"`
	FinalIssueCount          int      `json:"final_issues_count,omitempty" yaml:"final_issues_count,omitempty"`
	FinalProblemRatePercent  *float64 `json:"final_problem_rate_percent,omitempty" yaml:"final_problem_rate_percent,omitempty"`
}

// BuildMetrics computes the metric overview. Verification may be nil.
func BuildMetrics(summary policy.Summary, verification *verify.Result) Metrics {
	metrics := Metrics{
		TotalCharged:       summary.TotalCharged,
		OKCount:            summary.OKCount,
		IssueCount:         summary.IssueCount,
		ProblemRatePercent: summary.ProblemRate(),
	}

	if verification == nil {
		return metrics
	}

	metrics.APICalls = verification.Calls
	metrics.FalsePositivesEliminated = len(verification.FalsePositives)
	metrics.APIErrors = len(verification.Errors)
	metrics.FinalIssueCount = summary.IssueCount - len(verification.FalsePositives)

	if summary.TotalCharged > 0 && metrics.FinalIssueCount >= 0 {
		rate := float64(metrics.FinalIssueCount) / float64(summary.TotalCharged) * 100
		rate = float64(int(rate*10+0.5)) / 10
		metrics.FinalProblemRatePercent = &rate
	}

	return metrics
}
