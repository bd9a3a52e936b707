package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agencyops/billaudit"
	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/report"
)

// checkOutput is the JSON/YAML shape of a check run.
type checkOutput struct {
	Metrics report.Metrics `json:"metrics" yaml:"metrics"`
	Issues  []policy.Issue `json:"issues" yaml:"issues"`
}

// NewCheckCommand creates the check command with app dependencies.
func NewCheckCommand(app AppContext) *cobra.Command {
	var (
		billingPath        string
		crmPath            string
		reportPath         string
		falsePositivesPath string
		withVerify         bool
	)

	c := &cobra.Command{
		Use:   "check",
		Short: "Reconcile a billing export against CRM data",
		Long: `Check runs the full reconciliation pipeline: it parses the billing and
CRM exports, repairs corrupted site IDs, classifies charged products, and
flags every charge whose CRM status does not justify billing.

With --verify and configured API credentials (BILLAUDIT_API_USERNAME and
BILLAUDIT_API_PASSWORD), flagged sites are re-checked against the platform
API and confirmed false positives are eliminated from the report.`,
		Example: `  billaudit check --billing billing.csv --crm crm.csv
  billaudit check --billing billing.csv --crm crm.csv -o report.csv
  billaudit check --billing billing.csv --crm crm.csv --verify \
      --false-positives eliminated.csv
  billaudit check --billing billing.csv --crm crm.csv --format json`,
		RunE: func(c *cobra.Command, _ []string) error {
			billingRaw, err := os.ReadFile(billingPath)
			if err != nil {
				return errors.WrapIO("read", billingPath, err)
			}
			crmRaw, err := os.ReadFile(crmPath)
			if err != nil {
				return errors.WrapIO("read", crmPath, err)
			}

			reconciler, err := app.Reconciler(withVerify)
			if err != nil {
				return err
			}

			run, err := reconciler.Run(c.Context(), billingRaw, crmRaw)
			if err != nil {
				return err
			}

			if falsePositivesPath != "" && run.Verification != nil {
				if err := writeFalsePositivesFile(falsePositivesPath, run); err != nil {
					return err
				}
				app.Logger().Info().Str("path", falsePositivesPath).Msg("Wrote false positives report")
			}

			if reportPath != "" {
				if err := writeReportFile(reportPath, run); err != nil {
					return err
				}
				app.Logger().Info().Str("path", reportPath).Msg("Wrote reconciliation report")
				return nil
			}

			return printRun(c, app.Format(), run)
		},
	}

	c.Flags().StringVar(&billingPath, "billing", "", "billing export CSV (required)")
	c.Flags().StringVar(&crmPath, "crm", "", "CRM export CSV (required)")
	c.Flags().StringVarP(&reportPath, "out", "o", "", "write the report to a CSV file instead of stdout")
	c.Flags().StringVar(&falsePositivesPath, "false-positives", "", "write eliminated false positives to a CSV file")
	c.Flags().BoolVar(&withVerify, "verify", false, "verify flagged sites against the platform API")
	_ = c.MarkFlagRequired("billing")
	_ = c.MarkFlagRequired("crm")

	return c
}

func writeReportFile(path string, run *billaudit.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	writer := report.NewWriter()
	return writer.WriteReport(f, run.Issues, run.Summary, run.Verification)
}

func writeFalsePositivesFile(path string, run *billaudit.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	writer := report.NewWriter()
	return writer.WriteFalsePositives(f, run.Verification.FalsePositives)
}

// printRun renders a run to stdout in the requested format.
func printRun(c *cobra.Command, format string, run *billaudit.Run) error {
	out := c.OutOrStdout()

	switch format {
	case "json":
		payload := checkOutput{
			Metrics: report.BuildMetrics(run.Summary, run.Verification),
			Issues:  run.Issues,
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)

	case "yaml":
		payload := checkOutput{
			Metrics: report.BuildMetrics(run.Summary, run.Verification),
			Issues:  run.Issues,
		}
		data, err := yaml.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		_, err = out.Write(data)
		return err

	case "table", "":
		if err := report.RenderSummaryTable(out, run.Summary, run.Verification); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return report.RenderIssuesTable(out, run.Issues)

	default:
		return fmt.Errorf("unknown format: %s (supported: table, json, yaml)", format)
	}
}
