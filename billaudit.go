// Package billaudit reconciles billing exports against CRM project data.
// It normalizes both CSV exports, repairs spreadsheet-corrupted site IDs,
// classifies charged products, applies the status and grace-period policy,
// and optionally verifies flagged sites against the platform API.
package billaudit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agencyops/billaudit/pkg/logging"
	"github.com/agencyops/billaudit/pkg/policy"
	"github.com/agencyops/billaudit/pkg/repair"
	"github.com/agencyops/billaudit/pkg/tables"
	"github.com/agencyops/billaudit/pkg/verify"
)

// Reconciler runs the reconciliation pipeline over raw CSV exports.
type Reconciler interface {
	// Run executes the full pipeline on raw billing and CRM CSV bytes.
	Run(ctx context.Context, billingRaw, crmRaw []byte) (*Run, error)
}

// Run holds everything one reconciliation produced.
type Run struct {
	// Items are the charged billing line items after ID repair.
	Items []tables.BillingLineItem

	// CRM are the parsed CRM entries, landing pages expanded.
	CRM []tables.CrmEntry

	// Fixes record every corrupted site ID and its repair outcome.
	Fixes []repair.Fix

	// Issues are the items flagged for manual review, verification
	// enrichment included when the verifier ran.
	Issues []policy.Issue

	// Summary aggregates totals and the per-product breakdown.
	Summary policy.Summary

	// Verification is nil unless a verifier was configured.
	Verification *verify.Result
}

// reconciler is the internal implementation of the Reconciler interface.
type reconciler struct {
	config *config
	logger *zerolog.Logger
}

// New creates a Reconciler with the given options.
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		config: defaultConfig(),
	}

	if err := r.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	r.logger = r.config.logger
	if r.logger == nil {
		r.logger = logging.Default()
	}

	return r, nil
}

// Run executes normalize, repair, classify, evaluate and, when a verifier
// is configured, remote verification. Parse failures abort the run; repair
// and verification failures are recorded per item and never drop one.
func (r *reconciler) Run(ctx context.Context, billingRaw, crmRaw []byte) (*Run, error) {
	items, err := tables.ParseBilling(billingRaw, r.config.classifier)
	if err != nil {
		return nil, err
	}

	crm, err := tables.ParseCRM(crmRaw)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Int("charged_items", len(items)).
		Int("crm_entries", len(crm)).
		Msg("parsed billing and CRM exports")

	items, fixes := repair.Repair(items, crm)
	for i := range fixes {
		fix := &fixes[i]
		if fix.Repaired() {
			r.logger.Debug().
				Str("corrupted_id", fix.CorruptedID).
				Str("repaired_id", fix.RepairedID).
				Str("domain", fix.Domain).
				Int("rows", fix.Rows).
				Msg("repaired corrupted site ID")
			continue
		}
		r.logger.Warn().
			Str("corrupted_id", fix.CorruptedID).
			Str("domain", fix.Domain).
			Err(fix.Err).
			Msg("could not repair corrupted site ID")
	}

	engine := &policy.Engine{Now: r.config.now}
	index := tables.IndexCRM(crm)
	issues := engine.Evaluate(items, index)
	summary := policy.Summarize(items, issues)

	run := &Run{
		Items:   items,
		CRM:     crm,
		Fixes:   fixes,
		Issues:  issues,
		Summary: summary,
	}

	if r.config.verifier != nil && len(issues) > 0 {
		result, err := r.config.verifier.Verify(ctx, issues)
		if err != nil {
			return nil, err
		}
		if result != nil {
			run.Verification = result
			run.Issues = result.Remaining
		}
	}

	r.logger.Info().
		Int("total_charged", summary.TotalCharged).
		Int("ok", summary.OKCount).
		Int("flagged", len(run.Issues)).
		Msg("reconciliation complete")

	return run, nil
}
