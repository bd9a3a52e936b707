package tables

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/product"
)

// Required columns of the platform billing export.
const (
	colSiteAlias       = "Site Alias"
	colSiteURL         = "Site URL"
	colChargeFrequency = "Charge Frequency"
	colShouldCharge    = "Should Charge"
	colUnpublication   = "Unpublication Date"
)

// ParseBilling parses the raw comma-separated billing export into line
// items. The encoding is auto-detected, SiteID is kept as text to avoid
// numeric coercion, Should Charge is coerced to 0/1 (non-numeric counts as
// 0), and only billable rows are retained. Product types are assigned with
// the given classifier.
//
// A missing required column fails with a SchemaError naming every missing
// column; the optional Unpublication Date column is tolerated.
func ParseBilling(data []byte, classifier *product.Classifier) ([]BillingLineItem, error) {
	if classifier == nil {
		classifier = product.NewClassifier()
	}

	content, err := decode("billing", data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", "billing", err)
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError("billing",
			colSiteAlias, colSiteURL, colChargeFrequency, colShouldCharge)
	}

	headers := records[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range []string{colSiteAlias, colSiteURL, colChargeFrequency, colShouldCharge} {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError("billing", missing...)
	}

	unpubIdx, hasUnpub := index[colUnpublication]

	items := make([]BillingLineItem, 0, len(records)-1)
	for _, record := range records[1:] {
		if shouldChargeFlag(field(record, index[colShouldCharge])) != 1 {
			continue
		}

		item := BillingLineItem{
			SiteID:          field(record, index[colSiteAlias]),
			SiteURL:         field(record, index[colSiteURL]),
			ChargeFrequency: field(record, index[colChargeFrequency]),
			ShouldCharge:    true,
		}
		if hasUnpub {
			item.UnpublicationDate = field(record, unpubIdx)
		}
		item.Product = classifier.Classify(item.ChargeFrequency)

		items = append(items, item)
	}

	return items, nil
}

// field returns the trimmed cell at idx, tolerating short records.
func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// shouldChargeFlag coerces the Should Charge cell to a 0/1 integer.
// Non-numeric content counts as 0.
func shouldChargeFlag(cell string) int {
	if cell == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0
	}
	return int(value)
}
