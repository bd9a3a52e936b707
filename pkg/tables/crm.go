package tables

import (
	"encoding/csv"
	"strings"

	"github.com/agencyops/billaudit/pkg/errors"
)

// Detection names used in SchemaError messages when a required CRM column
// cannot be located.
const (
	crmStandardIDLabel = "Duda-Site-ID"
	crmStatusLabel     = "Workflow-Status"
)

// landingPageSuffix marks synthetic entries expanded from the secondary
// landing-page identifier column.
const landingPageSuffix = " (Landingpage)"

// defaultProjectName is used when the export lacks a project column.
const defaultProjectName = "Unknown"

// ParseCRM parses the raw semicolon-separated CRM export into entries.
// Columns are located by case-insensitive predicates rather than fixed
// names (see columns.go). The standard site-id and workflow-status columns
// are required; domain and project name are optional. Landing-page
// identifiers not already present as standard ids are expanded into
// synthetic entries sharing status and domain, with the project name
// suffixed to mark provenance.
func ParseCRM(data []byte) ([]CrmEntry, error) {
	content, err := decode("crm", data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", "crm", err)
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError("crm", crmStandardIDLabel, crmStatusLabel)
	}

	headers := records[0]
	cols, err := resolveCRMColumns(headers)
	if err != nil {
		return nil, err
	}

	entries := make([]CrmEntry, 0, len(records)-1)
	standardIDs := make(map[string]bool, len(records)-1)

	for _, record := range records[1:] {
		siteID := field(record, cols.siteID)
		if siteID == "" {
			continue
		}
		entries = append(entries, CrmEntry{
			SiteID:         siteID,
			WorkflowStatus: field(record, cols.status),
			Domain:         field(record, cols.domain),
			ProjectName:    projectName(record, cols.project),
		})
		standardIDs[siteID] = true
	}

	// Expand landing-page ids into synthetic lookup rows.
	if cols.landingID >= 0 {
		for _, record := range records[1:] {
			landingID := field(record, cols.landingID)
			if landingID == "" || standardIDs[landingID] {
				continue
			}
			name := "Landingpage"
			if cols.project >= 0 {
				name = projectName(record, cols.project) + landingPageSuffix
			}
			entries = append(entries, CrmEntry{
				SiteID:         landingID,
				WorkflowStatus: field(record, cols.status),
				Domain:         field(record, cols.domain),
				ProjectName:    name,
				LandingPage:    true,
			})
		}
	}

	return entries, nil
}

// crmColumns holds resolved column indexes; -1 marks an absent optional
// column.
type crmColumns struct {
	siteID    int
	landingID int
	status    int
	domain    int
	project   int
}

func resolveCRMColumns(headers []string) (crmColumns, error) {
	cols := crmColumns{siteID: -1, landingID: -1, status: -1, domain: -1, project: -1}

	// The two id slots share a candidate gate and are told apart by exact
	// header names.
	for i, h := range headers {
		name := normalizeHeader(h)
		if !crmSiteIDCandidate(name) {
			continue
		}
		switch {
		case crmLandingIDNames(name):
			cols.landingID = i
		case crmStandardIDNames(name):
			cols.siteID = i
		}
	}

	if idx, ok := resolveColumn(headers, crmStatusColumn); ok {
		cols.status = idx
	}
	if idx, ok := resolveColumn(headers, crmDomainColumn); ok {
		cols.domain = idx
	}
	if idx, ok := resolveColumn(headers, crmProjectColumn); ok {
		cols.project = idx
	}

	var missing []string
	if cols.siteID < 0 {
		missing = append(missing, crmStandardIDLabel)
	}
	if cols.status < 0 {
		missing = append(missing, crmStatusLabel)
	}
	if len(missing) > 0 {
		return cols, errors.NewSchemaError("crm", missing...)
	}

	return cols, nil
}

func projectName(record []string, idx int) string {
	if idx < 0 {
		return defaultProjectName
	}
	name := field(record, idx)
	if name == "" {
		return defaultProjectName
	}
	return name
}
