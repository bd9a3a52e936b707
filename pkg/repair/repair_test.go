package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/tables"
)

func TestIsCorrupted(t *testing.T) {
	tests := []struct {
		siteID string
		want   bool
	}{
		{"8.3E+07", true},
		{"8.3e+07", true},
		{"1.2e-05", true},
		{"63609f38", false},
		{"deadbeef", false},
		{"", false},
		// Hex ids can contain 'e' without being scientific notation.
		{"e3609f38", false},
	}

	for _, tt := range tests {
		t.Run(tt.siteID, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrupted(tt.siteID))
		})
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com", "example.com"},
		{"http://example.com/path/page", "example.com"},
		{"example.com", "example.com"},
		{"https://Example.COM/?q=1", "example.com"},
		{"www.shop.example.com", "shop.example.com"},
		{"", ""},
		{"nan", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.url))
		})
	}
}

// Scenario: an App row without a URL and its sibling license row share a
// corrupted id; the license URL identifies the CRM entry and both rows are
// rewritten to the true id.
func TestRepairSiblingRows(t *testing.T) {
	items := []tables.BillingLineItem{
		{SiteID: "8.3E+07", ChargeFrequency: "Cookiebot Pro monthly", Product: product.CookieConsent},
		{SiteID: "8.3E+07", SiteURL: "https://example.com", ChargeFrequency: "DudaOne Monthly", Product: product.License},
	}
	crm := []tables.CrmEntry{
		{SiteID: "deadbeef", Domain: "example.com", WorkflowStatus: "Website online"},
	}

	repaired, fixes := Repair(items, crm)
	require.Len(t, fixes, 1)

	fix := fixes[0]
	assert.True(t, fix.Repaired())
	assert.Equal(t, "8.3E+07", fix.CorruptedID)
	assert.Equal(t, "deadbeef", fix.RepairedID)
	assert.Equal(t, "example.com", fix.Domain)
	assert.True(t, fix.BorrowedURL)
	assert.Equal(t, 2, fix.Rows)

	assert.Equal(t, "deadbeef", repaired[0].SiteID)
	assert.Equal(t, "deadbeef", repaired[1].SiteID)
	// The App row got the license URL backfilled.
	assert.Equal(t, "https://example.com", repaired[0].SiteURL)
}

func TestRepairIdempotent(t *testing.T) {
	items := []tables.BillingLineItem{
		{SiteID: "8.3E+07", SiteURL: "https://example.com", Product: product.License},
	}
	crm := []tables.CrmEntry{
		{SiteID: "deadbeef", Domain: "example.com"},
	}

	once, fixes := Repair(items, crm)
	require.Len(t, fixes, 1)
	require.True(t, fixes[0].Repaired())

	for i := range once {
		assert.False(t, IsCorrupted(once[i].SiteID))
	}

	twice, fixes2 := Repair(once, crm)
	assert.Empty(t, fixes2)
	assert.Equal(t, once, twice)
}

func TestRepairAmbiguousLeavesRow(t *testing.T) {
	items := []tables.BillingLineItem{
		{SiteID: "8.3E+07", SiteURL: "https://example.com", Product: product.License},
	}
	crm := []tables.CrmEntry{
		{SiteID: "aaaa1111", Domain: "example.com"},
		{SiteID: "bbbb2222", Domain: "shop.example.com"},
	}

	repaired, fixes := Repair(items, crm)
	require.Len(t, fixes, 1)

	fix := fixes[0]
	assert.False(t, fix.Repaired())
	require.NotNil(t, fix.Err)
	assert.Equal(t, errors.RepairAmbiguous, fix.Err.Kind)
	assert.Equal(t, 2, fix.Err.Matches)

	assert.Equal(t, "8.3E+07", repaired[0].SiteID)
}

func TestRepairUnresolved(t *testing.T) {
	t.Run("no CRM match", func(t *testing.T) {
		items := []tables.BillingLineItem{
			{SiteID: "8.3E+07", SiteURL: "https://nowhere.example", Product: product.License},
		}
		crm := []tables.CrmEntry{{SiteID: "aaaa1111", Domain: "other.example"}}

		repaired, fixes := Repair(items, crm)
		require.Len(t, fixes, 1)
		require.NotNil(t, fixes[0].Err)
		assert.Equal(t, errors.RepairUnresolved, fixes[0].Err.Kind)
		assert.Equal(t, "8.3E+07", repaired[0].SiteID)
	})

	t.Run("no usable URL anywhere", func(t *testing.T) {
		items := []tables.BillingLineItem{
			{SiteID: "8.3E+07", Product: product.CookieConsent},
		}

		_, fixes := Repair(items, nil)
		require.Len(t, fixes, 1)
		require.NotNil(t, fixes[0].Err)
		assert.Equal(t, errors.RepairUnresolved, fixes[0].Err.Kind)
		assert.Empty(t, fixes[0].Domain)
	})
}

// Each distinct corrupted id is processed once even when it spans rows.
func TestRepairDistinctIDsProcessedOnce(t *testing.T) {
	items := []tables.BillingLineItem{
		{SiteID: "8.3E+07", SiteURL: "https://one.example", Product: product.License},
		{SiteID: "8.3E+07", Product: product.CookieConsent},
		{SiteID: "1.1E+09", SiteURL: "https://two.example", Product: product.License},
	}
	crm := []tables.CrmEntry{
		{SiteID: "aaaa1111", Domain: "one.example"},
		{SiteID: "bbbb2222", Domain: "two.example"},
	}

	repaired, fixes := Repair(items, crm)
	require.Len(t, fixes, 2)
	assert.Equal(t, "aaaa1111", repaired[0].SiteID)
	assert.Equal(t, "aaaa1111", repaired[1].SiteID)
	assert.Equal(t, "bbbb2222", repaired[2].SiteID)
}

func TestRepairUntouchedRowsPassThrough(t *testing.T) {
	items := []tables.BillingLineItem{
		{SiteID: "63609f38", SiteURL: "https://fine.example", Product: product.License},
	}

	repaired, fixes := Repair(items, nil)
	assert.Empty(t, fixes)
	assert.Equal(t, "63609f38", repaired[0].SiteID)
}
