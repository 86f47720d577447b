package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/table"
)

func ts(s string) client.Timestamp {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return client.Timestamp{Time: t}
}

func TestUsersView(t *testing.T) {
	users := []client.User{
		{ID: 1, Name: "Dana", Surname: "Sarsen", Email: "dana@example.kz", City: "Almaty", ReviewRating: 4.5},
		{ID: 2, Name: "bolat", Email: "bolat@example.kz", City: "Astana"},
		{ID: 3, Name: "Aisulu", Email: "aisulu@example.kz", City: "Almaty", ReviewRating: 3},
	}

	page := table.Apply(users, table.Query{Search: "almaty", Sort: "name", Limit: 10}, Users.Spec)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.Equal(t, int64(1), page.Items[1].ID)

	rows := Users.Rows(page.Items)
	assert.Equal(t, len(Users.Headers()), len(rows[0]))
	assert.Equal(t, "Dana Sarsen", rows[1][1])
	assert.Equal(t, "4.5", rows[1][6])
	assert.Equal(t, "-", rows[1][3], "missing phone renders as dash")
}

func TestColumnSortKeysAreComparable(t *testing.T) {
	check := func(name string, keys []string, comparators []string) {
		t.Helper()
		for _, k := range keys {
			assert.Contains(t, comparators, k, "%s column sort key %q", name, k)
		}
	}
	check("users", sortKeys(Users), Users.Spec.SortKeys())
	check("listings", sortKeys(Listings), Listings.Spec.SortKeys())
	check("complaints", sortKeys(Complaints), Complaints.Spec.SortKeys())
	check("taxi orders", sortKeys(TaxiOrders), TaxiOrders.Spec.SortKeys())
	check("drivers", sortKeys(Drivers), Drivers.Spec.SortKeys())
	check("courier orders", sortKeys(CourierOrders), CourierOrders.Spec.SortKeys())
	check("couriers", sortKeys(Couriers), Couriers.Spec.SortKeys())
	check("categories", sortKeys(Categories), Categories.Spec.SortKeys())
}

func sortKeys[T any](v View[T]) []string {
	var out []string
	for _, c := range v.Columns {
		if c.SortKey != "" {
			out = append(out, c.SortKey)
		}
	}
	return out
}

func TestListingsView(t *testing.T) {
	items := []client.UnifiedListing{
		{Listing: client.Listing{ID: 1, Name: "Plumber", Price: 15000, CreatedAt: ts("2024-03-01T10:00:00Z")},
			Kind: client.KindService, Category: client.CategoryService, Variant: client.VariantOffer, Key: "service-1"},
		{Listing: client.Listing{ID: 1, Name: "Need a plumber", CreatedAt: ts("2024-03-02T10:00:00Z")},
			Kind: client.KindAd, Category: client.CategoryService, Variant: client.VariantSeek, Key: "ad-1"},
		{Listing: client.Listing{ID: 7, Name: "Flat in Astana", Price: 250000, CreatedAt: ts("2024-02-01T10:00:00Z")},
			Kind: client.KindRent, Category: client.CategoryRent, Variant: client.VariantOffer, Key: "rent-7"},
	}

	assert.Len(t, FilterListings(items, "", ""), 3)
	assert.Len(t, FilterListings(items, "service", ""), 2)
	only := FilterListings(items, "service", "seek")
	require.Len(t, only, 1)
	assert.Equal(t, "ad-1", only[0].Key)

	page := table.Apply(items, table.Query{Sort: "price", Desc: true, Limit: 10}, Listings.Spec)
	assert.Equal(t, "rent-7", page.Items[0].Key)

	assert.Equal(t, "service offer", ListingLabel(items[0]))
	assert.Equal(t, "service request", ListingLabel(items[1]))
	assert.Equal(t, "service/1", Listings.ID(items[0]))
	assert.Equal(t, "ad/1", Listings.ID(items[1]))

	rows := Listings.Rows(items)
	assert.Equal(t, "15,000 ₸", rows[0][4])
	assert.Equal(t, "-", rows[1][4])
}

func TestFilterByApproval(t *testing.T) {
	drivers := []client.Driver{
		{ID: 1, ApprovalStatus: client.ApprovalPending},
		{ID: 2, ApprovalStatus: client.ApprovalApproved},
		{ID: 3, ApprovalStatus: client.ApprovalPending},
	}
	pending := FilterByApproval(drivers, "pending")
	require.Len(t, pending, 2)
	assert.Equal(t, int64(3), pending[1].ID)
	assert.Len(t, FilterByApproval(drivers, ""), 3)

	couriers := []client.Courier{{ID: 9, ApprovalStatus: client.ApprovalRejected}}
	assert.Len(t, FilterByApproval(couriers, "rejected"), 1)
	assert.Empty(t, FilterByApproval(couriers, "approved"))
}

func TestComplaintsListingCell(t *testing.T) {
	rows := Complaints.Rows([]client.Complaint{
		{ID: 1, ListingID: 4, ListingKind: client.KindWork, Description: "spam   spam\nspam"},
		{ID: 2, ListingID: 5},
		{ID: 3},
	})
	assert.Equal(t, "work-4", rows[0][2])
	assert.Equal(t, "spam spam spam", rows[0][3])
	assert.Equal(t, "5", rows[1][2])
	assert.Equal(t, "-", rows[2][2])
}

func TestCategoriesSearchesSubcategories(t *testing.T) {
	cats := []client.Category{
		{ID: 1, Name: "Repair", Subcategories: []client.Subcategory{{ID: 10, Name: "Plumbing"}}},
		{ID: 2, Name: "Cleaning"},
	}
	page := table.Apply(cats, table.Query{Search: "plumb", Limit: 10}, Categories.Spec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Plumbing (10)", Categories.Rows(page.Items)[0][2])
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "-", Ago(client.Timestamp{}))
	assert.Equal(t, "-", Date(client.Timestamp{}))
	assert.Equal(t, "1,234.5 ₸", Price(1234.5))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "абв…", Truncate("абвгде", 4))
}
