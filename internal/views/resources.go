package views

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/table"
)

var Users = View[client.User]{
	Name:  "users",
	Title: "Users",
	ID:    func(u client.User) string { return id(u.ID) },
	Spec: table.Spec[client.User]{
		Fields: func(u client.User) []string {
			return []string{u.Name, u.Surname, u.Email, u.Phone, u.City}
		},
		Comparators: map[string]table.Compare[client.User]{
			"id":      func(a, b client.User) int { return cmp.Compare(a.ID, b.ID) },
			"name":    func(a, b client.User) int { return byFold(a.FullName(), b.FullName()) },
			"email":   func(a, b client.User) int { return byFold(a.Email, b.Email) },
			"rating":  func(a, b client.User) int { return cmp.Compare(a.ReviewRating, b.ReviewRating) },
			"created": func(a, b client.User) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.User]{
		{"ID", "id", func(u client.User) string { return id(u.ID) }},
		{"Name", "name", func(u client.User) string { return or(u.FullName()) }},
		{"Email", "email", func(u client.User) string { return or(u.Email) }},
		{"Phone", "", func(u client.User) string { return or(u.Phone) }},
		{"City", "", func(u client.User) string { return or(u.City) }},
		{"Role", "", func(u client.User) string { return or(u.Role) }},
		{"Rating", "rating", func(u client.User) string { return rating(u.ReviewRating) }},
		{"Created", "created", func(u client.User) string { return Ago(u.CreatedAt) }},
	},
}

// ListingLabel is the human tag shown for a unified listing.
func ListingLabel(l client.UnifiedListing) string {
	verb := "offer"
	if l.Variant == client.VariantSeek {
		verb = "request"
	}
	return fmt.Sprintf("%s %s", l.Category, verb)
}

var Listings = View[client.UnifiedListing]{
	Name:  "listings",
	Title: "Listings",
	ID:    func(l client.UnifiedListing) string { return fmt.Sprintf("%s/%d", l.Kind, l.ID) },
	Spec: table.Spec[client.UnifiedListing]{
		Fields: func(l client.UnifiedListing) []string {
			return []string{l.Name, l.Description, l.Address, string(l.Kind), l.Key}
		},
		Comparators: map[string]table.Compare[client.UnifiedListing]{
			"name":    func(a, b client.UnifiedListing) int { return byFold(a.Name, b.Name) },
			"price":   func(a, b client.UnifiedListing) int { return cmp.Compare(a.Price, b.Price) },
			"rating":  func(a, b client.UnifiedListing) int { return cmp.Compare(a.AvgRating, b.AvgRating) },
			"created": func(a, b client.UnifiedListing) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.UnifiedListing]{
		{"Key", "", func(l client.UnifiedListing) string { return l.Key }},
		{"Type", "", ListingLabel},
		{"Name", "name", func(l client.UnifiedListing) string { return or(Truncate(l.Name, 40)) }},
		{"Address", "", func(l client.UnifiedListing) string { return or(Truncate(l.Address, 30)) }},
		{"Price", "price", func(l client.UnifiedListing) string { return Price(l.Price) }},
		{"Rating", "rating", func(l client.UnifiedListing) string { return rating(l.AvgRating) }},
		{"User", "", func(l client.UnifiedListing) string { return optID(l.UserID) }},
		{"Created", "created", func(l client.UnifiedListing) string { return Ago(l.CreatedAt) }},
	},
}

// FilterListings keeps listings matching category and variant. Empty values
// match everything.
func FilterListings(items []client.UnifiedListing, category, variant string) []client.UnifiedListing {
	if category == "" && variant == "" {
		return items
	}
	out := make([]client.UnifiedListing, 0, len(items))
	for _, l := range items {
		if category != "" && string(l.Category) != category {
			continue
		}
		if variant != "" && string(l.Variant) != variant {
			continue
		}
		out = append(out, l)
	}
	return out
}

var Complaints = View[client.Complaint]{
	Name:  "complaints",
	Title: "Complaints",
	ID:    func(c client.Complaint) string { return id(c.ID) },
	Spec: table.Spec[client.Complaint]{
		Fields: func(c client.Complaint) []string {
			return []string{c.Description, string(c.ListingKind), id(c.UserID)}
		},
		Comparators: map[string]table.Compare[client.Complaint]{
			"id":      func(a, b client.Complaint) int { return cmp.Compare(a.ID, b.ID) },
			"created": func(a, b client.Complaint) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.Complaint]{
		{"ID", "id", func(c client.Complaint) string { return id(c.ID) }},
		{"User", "", func(c client.Complaint) string { return optID(c.UserID) }},
		{"Listing", "", func(c client.Complaint) string {
			if c.ListingID == 0 {
				return "-"
			}
			if c.ListingKind == "" {
				return id(c.ListingID)
			}
			return fmt.Sprintf("%s-%d", c.ListingKind, c.ListingID)
		}},
		{"Description", "", func(c client.Complaint) string { return or(Truncate(c.Description, 60)) }},
		{"Created", "created", func(c client.Complaint) string { return Ago(c.CreatedAt) }},
	},
}

var TaxiOrders = View[client.TaxiOrder]{
	Name:  "taxi-orders",
	Title: "Taxi orders",
	ID:    func(o client.TaxiOrder) string { return id(o.ID) },
	Spec: table.Spec[client.TaxiOrder]{
		Fields: func(o client.TaxiOrder) []string { return []string{o.FromAddress, o.ToAddress, o.Status} },
		Comparators: map[string]table.Compare[client.TaxiOrder]{
			"id":      func(a, b client.TaxiOrder) int { return cmp.Compare(a.ID, b.ID) },
			"price":   func(a, b client.TaxiOrder) int { return cmp.Compare(a.Price, b.Price) },
			"status":  func(a, b client.TaxiOrder) int { return cmp.Compare(a.Status, b.Status) },
			"created": func(a, b client.TaxiOrder) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.TaxiOrder]{
		{"ID", "id", func(o client.TaxiOrder) string { return id(o.ID) }},
		{"Passenger", "", func(o client.TaxiOrder) string { return optID(o.PassengerID) }},
		{"Driver", "", func(o client.TaxiOrder) string { return optID(o.DriverID) }},
		{"From", "", func(o client.TaxiOrder) string { return or(Truncate(o.FromAddress, 30)) }},
		{"To", "", func(o client.TaxiOrder) string { return or(Truncate(o.ToAddress, 30)) }},
		{"Price", "price", func(o client.TaxiOrder) string { return Price(o.Price) }},
		{"Status", "status", func(o client.TaxiOrder) string { return or(o.Status) }},
		{"Created", "created", func(o client.TaxiOrder) string { return Ago(o.CreatedAt) }},
	},
}

var Drivers = View[client.Driver]{
	Name:  "taxi-drivers",
	Title: "Taxi drivers",
	ID:    func(d client.Driver) string { return id(d.ID) },
	Spec: table.Spec[client.Driver]{
		Fields: func(d client.Driver) []string {
			return []string{d.Name, d.Surname, d.Phone, d.CarModel, d.CarNumber}
		},
		Comparators: map[string]table.Compare[client.Driver]{
			"id":      func(a, b client.Driver) int { return cmp.Compare(a.ID, b.ID) },
			"name":    func(a, b client.Driver) int { return byFold(a.Name+" "+a.Surname, b.Name+" "+b.Surname) },
			"status":  func(a, b client.Driver) int { return cmp.Compare(a.ApprovalStatus, b.ApprovalStatus) },
			"created": func(a, b client.Driver) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.Driver]{
		{"ID", "id", func(d client.Driver) string { return id(d.ID) }},
		{"Name", "name", func(d client.Driver) string { return or(strings.TrimSpace(d.Name + " " + d.Surname)) }},
		{"Phone", "", func(d client.Driver) string { return or(d.Phone) }},
		{"Car", "", func(d client.Driver) string { return or(d.CarModel) }},
		{"Plate", "", func(d client.Driver) string { return or(d.CarNumber) }},
		{"Approval", "status", func(d client.Driver) string { return or(string(d.ApprovalStatus)) }},
		{"Created", "created", func(d client.Driver) string { return Ago(d.CreatedAt) }},
	},
}

var CourierOrders = View[client.CourierOrder]{
	Name:  "courier-orders",
	Title: "Courier orders",
	ID:    func(o client.CourierOrder) string { return id(o.ID) },
	Spec: table.Spec[client.CourierOrder]{
		Fields: func(o client.CourierOrder) []string {
			return []string{o.FromAddress, o.ToAddress, o.Status, o.Comment}
		},
		Comparators: map[string]table.Compare[client.CourierOrder]{
			"id":      func(a, b client.CourierOrder) int { return cmp.Compare(a.ID, b.ID) },
			"price":   func(a, b client.CourierOrder) int { return cmp.Compare(a.Price, b.Price) },
			"status":  func(a, b client.CourierOrder) int { return cmp.Compare(a.Status, b.Status) },
			"created": func(a, b client.CourierOrder) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.CourierOrder]{
		{"ID", "id", func(o client.CourierOrder) string { return id(o.ID) }},
		{"Sender", "", func(o client.CourierOrder) string { return optID(o.SenderID) }},
		{"Courier", "", func(o client.CourierOrder) string { return optID(o.CourierID) }},
		{"From", "", func(o client.CourierOrder) string { return or(Truncate(o.FromAddress, 30)) }},
		{"To", "", func(o client.CourierOrder) string { return or(Truncate(o.ToAddress, 30)) }},
		{"Price", "price", func(o client.CourierOrder) string { return Price(o.Price) }},
		{"Status", "status", func(o client.CourierOrder) string { return or(o.Status) }},
		{"Created", "created", func(o client.CourierOrder) string { return Ago(o.CreatedAt) }},
	},
}

var Couriers = View[client.Courier]{
	Name:  "couriers",
	Title: "Couriers",
	ID:    func(c client.Courier) string { return id(c.ID) },
	Spec: table.Spec[client.Courier]{
		Fields: func(c client.Courier) []string { return []string{c.Name, c.Surname, c.Phone} },
		Comparators: map[string]table.Compare[client.Courier]{
			"id":      func(a, b client.Courier) int { return cmp.Compare(a.ID, b.ID) },
			"name":    func(a, b client.Courier) int { return byFold(a.Name+" "+a.Surname, b.Name+" "+b.Surname) },
			"status":  func(a, b client.Courier) int { return cmp.Compare(a.ApprovalStatus, b.ApprovalStatus) },
			"created": func(a, b client.Courier) int { return byTime(a.CreatedAt, b.CreatedAt) },
		},
	},
	Columns: []Column[client.Courier]{
		{"ID", "id", func(c client.Courier) string { return id(c.ID) }},
		{"Name", "name", func(c client.Courier) string { return or(strings.TrimSpace(c.Name + " " + c.Surname)) }},
		{"Phone", "", func(c client.Courier) string { return or(c.Phone) }},
		{"Approval", "status", func(c client.Courier) string { return or(string(c.ApprovalStatus)) }},
		{"Created", "created", func(c client.Courier) string { return Ago(c.CreatedAt) }},
	},
}

// ApprovalOf is satisfied by drivers and couriers.
type ApprovalOf interface {
	client.Driver | client.Courier
}

// FilterByApproval keeps rows in the given approval status.
func FilterByApproval[T ApprovalOf](items []T, status string) []T {
	if status == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		var s client.ApprovalStatus
		switch v := any(it).(type) {
		case client.Driver:
			s = v.ApprovalStatus
		case client.Courier:
			s = v.ApprovalStatus
		}
		if string(s) == status {
			out = append(out, it)
		}
	}
	return out
}

var Categories = View[client.Category]{
	Name:  "categories",
	Title: "Categories",
	ID:    func(c client.Category) string { return id(c.ID) },
	Spec: table.Spec[client.Category]{
		Fields: func(c client.Category) []string {
			fields := []string{c.Name}
			for _, s := range c.Subcategories {
				fields = append(fields, s.Name)
			}
			return fields
		},
		Comparators: map[string]table.Compare[client.Category]{
			"id":   func(a, b client.Category) int { return cmp.Compare(a.ID, b.ID) },
			"name": func(a, b client.Category) int { return byFold(a.Name, b.Name) },
		},
	},
	Columns: []Column[client.Category]{
		{"ID", "id", func(c client.Category) string { return id(c.ID) }},
		{"Name", "name", func(c client.Category) string { return or(c.Name) }},
		{"Subcategories", "", func(c client.Category) string {
			names := make([]string, 0, len(c.Subcategories))
			for _, s := range c.Subcategories {
				names = append(names, fmt.Sprintf("%s (%d)", s.Name, s.ID))
			}
			return or(Truncate(strings.Join(names, ", "), 70))
		}},
	},
}
