package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/table"
	"github.com/barlyqqyzmet/admin/internal/views"
)

// tableData is the template model of a list page.
type tableData struct {
	Name    string
	Path    string
	Query   table.Query
	Headers []header
	Rows    []row
	Filters []filter
	Total   int
	From    int
	To      int
	PrevURL string
	NextURL string
	// Return is the current URL, posted back by row actions.
	Return string
}

type header struct {
	Label  string
	URL    string
	Active bool
	Desc   bool
}

type row struct {
	Link    string
	Cells   []string
	Actions []action
}

// action is a POST button on a row.
type action struct {
	Label   string
	URL     string
	Confirm string
	Style   string
	Fields  map[string]string
}

type filter struct {
	Name    string
	Label   string
	Options []option
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// listing customizes how a view is projected into a page.
type listing[T any] struct {
	filters []filter
	link    func(T) string
	actions func(T) []action
}

func tablePage[T any](s *Server, r *http.Request, v views.View[T], items []T, opts listing[T]) tableData {
	d, _ := pagedTable(s, r, v, items, opts)
	return d
}

// pagedTable filters, sorts and paginates items with the view spec and builds
// the template model. Extra URL parameters (filters) survive navigation. The
// items on the current page are returned alongside.
func pagedTable[T any](s *Server, r *http.Request, v views.View[T], items []T, opts listing[T]) (tableData, []T) {
	q := table.ParseQuery(r.URL.Query(), s.cfg.PageSize)
	page := table.Apply(items, q, v.Spec)
	q.Offset = page.Offset

	link := func(next table.Query) string {
		vals := url.Values{}
		for k, vs := range r.URL.Query() {
			switch k {
			case "q", "sort", "order", "offset", "limit":
				continue
			}
			vals[k] = vs
		}
		for k, vs := range next.Values() {
			vals[k] = vs
		}
		if len(vals) == 0 {
			return r.URL.Path
		}
		return r.URL.Path + "?" + vals.Encode()
	}

	d := tableData{
		Name:    v.Name,
		Path:    r.URL.Path,
		Query:   q,
		Filters: opts.filters,
		Total:   page.Total,
		From:    page.From(),
		To:      page.To(),
		Return:  r.URL.RequestURI(),
	}
	for _, c := range v.Columns {
		h := header{Label: c.Header}
		if c.SortKey != "" {
			h.URL = link(q.WithSort(c.SortKey))
			h.Active = q.Sort == c.SortKey
			h.Desc = q.Desc
		}
		d.Headers = append(d.Headers, h)
	}
	cells := v.Rows(page.Items)
	for i, it := range page.Items {
		rw := row{Cells: cells[i]}
		if opts.link != nil {
			rw.Link = opts.link(it)
		}
		if opts.actions != nil {
			rw.Actions = opts.actions(it)
		}
		d.Rows = append(d.Rows, rw)
	}
	if page.HasPrev {
		d.PrevURL = link(q.WithOffset(page.PrevOffset))
	}
	if page.HasNext {
		d.NextURL = link(q.WithOffset(page.NextOffset))
	}
	return d, page.Items
}

func selectFilter(name, label, current string, values ...string) filter {
	f := filter{Name: name, Label: label, Options: []option{{Value: "", Label: "All", Selected: current == ""}}}
	for _, v := range values {
		f.Options = append(f.Options, option{Value: v, Label: v, Selected: v == current})
	}
	return f
}

func deleteAction(url, what string) action {
	return action{Label: "Delete", URL: url, Confirm: "Delete " + what + "?", Style: "danger"}
}

func approvalActions(base string, current client.ApprovalStatus) []action {
	var out []action
	if current != client.ApprovalApproved {
		out = append(out, action{Label: "Approve", URL: base, Style: "ok",
			Fields: map[string]string{"status": string(client.ApprovalApproved)}})
	}
	if current != client.ApprovalRejected {
		out = append(out, action{Label: "Reject", URL: base, Style: "danger", Confirm: "Reject this application?",
			Fields: map[string]string{"status": string(client.ApprovalRejected)}})
	}
	return out
}

// --- Overview ---

type stat struct {
	Label string
	Value int
	Link  string
}

type overviewData struct {
	Stats  []stat
	Recent []*audit.Event
}

// handleOverview counts every resource in parallel. The page needs all of
// them, so the first failure aborts the rest.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	api := sessionFrom(r.Context()).API
	stats := []stat{
		{Label: "Users", Link: "/users"},
		{Label: "Listings", Link: "/listings"},
		{Label: "Complaints", Link: "/complaints"},
		{Label: "Taxi orders", Link: "/taxi/orders"},
		{Label: "Drivers pending", Link: "/taxi/drivers?approval=pending"},
		{Label: "Courier orders", Link: "/courier/orders"},
		{Label: "Couriers pending", Link: "/courier/couriers?approval=pending"},
	}
	counters := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { v, err := api.Users.List(ctx); return len(v), err },
		func(ctx context.Context) (int, error) { v, err := api.Listings.Unified(ctx); return len(v), err },
		func(ctx context.Context) (int, error) { v, err := api.Complaints.List(ctx); return len(v), err },
		func(ctx context.Context) (int, error) { v, err := api.Taxi.Orders(ctx); return len(v), err },
		func(ctx context.Context) (int, error) {
			v, err := api.Taxi.Drivers(ctx)
			return len(views.FilterByApproval(v, string(client.ApprovalPending))), err
		},
		func(ctx context.Context) (int, error) { v, err := api.Courier.Orders(ctx); return len(v), err },
		func(ctx context.Context) (int, error) {
			v, err := api.Courier.Couriers(ctx)
			return len(views.FilterByApproval(v, string(client.ApprovalPending))), err
		},
	}

	g, ctx := errgroup.WithContext(r.Context())
	for i, count := range counters {
		g.Go(func() error {
			n, err := count(ctx)
			if err != nil {
				return err
			}
			stats[i].Value = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}

	recent, err := s.engine.Audit().List(audit.Filter{Limit: 10})
	if err != nil {
		s.log.Warn("load audit events", zap.Error(err))
	}
	s.page(w, r, http.StatusOK, "overview.html", "Overview", overviewData{Stats: stats, Recent: recent})
}

// --- Users ---

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := sessionFrom(r.Context()).API.Users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := tablePage(s, r, views.Users, users, listing[client.User]{
		link: func(u client.User) string { return "/users/" + views.Users.ID(u) },
		actions: func(u client.User) []action {
			return []action{deleteAction("/users/"+views.Users.ID(u)+"/delete", "user "+u.FullName())}
		},
	})
	s.page(w, r, http.StatusOK, "table.html", views.Users.Title, data)
}

type userData struct {
	User     *client.User
	Listings tableData
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	api := sessionFrom(r.Context()).API
	id := pathID(r)

	var (
		user     *client.User
		listings []client.UnifiedListing
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { user, err = api.Users.Get(ctx, id); return err })
	g.Go(func() (err error) { listings, err = api.Listings.Unified(ctx); return err })
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}

	own := listings[:0:0]
	for _, l := range listings {
		if l.UserID == id {
			own = append(own, l)
		}
	}
	data := userData{
		User:     user,
		Listings: tablePage(s, r, views.Listings, own, listing[client.UnifiedListing]{link: listingLink}),
	}
	s.page(w, r, http.StatusOK, "user.html", user.FullName(), data)
}

// --- Listings ---

func listingLink(l client.UnifiedListing) string {
	return "/listings/" + views.Listings.ID(l)
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Listings.Unified(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	category, variant := r.URL.Query().Get("category"), r.URL.Query().Get("variant")
	items = views.FilterListings(items, category, variant)

	data := tablePage(s, r, views.Listings, items, listing[client.UnifiedListing]{
		filters: []filter{
			selectFilter("category", "Category", category,
				string(client.CategoryService), string(client.CategoryWork), string(client.CategoryRent)),
			selectFilter("variant", "Type", variant, string(client.VariantOffer), string(client.VariantSeek)),
		},
		link: listingLink,
		actions: func(l client.UnifiedListing) []action {
			return []action{deleteAction(listingLink(l)+"/delete", "listing "+l.Key)}
		},
	})
	s.page(w, r, http.StatusOK, "table.html", views.Listings.Title, data)
}

type listingData struct {
	Listing *client.UnifiedListing
	Label   string
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	kind, err := client.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	l, err := sessionFrom(r.Context()).API.Listings.Get(r.Context(), kind, pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.page(w, r, http.StatusOK, "listing.html", l.Name, listingData{Listing: l, Label: views.ListingLabel(*l)})
}

// --- Categories ---

type categoriesData struct {
	Table      tableData
	Categories []client.Category
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := sessionFrom(r.Context()).API.Categories.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var data categoriesData
	data.Table, data.Categories = pagedTable(s, r, views.Categories, cats, listing[client.Category]{})
	s.page(w, r, http.StatusOK, "categories.html", views.Categories.Title, data)
}

// --- Complaints ---

func (s *Server) handleComplaints(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Complaints.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := tablePage(s, r, views.Complaints, items, listing[client.Complaint]{
		link: func(c client.Complaint) string {
			if c.ListingID == 0 || c.ListingKind == "" {
				return ""
			}
			return fmt.Sprintf("/listings/%s/%d", c.ListingKind, c.ListingID)
		},
		actions: func(c client.Complaint) []action {
			return []action{deleteAction("/complaints/"+views.Complaints.ID(c)+"/delete", "complaint #"+views.Complaints.ID(c))}
		},
	})
	s.page(w, r, http.StatusOK, "table.html", views.Complaints.Title, data)
}

// --- Taxi ---

func (s *Server) handleTaxiOrders(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Taxi.Orders(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.page(w, r, http.StatusOK, "table.html", views.TaxiOrders.Title,
		tablePage(s, r, views.TaxiOrders, items, listing[client.TaxiOrder]{}))
}

func approvalFilter(current string) filter {
	return selectFilter("approval", "Approval", current,
		string(client.ApprovalPending), string(client.ApprovalApproved), string(client.ApprovalRejected))
}

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Taxi.Drivers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := r.URL.Query().Get("approval")
	data := tablePage(s, r, views.Drivers, views.FilterByApproval(items, status), listing[client.Driver]{
		filters: []filter{approvalFilter(status)},
		actions: func(d client.Driver) []action {
			return approvalActions("/taxi/drivers/"+views.Drivers.ID(d)+"/approval", d.ApprovalStatus)
		},
	})
	s.page(w, r, http.StatusOK, "table.html", views.Drivers.Title, data)
}

// --- Courier ---

func (s *Server) handleCourierOrders(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Courier.Orders(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.page(w, r, http.StatusOK, "table.html", views.CourierOrders.Title,
		tablePage(s, r, views.CourierOrders, items, listing[client.CourierOrder]{}))
}

func (s *Server) handleCouriers(w http.ResponseWriter, r *http.Request) {
	items, err := sessionFrom(r.Context()).API.Courier.Couriers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := r.URL.Query().Get("approval")
	data := tablePage(s, r, views.Couriers, views.FilterByApproval(items, status), listing[client.Courier]{
		filters: []filter{approvalFilter(status)},
		actions: func(c client.Courier) []action {
			return approvalActions("/courier/couriers/"+views.Couriers.ID(c)+"/approval", c.ApprovalStatus)
		},
	})
	s.page(w, r, http.StatusOK, "table.html", views.Couriers.Title, data)
}
