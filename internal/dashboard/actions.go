package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
)

const maxUploadSize = 10 << 20

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	err := sess.API.Users.Delete(r.Context(), id)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionUserDeleted, fmt.Sprintf("user/%d", id), nil)
	}
	s.done(w, r, "/users", err, fmt.Sprintf("User %d deleted.", id))
}

func (s *Server) handleListingDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	kind, err := client.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		s.done(w, r, "/listings", err, "")
		return
	}
	id := pathID(r)
	err = sess.API.Listings.Delete(r.Context(), kind, id)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionListingDeleted, fmt.Sprintf("%s/%d", kind, id), nil)
	}
	s.done(w, r, "/listings", err, fmt.Sprintf("Listing %s-%d deleted.", kind, id))
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.setFlash(w, flashError, "The image is too large or the form is malformed.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))

	var image *client.Upload
	if file, hdr, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image = &client.Upload{Filename: hdr.Filename, Content: file}
	}

	cat, err := sess.API.Categories.Create(r.Context(), name, image)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionCategoryCreated, fmt.Sprintf("category/%d", cat.ID),
			map[string]any{"name": cat.Name, "image": image != nil})
	}
	s.done(w, r, "/categories", err, fmt.Sprintf("Category %q created.", name))
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	err := sess.API.Categories.Delete(r.Context(), id)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionCategoryDeleted, fmt.Sprintf("category/%d", id), nil)
	}
	s.done(w, r, "/categories", err, fmt.Sprintf("Category %d deleted.", id))
}

func (s *Server) handleSubcategoryCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	categoryID := pathID(r)
	name := strings.TrimSpace(r.FormValue("name"))
	sub, err := sess.API.Categories.CreateSubcategory(r.Context(), categoryID, name)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionSubcategoryCreated, fmt.Sprintf("subcategory/%d", sub.ID),
			map[string]any{"category_id": categoryID, "name": sub.Name})
	}
	s.done(w, r, "/categories", err, fmt.Sprintf("Subcategory %q added.", name))
}

func (s *Server) handleSubcategoryDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	err := sess.API.Categories.DeleteSubcategory(r.Context(), id)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionSubcategoryDeleted, fmt.Sprintf("subcategory/%d", id), nil)
	}
	s.done(w, r, "/categories", err, fmt.Sprintf("Subcategory %d deleted.", id))
}

func (s *Server) handleComplaintDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	err := sess.API.Complaints.Delete(r.Context(), id)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionComplaintDeleted, fmt.Sprintf("complaint/%d", id), nil)
	}
	s.done(w, r, "/complaints", err, fmt.Sprintf("Complaint %d deleted.", id))
}

func (s *Server) handleDriverApproval(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	status := client.ApprovalStatus(r.FormValue("status"))
	err := sess.API.Taxi.SetDriverApproval(r.Context(), id, status)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionDriverApproval, fmt.Sprintf("driver/%d", id),
			map[string]string{"status": string(status)})
	}
	s.done(w, r, "/taxi/drivers", err, fmt.Sprintf("Driver %d %s.", id, status))
}

func (s *Server) handleCourierApproval(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := pathID(r)
	status := client.ApprovalStatus(r.FormValue("status"))
	err := sess.API.Courier.SetCourierApproval(r.Context(), id, status)
	if err == nil {
		s.record(r, sess.Actor(), audit.ActionCourierApproval, fmt.Sprintf("courier/%d", id),
			map[string]string{"status": string(status)})
	}
	s.done(w, r, "/courier/couriers", err, fmt.Sprintf("Courier %d %s.", id, status))
}
