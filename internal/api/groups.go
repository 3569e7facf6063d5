package api

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/permission"
)

const groupNameMaxLen = 63

// ListGroups lists every group with its members. Admin only.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if err := permission.GroupList.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	groups, count, err := h.store.ListGroups(r.Context(), page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.pager.envelope(r, page, count, fieldset.RenderAll(configured(r, groupSchema()), groups))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateGroup creates a group; the requester becomes its first member.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := permission.Groups.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, _, fe := stringField(body, "name", true, groupNameMaxLen)
	if fe != nil {
		writeError(w, r, fe)
		return
	}

	group, err := h.groups.Create(r.Context(), name, currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, configured(r, groupSchema()).Render(group))
}

// loadGroup runs both permission phases for /roommates-groups/{id}.
func (h *Handler) loadGroup(r *http.Request) (*models.RoommatesGroup, error) {
	req := requester(r)
	if err := permission.Groups.Authorize(req); err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	group, err := h.store.GetGroup(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := permission.Groups.AuthorizeObject(req, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.loadGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, groupSchema()).Render(group))
}

// UpdateGroup renames a group.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.loadGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, _, fe := stringField(body, "name", true, groupNameMaxLen)
	if fe != nil {
		writeError(w, r, fe)
		return
	}

	group.Name = name
	if err := h.store.UpdateGroup(r.Context(), group); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Group renamed", "group_id", group.ID, "by", currentUser(r).ID)
	writeJSON(w, http.StatusOK, configured(r, groupSchema()).Render(group))
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.loadGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteGroup(r.Context(), group.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Group deleted", "group_id", group.ID, "by", currentUser(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// GroupPurchases lists the purchases of every member of the requester's
// group, grouped by member.
func (h *Handler) GroupPurchases(w http.ResponseWriter, r *http.Request) {
	if err := permission.GroupPurchases.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	groupID, ok := currentUser(r).GroupID()
	if !ok {
		writeError(w, r, apperr.New(apperr.PermissionDenied, "you are not a member of a roommates group"))
		return
	}

	group, err := h.store.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.groups.Purchases(r.Context(), group)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, groupPurchasesSchema()).Render(report))
}
