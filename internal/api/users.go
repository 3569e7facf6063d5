package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/permission"
	"github.com/mmynk/hostel/internal/relation"
)

const nameMaxLen = 150

// ListUsers lists every account. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if err := permission.UserList.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, count, err := h.store.ListUsers(r.Context(), page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.pager.envelope(r, page, count, fieldset.RenderAll(configured(r, userSchema()), users))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// loadUser runs both permission phases for /users/{id}.
func (h *Handler) loadUser(r *http.Request) (*models.User, error) {
	req := requester(r)
	if err := permission.Users.Authorize(req); err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := permission.Users.AuthorizeObject(req, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, userSchema()).Render(user))
}

// UpdateUser handles PUT (every writable field required) and PATCH
// (only the submitted fields change). Role flags are ignored unless the
// requester is an admin.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.applyUserChanges(r.Context(), user, body, r.Method == http.MethodPut, currentUser(r).IsAdmin()); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.store.GetUserByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("User updated", "user_id", user.ID, "by", currentUser(r).ID)
	writeJSON(w, http.StatusOK, configured(r, userSchema()).Render(updated))
}

func (h *Handler) applyUserChanges(ctx context.Context, user *models.User, body map[string]json.RawMessage, full, admin bool) error {
	var errs fieldErrors

	if v, ok, fe := stringField(body, "username", full, nameMaxLen); ok {
		user.Username = v
	} else {
		errs.push(fe)
	}
	if v, ok, fe := stringField(body, "email", full, 254); ok {
		if !strings.Contains(v, "@") {
			errs.push(apperr.FieldError(apperr.BusinessValidation, "email", "enter a valid email address"))
		}
		user.Email = v
	} else {
		errs.push(fe)
	}
	if v, ok, fe := stringField(body, "first_name", false, nameMaxLen); ok {
		user.FirstName = v
	} else {
		errs.push(fe)
	}
	if v, ok, fe := stringField(body, "last_name", false, nameMaxLen); ok {
		user.LastName = v
	} else {
		errs.push(fe)
	}

	if raw, ok := body["roommates_group"]; ok {
		groups := relation.Resolver[*models.RoommatesGroup]{
			Field:    "roommates_group",
			Mode:     relation.ByID,
			Nullable: true,
			Lookup:   h.store.GetGroup,
		}
		group, found, err := groups.Resolve(ctx, raw)
		if err := errs.add(err); err != nil {
			return err
		}
		if err == nil {
			user.RoommatesGroupID = nil
			if found {
				user.RoommatesGroupID = &group.ID
			}
		}
	}

	if admin {
		if v, ok, fe := boolField(body, "is_staff"); ok {
			user.IsStaff = v
		} else {
			errs.push(fe)
		}
		if v, ok, fe := boolField(body, "is_superuser"); ok {
			user.IsSuperuser = v
		} else {
			errs.push(fe)
		}
	}

	return errs.orNil()
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("User deleted", "user_id", user.ID, "by", currentUser(r).ID)
	w.WriteHeader(http.StatusNoContent)
}
