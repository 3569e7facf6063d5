package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/storage"
)

const maxBodyBytes = 1 << 20

// fieldErrors reports several invalid input fields at once.
type fieldErrors []*apperr.Error

func (e fieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// push records fe unless it is nil.
func (e *fieldErrors) push(fe *apperr.Error) {
	if fe != nil {
		*e = append(*e, fe)
	}
}

// add records err if it is a client error and returns any other error.
func (e *fieldErrors) add(err error) error {
	var fe *apperr.Error
	if errors.As(err, &fe) {
		*e = append(*e, fe)
		return nil
	}
	return err
}

func (e fieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError renders err with the status of its kind. Errors that are not
// client errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fe       *apperr.Error
		list     *apperr.List
		fields   fieldErrors
		conflict *storage.ConflictError
	)
	switch {
	case errors.As(err, &fields):
		body := fieldset.NewObject()
		for _, e := range fields {
			key := fieldName(e.Field)
			var msgs []string
			if prev, ok := body.Get(key); ok {
				msgs = prev.([]string)
			}
			body.Set(key, append(msgs, e.Message))
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &list):
		writeJSON(w, list.Kind.Status(), map[string][]string{"errors": list.Messages})
	case errors.As(err, &fe):
		if fe.Field != "" {
			writeJSON(w, fe.Kind.Status(), map[string][]string{fe.Field: {fe.Message}})
			return
		}
		writeDetail(w, fe.Kind.Status(), fe.Message)
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			conflict.Field: {fmt.Sprintf("an object with this %s already exists", conflict.Field)},
		})
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	default:
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

func fieldName(field string) string {
	if field == "" {
		return "non_field_errors"
	}
	return field
}

// decodeObject reads a JSON object body, keeping raw values so handlers
// can tell absent keys from zero values.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&obj); err != nil || obj == nil {
		return nil, apperr.New(apperr.TypeValidation, "expected a JSON object")
	}
	return obj, nil
}

// decodeRaw reads any JSON body.
func decodeRaw(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, apperr.New(apperr.TypeValidation, "malformed JSON body")
	}
	return raw, nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.New(apperr.TypeValidation, "invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// stringField validates a string input field. The boolean reports presence.
func stringField(obj map[string]json.RawMessage, name string, required bool, maxLen int) (string, bool, *apperr.Error) {
	raw, ok := obj[name]
	if !ok {
		if required {
			return "", false, missing(name)
		}
		return "", false, nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, apperr.FieldError(apperr.TypeValidation, name, "not a valid string")
	}
	if s == nil {
		return "", false, apperr.FieldError(apperr.BusinessValidation, name, "this field may not be null")
	}
	v := strings.TrimSpace(*s)
	if v == "" && required {
		return "", false, apperr.FieldError(apperr.BusinessValidation, name, "this field may not be blank")
	}
	if maxLen > 0 && len([]rune(v)) > maxLen {
		return "", false, apperr.FieldError(apperr.BusinessValidation, name, "ensure this field has no more than %d characters", maxLen)
	}
	return v, true, nil
}

func missing(field string) *apperr.Error {
	return apperr.FieldError(apperr.BusinessValidation, field, "this field is required")
}

// boolField validates an optional boolean input field.
func boolField(obj map[string]json.RawMessage, name string) (bool, bool, *apperr.Error) {
	raw, ok := obj[name]
	if !ok {
		return false, false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false, apperr.FieldError(apperr.TypeValidation, name, "must be a valid boolean")
	}
	return b, true, nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.New(apperr.MethodNotAllowed, "method %q not allowed", r.Method))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "not found")
}
