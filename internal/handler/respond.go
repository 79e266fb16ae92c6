package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// entityMessages maps NotFoundError entities to message IDs.
var entityMessages = map[string]string{
	model.EntityUser:    "EntityUser",
	model.EntityTeacher: "EntityTeacher",
	model.EntityTest:    "EntityTest",
	model.EntityResult:  "EntityResult",
	model.EntitySession: "EntitySession",
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps err to a status code and a localized detail. Internal errors
// are logged and replaced with a generic detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var (
		status int
		detail string
		nf     *model.NotFoundError
		ve     *model.ValidationError
	)
	switch {
	case errors.Is(err, errInvalidBody):
		status, detail = http.StatusBadRequest, i18n.T(ctx, "ErrInvalidBody")
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		detail = i18n.Td(ctx, "ErrValidation", map[string]any{"Field": ve.Field, "Reason": ve.Reason})
		if ve.Field == "" {
			detail = ve.Reason
		}
	case errors.Is(err, model.ErrUnauthorized):
		status, detail = http.StatusUnauthorized, i18n.T(ctx, "ErrUnauthorized")
	case errors.Is(err, model.ErrForbidden):
		status, detail = http.StatusForbidden, i18n.T(ctx, "ErrForbidden")
	case errors.Is(err, model.ErrDeadlineExceeded):
		status, detail = http.StatusForbidden, i18n.T(ctx, "ErrDeadlineExceeded")
	case errors.As(err, &nf):
		entity := nf.Entity
		if id, ok := entityMessages[entity]; ok {
			entity = i18n.T(ctx, id)
		}
		status, detail = http.StatusNotFound, i18n.Td(ctx, "ErrNotFound", map[string]any{"Entity": entity})
	case errors.Is(err, model.ErrConflict):
		status, detail = http.StatusConflict, i18n.T(ctx, "ErrConflict")
	default:
		slog.Error("request failed",
			"request_id", middleware.GetReqID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		status, detail = http.StatusInternalServerError, i18n.T(ctx, "ErrInternal")
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decode reads a JSON body into dst and validates its struct tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		slog.Debug("decode request body", "path", r.URL.Path, "error", err)
		return errInvalidBody
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError converts the first validator failure into a ValidationError.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return errInvalidBody
	}
	fe := errs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "email":
		reason = "must be a valid email address"
	case "oneof":
		reason = "must be one of: " + fe.Param()
	case "min":
		reason = "must have at least " + fe.Param() + " item(s)"
		if fe.Kind() != reflect.Slice {
			reason = "must be at least " + fe.Param()
		}
	case "gt":
		reason = "must be greater than " + fe.Param()
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	return model.Invalid(field, reason)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// identity returns the caller set by authenticate.
func identity(r *http.Request) model.Identity {
	id, _ := model.IdentityFromContext(r.Context())
	return id
}
