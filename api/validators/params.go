package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

func invalidParam(err error, msg, field string, extra ...any) error {
	details := map[string]any{"field": field}
	for i := 0; i+1 < len(extra); i += 2 {
		details[extra[i].(string)] = extra[i+1]
	}
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg).WithDetails(details)
}

// ParseUUIDParam reads a required uuid route parameter such as {orderId}.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, invalidParam(nil, "path parameter is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidParam(err, "invalid path parameter", key)
	}
	return id, nil
}

// ParseQueryUUID reads an optional uuid filter. A missing value yields nil.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidParam(err, "invalid query parameter", key)
	}
	return &id, nil
}

// ParsePageParams reads limit and cursor. A malformed cursor is rejected here so the
// listing services only ever see tokens they issued.
func ParsePageParams(r *http.Request) (pagination.Params, error) {
	query := r.URL.Query()
	params := pagination.Params{
		Limit:  pagination.DefaultLimit,
		Cursor: strings.TrimSpace(query.Get("cursor")),
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return pagination.Params{}, invalidParam(nil, "query parameter must be numeric", "limit")
		}
		if limit < 1 || limit > pagination.MaxLimit {
			return pagination.Params{}, invalidParam(nil, "query parameter out of range", "limit", "min", 1, "max", pagination.MaxLimit)
		}
		params.Limit = limit
	}

	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Params{}, invalidParam(err, "invalid cursor", "cursor")
	}
	return params, nil
}
