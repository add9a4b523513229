package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wareflow/wareflow-backend/pkg/errors"
)

const (
	defaultLimit = 15
	maxLimit     = 100

	// DateLayout is the wire format for all date query parameters.
	DateLayout = "2006-01-02"
)

// Pagination holds validated page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePagination reads page and limit from the query string.
// page defaults to 1, limit to 15; limit is capped at 100.
func ParsePagination(r *http.Request) (Pagination, error) {
	p := Pagination{Page: 1, Limit: defaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, errors.BadRequest("page must be a positive integer")
		}
		p.Page = page
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return p, errors.BadRequest("limit must be between 1 and 100")
		}
		p.Limit = limit
	}

	return p, nil
}

// DateRange holds an optional start/end date filter. A nil field means
// the bound was not supplied.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange reads start_date and end_date (YYYY-MM-DD) from the query
// string. The end bound is inclusive of the whole day. start_date must not
// be after end_date when both are present.
func ParseDateRange(r *http.Request) (DateRange, error) {
	var dr DateRange

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return dr, errors.BadRequest("start_date must be in YYYY-MM-DD format")
		}
		dr.Start = &t
	}

	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return dr, errors.BadRequest("end_date must be in YYYY-MM-DD format")
		}
		// Inclusive upper bound: push to the end of the day
		end := t.Add(24*time.Hour - time.Nanosecond)
		dr.End = &end
	}

	if dr.Start != nil && dr.End != nil && dr.Start.After(*dr.End) {
		return dr, errors.BadRequest("start_date must not be after end_date")
	}

	return dr, nil
}

// ParseDateParam reads a required date query parameter in YYYY-MM-DD format.
func ParseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, errors.BadRequest(name + " is required")
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, errors.BadRequest(name + " must be in YYYY-MM-DD format")
	}
	return t, nil
}

// URLParamInt64 reads a chi URL parameter as an int64 entity ID.
func URLParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}

// QueryInt64 reads an optional int64 query parameter. Returns 0 when absent.
func QueryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}
