package httputil_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/pkg/httputil"
)

func TestParsePagination_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/things", nil)

	page, err := httputil.ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 15, page.Limit)
	assert.Equal(t, 0, page.Offset())
}

func TestParsePagination_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?page=3&limit=20", nil)

	page, err := httputil.ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 40, page.Offset())
}

func TestParsePagination_Invalid(t *testing.T) {
	cases := []string{
		"/things?page=0",
		"/things?page=abc",
		"/things?limit=0",
		"/things?limit=101",
		"/things?limit=-5",
	}
	for _, target := range cases {
		r := httptest.NewRequest("GET", target, nil)
		_, err := httputil.ParsePagination(r)
		assert.Error(t, err, target)
	}
}

func TestParseDateRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?start_date=2026-08-01&end_date=2026-08-31", nil)

	dates, err := httputil.ParseDateRange(r)
	require.NoError(t, err)
	require.NotNil(t, dates.Start)
	require.NotNil(t, dates.End)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *dates.Start)
	// End bound covers the whole last day
	assert.True(t, dates.End.After(time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, dates.End.Before(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateRange_OpenBounds(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?start_date=2026-08-01", nil)

	dates, err := httputil.ParseDateRange(r)
	require.NoError(t, err)
	assert.NotNil(t, dates.Start)
	assert.Nil(t, dates.End)

	r = httptest.NewRequest("GET", "/things", nil)
	dates, err = httputil.ParseDateRange(r)
	require.NoError(t, err)
	assert.Nil(t, dates.Start)
	assert.Nil(t, dates.End)
}

func TestParseDateRange_StartAfterEnd(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?start_date=2026-08-31&end_date=2026-08-01", nil)

	_, err := httputil.ParseDateRange(r)
	require.Error(t, err)
}

func TestParseDateRange_BadFormat(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?start_date=31.08.2026", nil)

	_, err := httputil.ParseDateRange(r)
	require.Error(t, err)
}

func TestParseDateParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?date=2026-08-20", nil)

	date, err := httputil.ParseDateParam(r, "date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), date)
}

func TestParseDateParam_Missing(t *testing.T) {
	r := httptest.NewRequest("GET", "/things", nil)

	_, err := httputil.ParseDateParam(r, "date")
	require.Error(t, err)
}

func TestQueryInt64(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?warehouse_id=7", nil)

	id, err := httputil.QueryInt64(r, "warehouse_id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestQueryInt64_AbsentReadsZero(t *testing.T) {
	r := httptest.NewRequest("GET", "/things", nil)

	id, err := httputil.QueryInt64(r, "warehouse_id")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

func TestQueryInt64_Invalid(t *testing.T) {
	for _, target := range []string{"/things?warehouse_id=abc", "/things?warehouse_id=0", "/things?warehouse_id=-3"} {
		r := httptest.NewRequest("GET", target, nil)
		_, err := httputil.QueryInt64(r, "warehouse_id")
		assert.Error(t, err, target)
	}
}
